package builtin

import (
	"lbship/internal/config"
	"lbship/internal/transform"
)

const (
	JSONName              = "json"
	KeyValuePairsName     = "kvp"
	URLParserName         = "url_parser"
	S3KeyFieldExtractName = "s3_key_field_extractor"
)

// Aliases maps the transformer names used by existing pipeline configurations
// to the builtin they select. Both spellings resolve to the same factory.
var Aliases = map[string]string{
	"JSONTransformer":                JSONName,
	"KeyValuePairFormatTransformer":  KeyValuePairsName,
	"URLParserTransformer":           URLParserName,
	"S3KeyFieldExtractorTransformer": S3KeyFieldExtractName,
}

// NewRegistry returns a registry holding every builtin transformer under its
// name and its alias. Settings are parsed here, so a malformed key field
// mapping fails before any pipeline is built.
func NewRegistry(settings config.TransformSettings) (*transform.Registry, error) {
	mapping, err := ParseKeyFieldMapping(settings.S3KeyFieldMapping)
	if err != nil {
		return nil, err
	}

	factories := map[string]transform.Factory{
		JSONName:          func() transform.Transformer { return JSON{} },
		KeyValuePairsName: func() transform.Transformer { return KeyValuePairs{} },
		URLParserName:     func() transform.Transformer { return URLParser{} },
		S3KeyFieldExtractName: func() transform.Transformer {
			return NewS3KeyFieldExtractor(mapping)
		},
	}

	reg := transform.NewRegistry()
	for name, f := range factories {
		reg.MustRegister(name, f)
	}
	for alias, name := range Aliases {
		reg.MustRegister(alias, factories[name])
	}
	return reg, nil
}
