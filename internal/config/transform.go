package config

// TransformEnvPrefix is the environment prefix for transformer settings. The
// key field extractor mapping is read from
// TRANSFORMER_S3_KEY_FIELD_EXTRACTOR_MAPPING.
const TransformEnvPrefix = "TRANSFORMER_"

// TransformSettings is the configuration snapshot handed to builtin
// transformers when the registry is built.
type TransformSettings struct {
	// S3KeyFieldMapping is a JSON list of {"field", "value"} assignments, where
	// value is a JMESPath expression over {"key": [key segments]}. Empty means
	// the extractor passes records through.
	S3KeyFieldMapping string `koanf:"s3_key_field_extractor_mapping"`
}

// LoadTransformSettings reads transformer settings from the optional YAML file
// at path, overridden by TRANSFORMER_* environment variables.
func LoadTransformSettings(path string) (TransformSettings, error) {
	var s TransformSettings
	if err := Load(path, TransformEnvPrefix, &s); err != nil {
		return s, err
	}
	return s, nil
}
