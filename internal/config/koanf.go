package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load merges the YAML file at path (if set and present) with environment
// variables carrying envPrefix, then decodes the result into out.
//
// Env names map to keys by dropping the prefix, lower-casing and turning "__"
// into a nesting level: LBSHIPPER_SINK__TLS__ENABLED -> tls.enabled.
// Comma separated env values decode into slices.
func Load(path, envPrefix string, out any) error {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	// schema version check (only when YAML is present)
	if sv := k.String("schema_version"); sv != "" && sv != SupportedSchema {
		return fmt.Errorf("config %s: schema_version %q not supported (want %q)", path, sv, SupportedSchema)
	}

	if envPrefix != "" {
		if err := k.Load(env.Provider(envPrefix, ".", envKey(envPrefix)), nil); err != nil {
			return err
		}
	}

	return k.UnmarshalWithConf("", out, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           out,
			WeaklyTypedInput: true,
		},
	})
}

func envKey(prefix string) func(string) string {
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(s, "__", ".")
	}
}
