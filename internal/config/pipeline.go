package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"lbship/internal/spec"
)

const SupportedSchema = "v1"

// LoadPipelineSpec parses a pipeline YAML, validates schema_version, and
// resolves every referenced config path relative to the pipeline file.
func LoadPipelineSpec(path string) (spec.File, error) {
	var cfg spec.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("pipeline %s: %w", path, err)
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, fmt.Errorf("pipeline schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if cfg.Source.Kind == "" {
		return cfg, fmt.Errorf("pipeline %s: source.kind is required", path)
	}
	switch cfg.OnRecordError {
	case "":
		cfg.OnRecordError = "fail"
	case "fail", "skip":
	default:
		return cfg, fmt.Errorf("pipeline %s: on_record_error %q must be fail or skip", path, cfg.OnRecordError)
	}
	if len(cfg.Sinks) == 0 {
		return cfg, fmt.Errorf("pipeline %s: at least one sink is required", path)
	}

	dir := filepath.Dir(path)
	cfg.Source.Config = resolve(dir, cfg.Source.Config)
	if cfg.Source.Path != "-" {
		cfg.Source.Path = resolve(dir, cfg.Source.Path)
	}
	cfg.Fetch.Config = resolve(dir, cfg.Fetch.Config)
	cfg.TransformerConfig = resolve(dir, cfg.TransformerConfig)
	for i := range cfg.Sinks {
		cfg.Sinks[i].Config = resolve(dir, cfg.Sinks[i].Config)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
