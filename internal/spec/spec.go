package spec

// SourceSpec selects the trigger source. Config points at the driver's own
// YAML file; Path is used by the file source ("-" reads stdin).
type SourceSpec struct {
	Kind   string `yaml:"kind"` // "file", "kafka"
	Config string `yaml:"config"`
	Path   string `yaml:"path"`
}

type SinkSpec struct {
	Kind   string `yaml:"kind"` // "tcp", "kafka", "stdout"
	Config string `yaml:"config"`
}

type FetchSpec struct {
	Config string `yaml:"config"` // S3 client settings
}

type metricsSection struct {
	Port int `yaml:"port"` // 0 = not exposed
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source SourceSpec `yaml:"source"`
	Fetch  FetchSpec  `yaml:"fetch"`

	// Ordered transformer names applied to every parsed log record.
	Transformers      []string `yaml:"transformers"`
	TransformerConfig string   `yaml:"transformer_config"`
	// OnRecordError is "fail" (default) or "skip".
	OnRecordError string `yaml:"on_record_error"`
	// ObjectConcurrency bounds parallel object handling per event (default 1).
	ObjectConcurrency int `yaml:"object_concurrency"`

	Sinks   []SinkSpec     `yaml:"sinks"`
	Metrics metricsSection `yaml:"metrics"`
}
