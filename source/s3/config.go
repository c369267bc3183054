package s3

import "lbship/internal/config"

// EnvPrefix overrides fetcher settings, e.g. LBSHIPPER_S3__REGION.
const EnvPrefix = "LBSHIPPER_S3__"

type Config struct {
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`   // S3 compatible stores
	PathStyle bool   `koanf:"path_style"` // required by most S3 compatible stores
	// Decompress controls gzip handling: auto (by suffix or magic bytes),
	// always, never.
	Decompress string `koanf:"decompress"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := config.Load(path, EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Decompress == "" {
		cfg.Decompress = DecompressAuto
	}
	return cfg, nil
}
