package kafka

import (
	"fmt"

	"github.com/IBM/sarama"

	"lbship/internal/config"
)

// EnvPrefix overrides source settings, e.g. LBSHIPPER_KAFKA__BROKERS=a:9092,b:9092.
const EnvPrefix = "LBSHIPPER_KAFKA__"

type ErrorPolicy string

const (
	OnErrorSkip ErrorPolicy = "skip" // log, mark the message and move on
	OnErrorStop ErrorPolicy = "stop" // stop consuming; the message is redelivered
)

type Config struct {
	Brokers   []string `koanf:"brokers"`
	Topics    []string `koanf:"topics"`
	GroupID   string   `koanf:"group_id"`
	StartFrom string   `koanf:"start_from"` // oldest|newest (default newest)
	Version   string   `koanf:"version"`
	TLSEn     bool     `koanf:"tls_enabled"`
	SASLUser  string   `koanf:"sasl_user"`
	SASLPass  string   `koanf:"sasl_pass"`

	OnError ErrorPolicy `koanf:"on_error"`
}

// LoadConfig merges YAML (if present) with LBSHIPPER_KAFKA__* env-vars.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := config.Load(path, EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	if len(cfg.Brokers) == 0 || len(cfg.Topics) == 0 || cfg.GroupID == "" {
		return cfg, fmt.Errorf("kafka source: brokers, topics and group_id are required")
	}
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.StartFrom == "" {
		c.StartFrom = "newest"
	}
	if c.Version == "" {
		c.Version = sarama.V2_1_0_0.String()
	}
	if c.OnError != OnErrorSkip && c.OnError != OnErrorStop {
		c.OnError = OnErrorSkip
	}
}
