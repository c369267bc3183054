// Package kafka is a sink that produces every line as one Kafka message.
package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"lbship/internal/config"
	"lbship/sink"
)

// EnvPrefix overrides sink settings, e.g. LBSHIPPER_KAFKA_SINK__TOPIC.
const EnvPrefix = "LBSHIPPER_KAFKA_SINK__"

type Config struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	Acks    int16    `koanf:"required_acks"` // 1 or -1; unset means 1
	Version string   `koanf:"version"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := config.Load(path, EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return cfg, fmt.Errorf("kafka-sink: brokers and topic are required")
	}
	if cfg.Acks == 0 {
		cfg.Acks = int16(sarama.WaitForLocal)
	}
	return cfg, nil
}

type driver struct {
	cfg Config
	p   sarama.SyncProducer
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	if cfg.Version != "" {
		ver, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return err
		}
		sc.Version = ver
	}
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Successes = true
	var err error
	d.p, err = sarama.NewSyncProducer(cfg.Brokers, sc)
	return err
}

func (d *driver) Push(_ context.Context, line string) error {
	_, _, err := d.p.SendMessage(&sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Value: sarama.StringEncoder(line),
	})
	if err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	return nil
}

func (d *driver) Close() error {
	if d.p == nil {
		return nil
	}
	err := d.p.Close()
	d.p = nil
	return err
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
