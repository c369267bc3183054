package pipeline

import (
	"context"
	"fmt"

	"lbship/internal/config"
	"lbship/internal/spec"
	"lbship/internal/transform"
	"lbship/internal/transform/builtin"
	"lbship/sink"
	kafkasink "lbship/sink/kafka"
	"lbship/sink/stdout"
	"lbship/sink/tcp"
	"lbship/source"
	"lbship/source/file"
	kafkasrc "lbship/source/kafka"
	"lbship/source/s3"
)

// StdoutEnvPrefix overrides stdout sink settings.
const StdoutEnvPrefix = "LBSHIPPER_STDOUT__"

// Compile loads the pipeline file at path and builds a ready Runner.
func Compile(ctx context.Context, path string) (*Runner, error) {
	cfg, err := config.LoadPipelineSpec(path)
	if err != nil {
		return nil, err
	}
	return CompileSpec(ctx, cfg)
}

// CompileSpec builds a Runner from an already loaded pipeline file. Transformer
// names are resolved before any network client is created.
func CompileSpec(ctx context.Context, cfg spec.File) (*Runner, error) {
	settings, err := config.LoadTransformSettings(cfg.TransformerConfig)
	if err != nil {
		return nil, fmt.Errorf("transformer config: %w", err)
	}
	reg, err := builtin.NewRegistry(settings)
	if err != nil {
		return nil, err
	}
	p, err := transform.Build(reg, cfg.Transformers)
	if err != nil {
		return nil, err
	}

	fc, err := s3.LoadConfig(cfg.Fetch.Config)
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	fetcher, err := s3.NewFetcher(ctx, fc)
	if err != nil {
		return nil, err
	}

	r := NewRunner(fetcher, p)
	r.SkipBadRecords(cfg.OnRecordError == "skip")
	r.SetConcurrency(cfg.ObjectConcurrency)
	if err := addSource(r, cfg.Source); err != nil {
		return nil, err
	}
	for _, sc := range cfg.Sinks {
		if err := addSink(r, sc); err != nil {
			_ = r.Close()
			return nil, err
		}
	}
	return r, nil
}

func addSource(r *Runner, sc spec.SourceSpec) error {
	var raw any
	switch sc.Kind {
	case "file":
		raw = file.Config{Path: sc.Path}
	case "kafka":
		kc, err := kafkasrc.LoadConfig(sc.Config)
		if err != nil {
			return err
		}
		raw = kc
	default:
		return fmt.Errorf("unsupported source %q", sc.Kind)
	}

	src, err := source.NewAdapter(sc.Kind)
	if err != nil {
		return err
	}
	if err := src.Configure(raw); err != nil {
		return err
	}
	r.SetSource(src)
	return nil
}

func addSink(r *Runner, sc spec.SinkSpec) error {
	var (
		raw any
		err error
	)
	switch sc.Kind {
	case "tcp":
		raw, err = tcp.LoadConfig(sc.Config)
	case "kafka":
		raw, err = kafkasink.LoadConfig(sc.Config)
	case "stdout":
		var c stdout.Config
		err = config.Load(sc.Config, StdoutEnvPrefix, &c)
		raw = c
	default:
		err = fmt.Errorf("no config block for sink %q", sc.Kind)
	}
	if err != nil {
		return fmt.Errorf("sink %s: %w", sc.Kind, err)
	}

	drv, err := sink.NewAdapter(sc.Kind)
	if err != nil {
		return err
	}
	if err := drv.Configure(raw); err != nil {
		return fmt.Errorf("sink %s: %w", sc.Kind, err)
	}
	r.AddSink(sc.Kind, drv)
	return nil
}
