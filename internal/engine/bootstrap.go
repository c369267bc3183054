package engine

import (
	"context"
	"errors"
	"fmt"

	"lbship/internal/config"
	"lbship/internal/logging"
	"lbship/internal/pipeline"
	"lbship/internal/telemetry"
)

func Bootstrap(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.PipelineYml == "" {
		return nil, errors.New("engine: no pipeline file")
	}

	// 1. pipeline file
	file, err := config.LoadPipelineSpec(cfg.PipelineYml)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	// 2. runner
	runner, err := pipeline.CompileSpec(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	// 3. metrics
	port := file.Metrics.Port
	if cfg.MetricsPort != 0 {
		port = cfg.MetricsPort
	}
	telemetry.Expose(port)

	logging.L().Info("engine: ready",
		"source", file.Source.Kind,
		"transformers", file.Transformers,
		"sinks", len(file.Sinks),
		"metrics_port", port)
	return &Engine{runner: runner}, nil
}
