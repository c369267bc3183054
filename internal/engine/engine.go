package engine

import (
	"context"
	"errors"

	"lbship/internal/logging"
	"lbship/internal/pipeline"
)

// Config holds process level settings that are not part of the pipeline file.
type Config struct {
	PipelineYml string
	// MetricsPort overrides metrics.port from the pipeline file when non-zero.
	MetricsPort int
}

type Engine struct {
	runner *pipeline.Runner
}

// Run drives the runner until its source is exhausted or ctx is cancelled,
// then releases the source and sinks. Cancellation is not an error.
func (e *Engine) Run(ctx context.Context) error {
	err := e.runner.Run(ctx)
	if cerr := e.runner.Close(); cerr != nil {
		logging.L().Warn("engine: close", "err", cerr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
