package transform

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTransformer   = errors.New("unknown transformer")
	ErrInvalidConfiguration = errors.New("invalid transformer configuration")
	ErrUnexpectedInput      = errors.New("unexpected stage input")
	ErrIncompatibleStages   = errors.New("incompatible pipeline stages")
)

// UnknownTransformerError is returned when a pipeline names a transformer the
// registry does not know.
type UnknownTransformerError struct {
	Name string
}

func (e *UnknownTransformerError) Error() string {
	return fmt.Sprintf("unknown transformer %q", e.Name)
}

func (e *UnknownTransformerError) Is(target error) bool { return target == ErrUnknownTransformer }

// InvalidConfigurationError reports malformed transformer settings.
type InvalidConfigurationError struct {
	Transformer string
	Reason      string
	Err         error
}

func (e *InvalidConfigurationError) Error() string {
	msg := fmt.Sprintf("transformer %s: invalid configuration: %s", e.Transformer, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }

func (e *InvalidConfigurationError) Unwrap() error { return e.Err }

// IncompatibleStagesError is returned by Build when stage Index expects a
// representation its predecessor does not produce.
type IncompatibleStagesError struct {
	Index int
	Name  string
	Want  Shape
	Got   Shape
}

func (e *IncompatibleStagesError) Error() string {
	return fmt.Sprintf("stage %d (%s) accepts %s but previous stage produces %s", e.Index, e.Name, e.Want, e.Got)
}

func (e *IncompatibleStagesError) Is(target error) bool { return target == ErrIncompatibleStages }

// StageError wraps a failure raised by one pipeline stage.
type StageError struct {
	Index int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
