// Package source defines trigger sources: components that receive S3 event
// notifications and hand them to the runner.
package source

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"lbship/source/s3"
)

// HandleFunc processes one event notification.
type HandleFunc func(context.Context, *s3.Event) error

// Adapter is the common behaviour every trigger source exposes.
type Adapter interface {
	Configure(any) error // driver-specific config struct
	// Run delivers events to handle until the source is exhausted or ctx is
	// cancelled.
	Run(ctx context.Context, handle HandleFunc) error
	Close() error
}

/*──────── registry ───────*/

// Factory builds an Adapter ("file", "kafka", ...).
type Factory func() Adapter

var registry = map[string]Factory{}

// Register is called from each driver's init().
func Register(name string, f Factory) { registry[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := registry[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("source: unsupported kind %q", name)
}

// Kinds lists registered source kinds.
func Kinds() []string { return slices.Sorted(maps.Keys(registry)) }
