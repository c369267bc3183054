// Package sink defines delivery targets for transformed log lines.
package sink

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error // driver-specific config struct
	// Push delivers one line. The line carries no trailing newline.
	Push(ctx context.Context, line string) error
	Close() error // idempotent
}

/*──────── registry ───────*/

type factory = func() Adapter

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}

// Kinds lists registered sink kinds.
func Kinds() []string { return slices.Sorted(maps.Keys(reg)) }
