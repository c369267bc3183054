// Package stdout is a debug sink that prints every line.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"lbship/sink"
)

/* ────────── public config ────────── */
type Config struct {
	PrintCounter bool `koanf:"print_counter"` // prepend seq#
}

/* ────────── driver ────────── */
type driver struct {
	cfg Config
	out io.Writer

	mu  sync.Mutex // serializes writes and seq
	seq uint64
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(_ context.Context, line string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.out
	if out == nil {
		out = os.Stdout
	}
	d.seq++
	var err error
	if d.cfg.PrintCounter {
		_, err = fmt.Fprintf(out, "[sink %06d] %s\n", d.seq, line)
	} else {
		_, err = fmt.Fprintln(out, line)
	}
	return err
}

func (d *driver) Close() error { return nil }

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
