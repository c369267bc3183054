// Package file is a one-shot trigger source that reads a single S3 event
// notification from a file or stdin.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"lbship/source"
	"lbship/source/s3"
)

type Config struct {
	Path string // "-" or "" reads stdin
}

type driver struct {
	cfg   Config
	stdin io.Reader
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("file-source: expected Config, got %T", raw)
	}
	d.cfg = c
	return nil
}

func (d *driver) Run(ctx context.Context, handle source.HandleFunc) error {
	raw, err := d.read()
	if err != nil {
		return fmt.Errorf("file-source: %w", err)
	}
	ev, err := s3.DecodeEvent(raw)
	if err != nil {
		return err
	}
	return handle(ctx, ev)
}

func (d *driver) read() ([]byte, error) {
	if d.cfg.Path == "" || d.cfg.Path == "-" {
		in := d.stdin
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)
	}
	return os.ReadFile(d.cfg.Path)
}

func (d *driver) Close() error { return nil }

func init() {
	source.Register("file", func() source.Adapter { return &driver{} })
}
