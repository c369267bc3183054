// Package tcp delivers lines to a token based log intake over TCP or TLS.
// Every line is written as "<token> <line>\n" on one long lived connection.
package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"lbship/internal/config"
	"lbship/internal/logging"
	"lbship/sink"
)

// EnvPrefix overrides sink settings, e.g. LBSHIPPER_SINK__TOKEN.
const EnvPrefix = "LBSHIPPER_SINK__"

type Config struct {
	Address      string        `koanf:"address"` // host:port
	Token        string        `koanf:"token"`   // log token, a UUID
	TLS          bool          `koanf:"tls"`
	SkipVerify   bool          `koanf:"tls_skip_verify"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := config.Load(path, EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return cfg, validate(cfg)
}

func validate(c Config) error {
	if c.Address == "" {
		return fmt.Errorf("tcp-sink: address is required")
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("tcp-sink: address %q: %w", c.Address, err)
	}
	if _, err := uuid.Parse(c.Token); err != nil {
		return fmt.Errorf("tcp-sink: token is not a valid UUID: %w", err)
	}
	return nil
}

type driver struct {
	cfg Config

	mu   sync.Mutex // guards conn and serializes writes
	conn net.Conn
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("tcp-sink: expected Config, got %T", raw)
	}
	if err := validate(c); err != nil {
		return err
	}
	d.cfg = c
	return nil
}

// Push writes one token prefixed line. A failed write drops the connection
// and is retried once on a fresh one.
func (d *driver) Push(ctx context.Context, line string) error {
	msg := d.cfg.Token + " " + line + "\n"

	d.mu.Lock()
	defer d.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if d.conn == nil {
			conn, err := d.dial(ctx)
			if err != nil {
				return fmt.Errorf("tcp-sink: dial %s: %w", d.cfg.Address, err)
			}
			d.conn = conn
		}
		if d.cfg.WriteTimeout > 0 {
			_ = d.conn.SetWriteDeadline(time.Now().Add(d.cfg.WriteTimeout))
		}
		_, err := io.WriteString(d.conn, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		_ = d.conn.Close()
		d.conn = nil
		logging.L().Warn("tcp-sink: write failed, reconnecting", "addr", d.cfg.Address, "err", err)
	}
	return fmt.Errorf("tcp-sink: write: %w", lastErr)
}

func (d *driver) dial(ctx context.Context) (net.Conn, error) {
	nd := &net.Dialer{Timeout: d.cfg.DialTimeout}
	if !d.cfg.TLS {
		return nd.DialContext(ctx, "tcp", d.cfg.Address)
	}
	host, _, _ := net.SplitHostPort(d.cfg.Address)
	td := &tls.Dialer{
		NetDialer: nd,
		Config:    &tls.Config{ServerName: host, InsecureSkipVerify: d.cfg.SkipVerify, MinVersion: tls.VersionTLS12},
	}
	return td.DialContext(ctx, "tcp", d.cfg.Address)
}

func (d *driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func init() {
	sink.Register("tcp", func() sink.Adapter { return &driver{} })
}
