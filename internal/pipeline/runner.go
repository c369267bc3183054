package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"lbship/internal/elblog"
	"lbship/internal/logging"
	"lbship/internal/telemetry"
	"lbship/internal/transform"
	"lbship/internal/transform/builtin"
	"lbship/sink"
	"lbship/source"
	"lbship/source/s3"
)

// Fetcher opens the object a notification points at. Content is returned
// decompressed.
type Fetcher interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type namedSink struct {
	kind string
	sink.Adapter
}

// Runner wires a trigger source to the fetch, parse, transform and deliver
// steps. One Runner handles notifications sequentially.
type Runner struct {
	source   source.Adapter
	fetcher  Fetcher
	pipeline *transform.Pipeline
	sinks    []namedSink

	skipBad     bool // skip records that fail to parse or transform instead of failing the object
	concurrency int  // objects of one event handled at once
}

func NewRunner(f Fetcher, p *transform.Pipeline) *Runner {
	return &Runner{fetcher: f, pipeline: p}
}

func (r *Runner) SetSource(s source.Adapter) { r.source = s }

// SetConcurrency bounds how many objects of one event are fetched and shipped
// at the same time. Values below 1 mean 1. Lines of one object are always
// delivered in order; sinks must accept concurrent Push calls when n > 1.
func (r *Runner) SetConcurrency(n int) { r.concurrency = max(n, 1) }

// SkipBadRecords makes malformed or failing records count as skipped. By
// default the first such record fails its object.
func (r *Runner) SkipBadRecords(skip bool) { r.skipBad = skip }

func (r *Runner) AddSink(kind string, s sink.Adapter) {
	r.sinks = append(r.sinks, namedSink{kind: kind, Adapter: s})
}

// Run blocks until the source is exhausted or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return errors.New("runner: no source configured")
	}
	if len(r.sinks) == 0 {
		return errors.New("runner: no sinks configured")
	}
	return r.source.Run(ctx, r.Handle)
}

// Handle processes every object named in ev. A failing object does not stop
// the others; all failures are returned joined.
func (r *Runner) Handle(ctx context.Context, ev *s3.Event) error {
	log := logging.Invocation()
	log.Info("event received", "records", len(ev.Records))

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(max(r.concurrency, 1))
	for _, rec := range ev.Records {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		g.Go(func() error {
			err := r.handleObject(ctx, log, rec)
			telemetry.ObjectsTotal.WithLabelValues(telemetry.Status(err)).Inc()
			if err != nil {
				log.Error("object failed", "bucket", rec.Bucket(), "key", rec.ObjectKey(), "err", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (r *Runner) handleObject(ctx context.Context, log *slog.Logger, rec s3.EventRecord) error {
	bucket, key := rec.Bucket(), transform.DecodeKey(rec.ObjectKey())
	log = log.With("bucket", bucket, "key", key)

	body, err := r.fetcher.Open(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer body.Close()

	p := elblog.NewParser(body)
	var sent, skipped int
	for {
		fields, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !elblog.IsLineError(err) {
			return fmt.Errorf("read: %w", err)
		}
		if err != nil {
			telemetry.RecordsTotal.WithLabelValues("parse_error").Inc()
			if !r.skipBad {
				return err
			}
			log.Warn("skipping line", "err", err)
			skipped++
			continue
		}

		line, err := r.apply(rec, fields)
		if err != nil {
			telemetry.RecordsTotal.WithLabelValues("transform_error").Inc()
			if !r.skipBad {
				return fmt.Errorf("line %d: %w", p.Line(), err)
			}
			log.Warn("skipping record", "line", p.Line(), "err", err)
			skipped++
			continue
		}
		if err := r.deliver(ctx, line); err != nil {
			return fmt.Errorf("line %d: %w", p.Line(), err)
		}
		telemetry.RecordsTotal.WithLabelValues("ok").Inc()
		sent++
	}
	log.Info("object shipped", "sent", sent, "skipped", skipped)
	return nil
}

func (r *Runner) apply(ev transform.Event, fields transform.Record) (string, error) {
	out, err := r.pipeline.Apply(ev, fields)
	if err != nil {
		return "", err
	}
	return Render(out)
}

func (r *Runner) deliver(ctx context.Context, line string) error {
	for _, s := range r.sinks {
		err := s.Push(ctx, line)
		telemetry.DeliveredTotal.WithLabelValues(s.kind, telemetry.Status(err)).Inc()
		if err != nil {
			return fmt.Errorf("sink %s: %w", s.kind, err)
		}
	}
	return nil
}

// Render turns the pipeline's final representation into one output line.
// Records that were never serialized are encoded as JSON.
func Render(out any) (string, error) {
	switch v := out.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case transform.Record, map[string]any:
		s, err := builtin.JSON{}.Transform(nil, v)
		if err != nil {
			return "", err
		}
		return s.(string), nil
	default:
		return "", fmt.Errorf("runner: cannot render %T", out)
	}
}

// Close releases the source and every sink.
func (r *Runner) Close() error {
	var errs []error
	if r.source != nil {
		errs = append(errs, r.source.Close())
	}
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
