package transform

import (
	"fmt"
	"strings"
)

// Event identifies the object whose contents triggered an invocation.
// Transformers only read it.
type Event interface {
	// ObjectKey returns the raw, percent-encoded key of the source object.
	ObjectKey() string
}

// Record is one parsed log line: field name to value. Values are strings or
// scalars with a natural string form.
type Record map[string]any

// Transformer is a single pipeline stage. It receives the accumulator produced
// by the previous stage (a Record for the first stage) and returns the value
// handed to the next one. Implementations must not keep per-call state, so one
// instance can serve concurrent Apply calls.
type Transformer interface {
	Transform(ev Event, in any) (any, error)
}

// Func adapts an ordinary function to the Transformer interface.
type Func func(ev Event, in any) (any, error)

func (f Func) Transform(ev Event, in any) (any, error) { return f(ev, in) }

// Shape describes the representation a stage consumes or produces.
type Shape uint8

const (
	ShapeAny Shape = iota
	ShapeRecord
	ShapeText
)

func (s Shape) String() string {
	switch s {
	case ShapeRecord:
		return "record"
	case ShapeText:
		return "text"
	default:
		return "any"
	}
}

// Shaped is implemented by transformers that declare their input and output
// representations. Build uses it to reject pipelines that would hand a
// serialized string to a stage expecting a Record.
type Shaped interface {
	Accepts() Shape
	Produces() Shape
}

func shapeOf(t Transformer) (in, out Shape) {
	if s, ok := t.(Shaped); ok {
		return s.Accepts(), s.Produces()
	}
	return ShapeAny, ShapeAny
}

// AsRecord returns the accumulator as a Record, or ErrUnexpectedInput when an
// earlier stage already replaced it with another representation.
func AsRecord(in any) (Record, error) {
	switch v := in.(type) {
	case Record:
		return v, nil
	case map[string]any:
		return Record(v), nil
	case nil:
		return nil, fmt.Errorf("%w: got nil, want record", ErrUnexpectedInput)
	default:
		return nil, fmt.Errorf("%w: got %T, want record", ErrUnexpectedInput, in)
	}
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DecodeKey undoes the form encoding S3 applies to object keys in event
// notifications: "+" becomes a space and every valid %XX escape is decoded.
// Malformed escapes are kept as written.
func DecodeKey(raw string) string {
	if !strings.ContainsAny(raw, "%+") {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2]):
			b.WriteByte(unhex(raw[i+1])<<4 | unhex(raw[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c <= '9':
		return c - '0'
	case c >= 'a':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
