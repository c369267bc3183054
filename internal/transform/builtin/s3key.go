package builtin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"

	"lbship/internal/transform"
)

var errNoEvent = errors.New("s3_key_field_extractor: no triggering event")

// FieldAssignment is one entry of the key field mapping as configured.
// Expression is accepted as an alias of Value.
type FieldAssignment struct {
	Field      string `json:"field"`
	Value      string `json:"value"`
	Expression string `json:"expression"`
}

type keyField struct {
	field string
	expr  *jmespath.JMESPath
}

// KeyFieldMapping is a parsed, compiled mapping. An empty mapping disables the
// extractor.
type KeyFieldMapping []keyField

// ParseKeyFieldMapping decodes and compiles the JSON mapping. Empty input and
// JSON null both mean "not configured".
func ParseKeyFieldMapping(raw string) (KeyFieldMapping, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var assignments []FieldAssignment
	if err := json.Unmarshal([]byte(raw), &assignments); err != nil {
		return nil, &transform.InvalidConfigurationError{Transformer: S3KeyFieldExtractName, Reason: "mapping is not a JSON list of assignments", Err: err}
	}
	mapping := make(KeyFieldMapping, 0, len(assignments))
	for i, a := range assignments {
		src := a.Value
		if src == "" {
			src = a.Expression
		}
		if a.Field == "" || src == "" {
			return nil, &transform.InvalidConfigurationError{
				Transformer: S3KeyFieldExtractName,
				Reason:      fmt.Sprintf("assignment %d needs both field and value", i),
			}
		}
		expr, err := jmespath.Compile(src)
		if err != nil {
			return nil, &transform.InvalidConfigurationError{
				Transformer: S3KeyFieldExtractName,
				Reason:      fmt.Sprintf("assignment %d (%s): bad expression %q", i, a.Field, src),
				Err:         err,
			}
		}
		mapping = append(mapping, keyField{field: a.Field, expr: expr})
	}
	return mapping, nil
}

// S3KeyFieldExtractor enriches records with values picked out of the source
// object key. The key is decoded, trimmed of slashes and split into segments;
// each expression is evaluated against {"key": segments} in mapping order.
// Expressions that select nothing (such as an out of range index) assign nil.
type S3KeyFieldExtractor struct {
	mapping KeyFieldMapping
}

func NewS3KeyFieldExtractor(m KeyFieldMapping) *S3KeyFieldExtractor {
	return &S3KeyFieldExtractor{mapping: m}
}

func (*S3KeyFieldExtractor) Accepts() transform.Shape  { return transform.ShapeRecord }
func (*S3KeyFieldExtractor) Produces() transform.Shape { return transform.ShapeRecord }

func (x *S3KeyFieldExtractor) Transform(ev transform.Event, in any) (any, error) {
	rec, err := transform.AsRecord(in)
	if err != nil {
		return nil, err
	}
	if len(x.mapping) == 0 {
		return rec, nil
	}
	if ev == nil {
		return nil, errNoEvent
	}

	data := map[string]any{"key": KeySegments(ev.ObjectKey())}
	out := rec.Clone()
	for _, f := range x.mapping {
		v, err := f.expr.Search(data)
		if err != nil {
			return nil, fmt.Errorf("s3_key_field_extractor: field %s: %w", f.field, err)
		}
		out[f.field] = v
	}
	return out, nil
}

// KeySegments decodes a raw object key and splits it into path segments.
func KeySegments(rawKey string) []any {
	parts := strings.Split(strings.Trim(transform.DecodeKey(rawKey), "/"), "/")
	segs := make([]any, len(parts))
	for i, p := range parts {
		segs[i] = p
	}
	return segs
}
