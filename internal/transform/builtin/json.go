package builtin

import (
	"bytes"
	"encoding/json"
	"fmt"

	"lbship/internal/transform"
)

// JSON serializes a record as a single compact JSON object with sorted keys.
type JSON struct{}

func (JSON) Accepts() transform.Shape  { return transform.ShapeRecord }
func (JSON) Produces() transform.Shape { return transform.ShapeText }

func (JSON) Transform(_ transform.Event, in any) (any, error) {
	rec, err := transform.AsRecord(in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(rec)); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
