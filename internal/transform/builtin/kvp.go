package builtin

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"lbship/internal/transform"
)

// KeyValuePairs renders a record as `key="value"` tokens in ascending key
// order, separated by single spaces. Double quotes inside values are escaped.
type KeyValuePairs struct{}

func (KeyValuePairs) Accepts() transform.Shape  { return transform.ShapeRecord }
func (KeyValuePairs) Produces() transform.Shape { return transform.ShapeText }

func (KeyValuePairs) Transform(_ transform.Event, in any) (any, error) {
	rec, err := transform.AsRecord(in)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(strings.ReplaceAll(stringify(rec[k]), `"`, `\"`))
		b.WriteByte('"')
	}
	return b.String(), nil
}

// stringify gives the string form of a field value, spelled the way the
// records were historically shipped: nil is None, booleans are True/False and
// integral floats keep a trailing ".0".
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return "None"
	case string:
		return s
	case bool:
		if s {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(s, 64)
	case float32:
		return formatFloat(float64(s), 32)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64, bits int) string {
	out := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(out, ".eEnN") {
		out += ".0"
	}
	return out
}
