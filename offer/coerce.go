package offer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Models hand back prices as "$12,500 total", "12500", 12500, or worse. The
// coercion functions below are total: any shape maps to either a value or
// absent (nil), never an error.

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// CoerceFloat converts a loosely-typed value to a float, or nil when the value
// carries no usable number. Strings are scanned for the first signed decimal
// number after stripping thousands-separator commas. Mappings and sequences
// coerce to nil.
func CoerceFloat(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case json.Number:
		return numericFromString(v.String())
	case string:
		return numericFromString(v)
	default:
		return nil
	}
}

// CoerceInt converts via CoerceFloat and truncates toward zero.
func CoerceInt(value any) *int {
	f := CoerceFloat(value)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func numericFromString(value string) *float64 {
	sanitized := strings.ReplaceAll(value, ",", "")
	match := numberPattern.FindString(sanitized)
	if match == "" {
		return nil
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// NormalizeExtras flattens whatever the model returned for "extras" into a
// list of text lines. Sequences flatten recursively, mappings become one
// "key: value" line per key (keys in sorted order so output is deterministic),
// scalars are stringified. Total: never fails, nil becomes the empty list.
func NormalizeExtras(extras any) []string {
	switch v := extras.(type) {
	case nil:
		return []string{}
	case string:
		return []string{v}
	case []any:
		normalized := make([]string, 0, len(v))
		for _, item := range v {
			normalized = append(normalized, NormalizeExtras(item)...)
		}
		return normalized
	case []string:
		return append([]string{}, v...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		normalized := make([]string, 0, len(v))
		for _, key := range keys {
			normalized = append(normalized, key+": "+compactValue(v[key]))
		}
		return normalized
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

// compactValue serializes nested mappings/sequences to compact JSON and
// stringifies scalars.
func compactValue(value any) string {
	switch value.(type) {
	case map[string]any, []any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", value)
	}
}
