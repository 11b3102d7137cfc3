package codec

import (
	"encoding/json"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Payload field accessors shared by the built-in codecs. They read the
// loosely-typed map form a payload arrives in before canonicalization.

func stringField(p map[string]any, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolField(p map[string]any, key string) (bool, bool) {
	v, ok := p[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func numberField(p map[string]any, key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func mapField(p map[string]any, key string) (map[string]any, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func sliceField(p map[string]any, key string) ([]any, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// canonicalMap runs the block canonicalizer over m so nested values are in
// normalized form (json.Number, map[string]any, []any).
func canonicalMap(m map[string]any) (map[string]any, error) {
	norm, err := block.Canonicalize(m)
	if err != nil {
		return nil, err
	}
	out, _ := norm.(map[string]any)
	return out, nil
}

// renderValue serializes v compactly for inclusion in rendered text.
// Strings pass through verbatim; everything else is canonical JSON.
func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := block.MarshalCanonical(v)
	if err != nil {
		return ""
	}
	return string(data)
}
