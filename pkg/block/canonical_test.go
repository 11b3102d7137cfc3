package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysRecursively(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 2, "a": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":1,"b":2},"zebra":1}`, string(got))
}

func TestMarshalCanonical_KeyOrderHasNoEffect(t *testing.T) {
	type payload struct {
		B string `json:"b"`
		A string `json:"a"`
	}
	fromStruct, err := MarshalCanonical(payload{A: "1", B: "2"})
	require.NoError(t, err)
	fromMap, err := MarshalCanonical(map[string]any{"a": "1", "b": "2"})
	require.NoError(t, err)
	assert.Equal(t, string(fromMap), string(fromStruct))
}

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"true", true, "true"},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"string", "hi", `"hi"`},
		{"array", []any{1, "a", nil}, `[1,"a",null]`},
		{"empty object", map[string]any{}, "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestHashCanonical_EmptyObjectConstant(t *testing.T) {
	got, err := HashCanonical(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, EmptyObjectHash, got)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	in := map[string]any{"n": 3, "nested": map[string]any{"x": []any{1, 2}}}
	once, err := Canonicalize(in)
	require.NoError(t, err)
	twice, err := Canonicalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestMarshalCanonical_RejectsUnserializable(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCanonicalizable)
}
