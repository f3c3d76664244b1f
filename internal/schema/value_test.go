package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want ValueKind
	}{
		{"nil", nil, ValueNull},
		{"bool", true, ValueBool},
		{"int", 42, ValueInt},
		{"int64", int64(42), ValueInt},
		{"integral float", float64(42), ValueInt},
		{"fractional float", 4.2, ValueFloat},
		{"string", "x", ValueString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Kind)
		})
	}
}

func TestFromAny_JSONNumber(t *testing.T) {
	v, err := FromAny(json.Number("7"))
	require.NoError(t, err)
	assert.Equal(t, ValueInt, v.Kind)
	assert.Equal(t, int64(7), v.Int)

	v, err = FromAny(json.Number("7.5"))
	require.NoError(t, err)
	assert.Equal(t, ValueFloat, v.Kind)
	assert.Equal(t, 7.5, v.Float)

	_, err = FromAny(json.Number("not-a-number"))
	require.Error(t, err)
}

func TestFromAny_Composite(t *testing.T) {
	v, err := FromAny(map[string]any{
		"items": []any{float64(1), "two", nil},
	})
	require.NoError(t, err)

	require.Equal(t, ValueObject, v.Kind)
	items := v.Fields["items"]
	require.Equal(t, ValueArray, items.Kind)
	require.Len(t, items.Items, 3)
	assert.Equal(t, ValueInt, items.Items[0].Kind)
	assert.Equal(t, ValueString, items.Items[1].Kind)
	assert.Equal(t, ValueNull, items.Items[2].Kind)
}

func TestFromAny_Unrepresentable(t *testing.T) {
	_, err := FromAny(make(chan int))
	assert.ErrorContains(t, err, "unrepresentable")
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"a": [1, 2.5], "b": "x"}`))
	require.NoError(t, err)

	require.Equal(t, ValueObject, v.Kind)
	assert.Equal(t, ValueInt, v.Fields["a"].Items[0].Kind)
	assert.Equal(t, ValueFloat, v.Fields["a"].Items[1].Kind)
	assert.Equal(t, "x", v.Fields["b"].Str)
}

func TestDecodeJSON_Invalid(t *testing.T) {
	_, err := DecodeJSON([]byte(`{broken`))
	require.Error(t, err)
}

func TestToAny_RoundTrip(t *testing.T) {
	original := map[string]any{
		"name":  "dev",
		"count": float64(3),
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"ok": true},
		"gone":  nil,
	}

	v, err := FromAny(original)
	require.NoError(t, err)

	back := v.ToAny().(map[string]any)
	assert.Equal(t, "dev", back["name"])
	assert.Equal(t, int64(3), back["count"], "integral floats narrow to int64")
	assert.Equal(t, []any{"a", "b"}, back["tags"])
	assert.Equal(t, map[string]any{"ok": true}, back["meta"])
	assert.Nil(t, back["gone"])
}
