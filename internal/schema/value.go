package schema

import (
	"encoding/json"
	"fmt"
)

// ValueKind discriminates the runtime variant held by a Value.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
	ValueArray
	ValueObject
)

// valueKindNames maps value kinds to their display names.
var valueKindNames = map[ValueKind]string{
	ValueNull:   "null",
	ValueBool:   "boolean",
	ValueInt:    "integer",
	ValueFloat:  "number",
	ValueString: "string",
	ValueArray:  "array",
	ValueObject: "object",
}

// String returns the display name of the value kind.
func (k ValueKind) String() string {
	if name, ok := valueKindNames[k]; ok {
		return name
	}

	return "invalid"
}

// Value is a tagged-variant runtime representation of a decoded document.
// Instead of constructing record types dynamically, documents are decoded
// into Values and validated against a Model.
type Value struct {
	Kind   ValueKind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Items  []Value
	Fields map[string]Value
}

// FromAny converts a decoded JSON/YAML value (as produced by
// encoding/json into any) to a Value. JSON numbers arrive as float64;
// integral floats are narrowed to ValueInt so integer schemas accept them.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Value{Kind: ValueNull}, nil

	case bool:
		return Value{Kind: ValueBool, Bool: val}, nil

	case int:
		return Value{Kind: ValueInt, Int: int64(val)}, nil

	case int64:
		return Value{Kind: ValueInt, Int: val}, nil

	case float64:
		if val == float64(int64(val)) {
			return Value{Kind: ValueInt, Int: int64(val)}, nil
		}

		return Value{Kind: ValueFloat, Float: val}, nil

	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Value{Kind: ValueInt, Int: i}, nil
		}

		f, err := val.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}

		return Value{Kind: ValueFloat, Float: f}, nil

	case string:
		return Value{Kind: ValueString, Str: val}, nil

	case []any:
		items := make([]Value, 0, len(val))

		for i, item := range val {
			iv, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}

			items = append(items, iv)
		}

		return Value{Kind: ValueArray, Items: items}, nil

	case map[string]any:
		fields := make(map[string]Value, len(val))

		for k, item := range val {
			fv, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}

			fields[k] = fv
		}

		return Value{Kind: ValueObject, Fields: fields}, nil

	default:
		return Value{}, fmt.Errorf("unrepresentable value of type %T", v)
	}
}

// DecodeJSON parses a JSON document into a Value.
func DecodeJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("decoding document: %w", err)
	}

	return FromAny(raw)
}

// ToAny converts a Value back to the generic representation used by
// encoding/json.
func (v Value) ToAny() any {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueInt:
		return v.Int
	case ValueFloat:
		return v.Float
	case ValueString:
		return v.Str
	case ValueArray:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = item.ToAny()
		}

		return items
	case ValueObject:
		fields := make(map[string]any, len(v.Fields))
		for k, f := range v.Fields {
			fields[k] = f.ToAny()
		}

		return fields
	default:
		return nil
	}
}
