// Package schema implements the round-trip between record models and their
// JSON-Schema-shaped wire representation, plus runtime validation of
// decoded documents against a model.
package schema

import "fmt"

// Schema is the wire representation of a field or model definition.
// It mirrors the subset of JSON Schema understood by the tool server:
// type, properties, required, items, additionalProperties, anyOf/oneOf,
// description, default, and title.
type Schema struct {
	// Core
	Type        string `json:"type,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
}

// Scalar type names recognized in the "type" field.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeNull    = "null"
	TypeArray   = "array"
	TypeObject  = "object"
)

// IsUnion reports whether the schema declares anyOf or oneOf alternatives.
func (s *Schema) IsUnion() bool {
	return len(s.AnyOf) > 0 || len(s.OneOf) > 0
}

// Variants returns the union member schemas, preferring anyOf over oneOf.
func (s *Schema) Variants() []*Schema {
	if len(s.AnyOf) > 0 {
		return s.AnyOf
	}

	return s.OneOf
}

// UnsupportedTypeError is returned when a schema declares a type outside
// the recognized set.
type UnsupportedTypeError struct {
	// Type is the unrecognized type name (e.g. "currency").
	Type string

	// Path is the dot-separated field path where the type was found.
	Path string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unsupported type %q", e.Type)
	}

	return fmt.Sprintf("unsupported type %q at %s", e.Type, e.Path)
}
