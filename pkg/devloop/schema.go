// Package devloop provides a public Go API for the schema round-trip at
// the heart of the devloop CLI: converting record models to and from
// JSON-Schema documents and validating data against them.
//
// Basic usage:
//
//	model, err := devloop.ParseModel(schemaYAML)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := devloop.ValidateJSON(model, doc); err != nil {
//	    log.Fatal(err)
//	}
package devloop

import (
	"fmt"

	"github.com/hupe1980/devloop/internal/schema"
)

// Re-exported core types so callers never import internal packages.
type (
	// Model is a record-type definition reconstructed from a schema.
	Model = schema.Model

	// Field is a single named, typed member of a Model.
	Field = schema.Field

	// Schema is the JSON-Schema-shaped wire form of a Model.
	Schema = schema.Schema

	// ValidationError lists every violation found in a document.
	ValidationError = schema.ValidationError

	// UnsupportedTypeError reports a schema "type" value outside the
	// supported grammar.
	UnsupportedTypeError = schema.UnsupportedTypeError
)

// ParseModel loads a schema document (YAML or JSON) and reconstructs
// the record model it describes.
func ParseModel(data []byte) (*Model, error) {
	s, err := schema.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	return schema.Deserialize(s)
}

// RenderSchema serializes a model back to its normalized YAML schema
// document. ParseModel(RenderSchema(m)) preserves field names,
// requiredness, descriptions, and defaults.
func RenderSchema(m *Model) ([]byte, error) {
	return schema.Render(schema.Serialize(m))
}

// ValidateJSON checks a JSON document against a model. The returned
// error is a *ValidationError when the document is well-formed JSON but
// violates the model.
func ValidateJSON(m *Model, doc []byte) error {
	v, err := schema.DecodeJSON(doc)
	if err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}

	return schema.Validate(m, v)
}
