package schema

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

// docSeparator matches YAML document separators: a line containing only "---"
// optionally followed by whitespace.
var docSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// Load parses a schema from YAML or JSON bytes. YAML is converted through
// JSON so the schema struct tags apply uniformly.
func Load(data []byte) (*Schema, error) {
	var s Schema
	if err := sigsyaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	return &s, nil
}

// LoadFile reads and parses a single-document schema file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %q: %w", path, err)
	}

	docs := splitDocuments(data)
	switch len(docs) {
	case 0:
		return nil, fmt.Errorf("schema file %q is empty", path)
	case 1:
		return Load(docs[0])
	default:
		return nil, fmt.Errorf("schema file %q contains %d documents, expected 1", path, len(docs))
	}
}

// LoadFileAll reads a schema file that may contain multiple YAML documents,
// each describing one model schema.
func LoadFileAll(path string) ([]*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %q: %w", path, err)
	}

	docs := splitDocuments(data)
	if len(docs) == 0 {
		return nil, fmt.Errorf("schema file %q is empty", path)
	}

	schemas := make([]*Schema, 0, len(docs))

	for i, doc := range docs {
		s, err := Load(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		schemas = append(schemas, s)
	}

	return schemas, nil
}

// Render serializes a schema to normalized YAML. Keys are emitted in
// sorted order (via the JSON round-trip), making the output stable for
// diffing.
func Render(s *Schema) ([]byte, error) {
	data, err := sigsyaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("rendering schema: %w", err)
	}

	return data, nil
}

// splitDocuments splits multi-document YAML into individual documents,
// filtering out empty ones.
func splitDocuments(data []byte) [][]byte {
	parts := docSeparator.Split(string(data), -1)

	var docs [][]byte

	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			docs = append(docs, []byte(part))
		}
	}

	return docs
}
