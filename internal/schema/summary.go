package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldSummary is the human-oriented description of one model field.
type FieldSummary struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ModelSummary is the human-oriented description of a model, rendered by
// the inspect command.
type ModelSummary struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Fields      []FieldSummary `yaml:"fields"`
}

// Summarize builds a summary of the model with display type names like
// "array<integer>" or "union[string|integer]".
func Summarize(m *Model) ModelSummary {
	out := ModelSummary{
		Name:        m.Name,
		Description: m.Description,
	}

	for _, f := range m.Fields {
		out.Fields = append(out.Fields, FieldSummary{
			Name:        f.Name,
			Type:        TypeName(f.Type),
			Required:    f.Required,
			Default:     f.Default,
			Description: f.Description,
		})
	}

	return out
}

// RenderSummary marshals a model summary to YAML, keeping the declared
// field order (yaml.v3 preserves struct order, unlike the sorted JSON
// round-trip used for schema normalization).
func RenderSummary(s ModelSummary) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("rendering summary: %w", err)
	}

	return data, nil
}

// TypeName renders a FieldType as a compact display string.
func TypeName(t *FieldType) string {
	if t == nil {
		return "any"
	}

	switch t.Kind {
	case KindArray:
		return fmt.Sprintf("array<%s>", TypeName(t.Elem))

	case KindMap:
		return fmt.Sprintf("map<string,%s>", TypeName(t.Elem))

	case KindObject:
		if t.Object != nil && t.Object.Name != "" {
			return "object(" + t.Object.Name + ")"
		}

		return "object"

	case KindUnion:
		names := make([]string, len(t.Members))
		for i, m := range t.Members {
			names[i] = TypeName(m.Type)
		}

		return "union[" + strings.Join(names, "|") + "]"

	default:
		return t.Kind.String()
	}
}
