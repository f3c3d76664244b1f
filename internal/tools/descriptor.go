package tools

import (
	"fmt"

	"github.com/hupe1980/devloop/internal/schema"
)

// Descriptor is the remote-service metadata describing an invocable tool.
type Descriptor struct {
	// Name is the tool's registered name.
	Name string `json:"name"`

	// Description documents what the tool does.
	Description string `json:"description"`

	// Parameters is the optional schema of the tool's argument record.
	Parameters *schema.Schema `json:"parameters,omitempty"`
}

// ParameterModel reconstructs the argument record model from the
// descriptor's parameter schema. Returns nil when the descriptor carries
// no parameter schema.
func (d *Descriptor) ParameterModel() (*schema.Model, error) {
	if d.Parameters == nil {
		return nil, nil
	}

	m, err := schema.Deserialize(d.Parameters)
	if err != nil {
		return nil, fmt.Errorf("tool %q parameter schema: %w", d.Name, err)
	}

	return m, nil
}

// ValidateArgs checks invocation arguments against the tool's parameter
// schema. Tools without a schema accept anything.
func (d *Descriptor) ValidateArgs(args map[string]any) error {
	m, err := d.ParameterModel()
	if err != nil {
		return err
	}

	if m == nil {
		return nil
	}

	doc, err := schema.FromAny(args)
	if err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}

	return schema.Validate(m, doc)
}
