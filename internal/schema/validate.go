package schema

import (
	"fmt"
	"strings"
)

// Issue is a single validation finding at a document path.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}

	return i.Path + ": " + i.Message
}

// ValidationError aggregates all issues found while validating a document
// against a model.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "validation failed: " + e.Issues[0].String()
	}

	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}

	return fmt.Sprintf("validation failed with %d issues: %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Validate checks a decoded document against a record model. The document
// must be an object; required fields must be present, optional fields may
// be absent or null. Returns a *ValidationError listing every violation.
func Validate(m *Model, doc Value) error {
	v := &validator{}
	v.validateModel(m, doc, "")

	if len(v.issues) > 0 {
		return &ValidationError{Issues: v.issues}
	}

	return nil
}

type validator struct {
	issues []Issue
}

func (v *validator) addIssue(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// validateModel checks an object value against a model's fields.
func (v *validator) validateModel(m *Model, doc Value, path string) {
	if doc.Kind != ValueObject {
		v.addIssue(path, "expected object, got %s", doc.Kind)
		return
	}

	for _, f := range m.Fields {
		fieldPath := joinPath(path, f.Name)

		fv, present := doc.Fields[f.Name]
		if !present {
			if f.Required {
				v.addIssue(fieldPath, "required field is missing")
			}

			continue
		}

		// Optional fields are nullable.
		if fv.Kind == ValueNull && !f.Required {
			continue
		}

		v.validateType(f.Type, fv, fieldPath)
	}
}

// validateType checks a single value against a field type.
func (v *validator) validateType(t *FieldType, val Value, path string) {
	if t == nil {
		return
	}

	switch t.Kind {
	case KindAny:
		// anything goes

	case KindString:
		v.expectKind(val, ValueString, path)

	case KindBoolean:
		v.expectKind(val, ValueBool, path)

	case KindInteger:
		v.expectKind(val, ValueInt, path)

	case KindNumber:
		// Integers are acceptable numbers.
		if val.Kind != ValueFloat && val.Kind != ValueInt {
			v.addIssue(path, "expected number, got %s", val.Kind)
		}

	case KindNull:
		v.expectKind(val, ValueNull, path)

	case KindArray:
		if val.Kind != ValueArray {
			v.addIssue(path, "expected array, got %s", val.Kind)
			return
		}

		for i, item := range val.Items {
			v.validateType(t.Elem, item, fmt.Sprintf("%s[%d]", path, i))
		}

	case KindObject:
		v.validateModel(t.Object, val, path)

	case KindMap:
		if val.Kind != ValueObject {
			v.addIssue(path, "expected object, got %s", val.Kind)
			return
		}

		for k, item := range val.Fields {
			v.validateType(t.Elem, item, joinPath(path, k))
		}

	case KindUnion:
		v.validateUnion(t, val, path)

	default:
		v.addIssue(path, "invalid field type")
	}
}

// validateUnion accepts the value when any member type validates it.
func (v *validator) validateUnion(t *FieldType, val Value, path string) {
	for _, member := range t.Members {
		probe := &validator{}
		probe.validateType(member.Type, val, path)

		if len(probe.issues) == 0 {
			return
		}
	}

	v.addIssue(path, "value of kind %s matches no union member", val.Kind)
}

func (v *validator) expectKind(val Value, want ValueKind, path string) {
	if val.Kind != want {
		v.addIssue(path, "expected %s, got %s", want, val.Kind)
	}
}
