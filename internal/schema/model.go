package schema

import "sort"

// Kind enumerates the type kinds a model field can resolve to.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindNull
	KindArray
	KindObject
	KindMap
	KindUnion
	KindAny
)

// kindNames maps kinds to their display names.
var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindString:  "string",
	KindInteger: "integer",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindNull:    "null",
	KindArray:   "array",
	KindObject:  "object",
	KindMap:     "map",
	KindUnion:   "union",
	KindAny:     "any",
}

// String returns the display name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "invalid"
}

// FieldType describes the resolved type of a model field.
type FieldType struct {
	// Kind discriminates which of the remaining members apply.
	Kind Kind

	// Elem is the element type for KindArray and the value type for KindMap.
	Elem *FieldType

	// Object is the nested record definition for KindObject.
	Object *Model

	// Members holds the alternatives for KindUnion.
	Members []UnionMember
}

// UnionMember is one alternative of a tagged union, carrying its own
// metadata. Member metadata is kept per-member and never merged across
// siblings.
type UnionMember struct {
	Type        *FieldType
	Description string
	Default     any
}

// Field is a single named field of a record model.
type Field struct {
	// Name is the field name as it appears in the schema properties.
	Name string

	// Type is the resolved field type.
	Type *FieldType

	// Description is the human-readable field documentation.
	Description string

	// Default is the declared default value. Required fields have none.
	Default any

	// Required marks the field as mandatory. Optional fields are nullable.
	Required bool
}

// Model is a named record-type definition: an ordered set of fields plus
// the subset that is required.
type Model struct {
	// Name is the record type name (schema title).
	Name string

	// Description documents the record type.
	Description string

	// Fields are sorted by name for deterministic serialization.
	Fields []*Field
}

// FieldByName returns the field with the given name, or nil.
func (m *Model) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// RequiredNames returns the sorted names of all required fields.
func (m *Model) RequiredNames() []string {
	var names []string

	for _, f := range m.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}

	sort.Strings(names)

	return names
}

// sortFields orders the model's fields by name in place.
func (m *Model) sortFields() {
	sort.Slice(m.Fields, func(i, j int) bool {
		return m.Fields[i].Name < m.Fields[j].Name
	})
}
