package schema

import "fmt"

// Deserialize reconstructs a record model from its wire schema.
// The schema must describe an object with properties; required fields
// become mandatory with no default, optional fields keep the declared
// default (or nil).
func Deserialize(s *Schema) (*Model, error) {
	if s == nil {
		return nil, fmt.Errorf("nil schema")
	}

	if s.Type != TypeObject && s.Type != "" {
		return nil, fmt.Errorf("model schema must have type object, got %q", s.Type)
	}

	return deserializeModel(s, "")
}

// deserializeModel builds a Model from an object schema node.
func deserializeModel(s *Schema, path string) (*Model, error) {
	m := &Model{
		Name:        s.Title,
		Description: s.Description,
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	for name, prop := range s.Properties {
		fieldPath := joinPath(path, name)

		typ, err := resolveType(prop, fieldPath)
		if err != nil {
			return nil, err
		}

		field := &Field{
			Name:        name,
			Type:        typ,
			Description: prop.Description,
			Required:    required[name],
		}

		// Required fields have no default; optional fields take the
		// declared default or stay nil (nullable).
		if !field.Required {
			field.Default = prop.Default
		}

		m.Fields = append(m.Fields, field)
	}

	m.sortFields()

	return m, nil
}

// resolveType maps a schema node onto a FieldType, recursing into arrays,
// objects, and unions.
func resolveType(s *Schema, path string) (*FieldType, error) {
	// Union markers take precedence over any declared type.
	if s.IsUnion() {
		return resolveUnion(s, path)
	}

	switch s.Type {
	case TypeString:
		return &FieldType{Kind: KindString}, nil
	case TypeInteger:
		return &FieldType{Kind: KindInteger}, nil
	case TypeNumber:
		return &FieldType{Kind: KindNumber}, nil
	case TypeBoolean:
		return &FieldType{Kind: KindBoolean}, nil
	case TypeNull:
		return &FieldType{Kind: KindNull}, nil

	case TypeArray:
		if s.Items == nil {
			return &FieldType{Kind: KindArray, Elem: &FieldType{Kind: KindAny}}, nil
		}

		elem, err := resolveType(s.Items, path+"[]")
		if err != nil {
			return nil, err
		}

		return &FieldType{Kind: KindArray, Elem: elem}, nil

	case TypeObject:
		return resolveObject(s, path)

	case "":
		return &FieldType{Kind: KindAny}, nil

	default:
		return nil, &UnsupportedTypeError{Type: s.Type, Path: path}
	}
}

// resolveObject distinguishes nested record types from open maps:
// properties → nested model, additionalProperties schema → map of the
// value type, neither → map of unconstrained values.
func resolveObject(s *Schema, path string) (*FieldType, error) {
	if len(s.Properties) > 0 {
		nested, err := deserializeModel(s, path)
		if err != nil {
			return nil, err
		}

		return &FieldType{Kind: KindObject, Object: nested}, nil
	}

	if s.AdditionalProperties != nil {
		elem, err := resolveType(s.AdditionalProperties, path+".*")
		if err != nil {
			return nil, err
		}

		return &FieldType{Kind: KindMap, Elem: elem}, nil
	}

	return &FieldType{Kind: KindMap, Elem: &FieldType{Kind: KindAny}}, nil
}

// resolveUnion reconstructs anyOf/oneOf alternatives as a tagged union.
// Each member keeps its own description; sibling metadata is never merged.
func resolveUnion(s *Schema, path string) (*FieldType, error) {
	variants := s.Variants()
	members := make([]UnionMember, 0, len(variants))

	for i, vs := range variants {
		memberPath := fmt.Sprintf("%s|%d", path, i)

		typ, err := resolveType(vs, memberPath)
		if err != nil {
			return nil, err
		}

		members = append(members, UnionMember{
			Type:        typ,
			Description: vs.Description,
			Default:     vs.Default,
		})
	}

	return &FieldType{Kind: KindUnion, Members: members}, nil
}

// joinPath joins a parent path and a field name with a dot.
func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}
