package schema

// Serialize converts a record model into its wire schema representation.
// The result round-trips through Deserialize preserving field names,
// requiredness, descriptions, and defaults.
func Serialize(m *Model) *Schema {
	s := &Schema{
		Type:        TypeObject,
		Title:       m.Name,
		Description: m.Description,
		Properties:  make(map[string]*Schema, len(m.Fields)),
		Required:    m.RequiredNames(),
	}

	for _, f := range m.Fields {
		prop := serializeType(f.Type)
		prop.Description = f.Description

		if !f.Required && f.Default != nil {
			prop.Default = f.Default
		}

		s.Properties[f.Name] = prop
	}

	return s
}

// serializeType renders a FieldType as a schema node.
func serializeType(t *FieldType) *Schema {
	if t == nil {
		return &Schema{}
	}

	switch t.Kind {
	case KindString, KindInteger, KindNumber, KindBoolean, KindNull:
		return &Schema{Type: t.Kind.String()}

	case KindArray:
		return &Schema{Type: TypeArray, Items: serializeType(t.Elem)}

	case KindObject:
		return Serialize(t.Object)

	case KindMap:
		return &Schema{Type: TypeObject, AdditionalProperties: serializeType(t.Elem)}

	case KindUnion:
		variants := make([]*Schema, 0, len(t.Members))

		for _, member := range t.Members {
			vs := serializeType(member.Type)
			vs.Description = member.Description
			vs.Default = member.Default
			variants = append(variants, vs)
		}

		return &Schema{AnyOf: variants}

	default: // KindAny
		return &Schema{}
	}
}
