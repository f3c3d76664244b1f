package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Serialize
// ---------------------------------------------------------------------------

func TestSerialize_ScalarFields(t *testing.T) {
	m := &Model{
		Name: "User",
		Fields: []*Field{
			{Name: "name", Type: &FieldType{Kind: KindString}, Required: true, Description: "full name"},
			{Name: "age", Type: &FieldType{Kind: KindInteger}, Default: 18},
			{Name: "active", Type: &FieldType{Kind: KindBoolean}, Default: true},
		},
	}

	s := Serialize(m)

	assert.Equal(t, TypeObject, s.Type)
	assert.Equal(t, "User", s.Title)
	assert.Equal(t, []string{"name"}, s.Required)

	require.Contains(t, s.Properties, "name")
	assert.Equal(t, TypeString, s.Properties["name"].Type)
	assert.Equal(t, "full name", s.Properties["name"].Description)
	assert.Nil(t, s.Properties["name"].Default, "required fields carry no default")

	require.Contains(t, s.Properties, "age")
	assert.Equal(t, TypeInteger, s.Properties["age"].Type)
	assert.Equal(t, 18, s.Properties["age"].Default)

	require.Contains(t, s.Properties, "active")
	assert.Equal(t, TypeBoolean, s.Properties["active"].Type)
	assert.Equal(t, true, s.Properties["active"].Default)
}

func TestSerialize_NestedObject(t *testing.T) {
	m := &Model{
		Name: "Server",
		Fields: []*Field{
			{
				Name:     "listen",
				Required: true,
				Type: &FieldType{
					Kind: KindObject,
					Object: &Model{
						Name: "Listen",
						Fields: []*Field{
							{Name: "host", Type: &FieldType{Kind: KindString}, Required: true},
							{Name: "port", Type: &FieldType{Kind: KindInteger}, Default: 8080},
						},
					},
				},
			},
		},
	}

	s := Serialize(m)

	nested := s.Properties["listen"]
	require.NotNil(t, nested)
	assert.Equal(t, TypeObject, nested.Type)
	assert.Equal(t, "Listen", nested.Title)
	assert.Equal(t, []string{"host"}, nested.Required)
	assert.Equal(t, TypeInteger, nested.Properties["port"].Type)
}

func TestSerialize_Union(t *testing.T) {
	m := &Model{
		Name: "Event",
		Fields: []*Field{
			{
				Name: "payload",
				Type: &FieldType{
					Kind: KindUnion,
					Members: []UnionMember{
						{Type: &FieldType{Kind: KindString}, Description: "raw text"},
						{Type: &FieldType{Kind: KindInteger}, Description: "numeric code"},
					},
				},
			},
		},
	}

	s := Serialize(m)

	prop := s.Properties["payload"]
	require.Len(t, prop.AnyOf, 2)
	assert.Equal(t, "raw text", prop.AnyOf[0].Description)
	assert.Equal(t, "numeric code", prop.AnyOf[1].Description)
}

// ---------------------------------------------------------------------------
// Deserialize
// ---------------------------------------------------------------------------

func TestDeserialize_Scalars(t *testing.T) {
	tests := []struct {
		schemaType string
		wantKind   Kind
	}{
		{TypeString, KindString},
		{TypeInteger, KindInteger},
		{TypeNumber, KindNumber},
		{TypeBoolean, KindBoolean},
		{TypeNull, KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.schemaType, func(t *testing.T) {
			s := &Schema{
				Type:       TypeObject,
				Properties: map[string]*Schema{"f": {Type: tt.schemaType}},
			}

			m, err := Deserialize(s)
			require.NoError(t, err)

			f := m.FieldByName("f")
			require.NotNil(t, f)
			assert.Equal(t, tt.wantKind, f.Type.Kind)
		})
	}
}

func TestDeserialize_UnsupportedType(t *testing.T) {
	s := &Schema{
		Type:       TypeObject,
		Properties: map[string]*Schema{"amount": {Type: "currency"}},
	}

	_, err := Deserialize(s)
	require.Error(t, err)

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "currency", unsupported.Type)
	assert.Equal(t, "amount", unsupported.Path)
}

func TestDeserialize_UnsupportedTypeNested(t *testing.T) {
	s := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"outer": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"inner": {Type: "decimal"},
				},
			},
		},
	}

	_, err := Deserialize(s)

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "outer.inner", unsupported.Path)
}

func TestDeserialize_RequiredAndDefaults(t *testing.T) {
	s := &Schema{
		Type:     TypeObject,
		Required: []string{"id"},
		Properties: map[string]*Schema{
			"id":      {Type: TypeString, Default: "ignored-for-required"},
			"retries": {Type: TypeInteger, Default: float64(3)},
			"note":    {Type: TypeString},
		},
	}

	m, err := Deserialize(s)
	require.NoError(t, err)

	id := m.FieldByName("id")
	assert.True(t, id.Required)
	assert.Nil(t, id.Default, "required fields become mandatory with no default")

	retries := m.FieldByName("retries")
	assert.False(t, retries.Required)
	assert.Equal(t, float64(3), retries.Default)

	note := m.FieldByName("note")
	assert.False(t, note.Required)
	assert.Nil(t, note.Default, "optional fields without a default stay nullable")
}

func TestDeserialize_ArrayOfInteger(t *testing.T) {
	s := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"counts": {Type: TypeArray, Items: &Schema{Type: TypeInteger}},
		},
	}

	m, err := Deserialize(s)
	require.NoError(t, err)

	f := m.FieldByName("counts")
	require.Equal(t, KindArray, f.Type.Kind)
	assert.Equal(t, KindInteger, f.Type.Elem.Kind)
}

func TestDeserialize_ArrayWithoutItems(t *testing.T) {
	s := &Schema{
		Type:       TypeObject,
		Properties: map[string]*Schema{"stuff": {Type: TypeArray}},
	}

	m, err := Deserialize(s)
	require.NoError(t, err)

	f := m.FieldByName("stuff")
	require.Equal(t, KindArray, f.Type.Kind)
	assert.Equal(t, KindAny, f.Type.Elem.Kind)
}

func TestDeserialize_ObjectVariants(t *testing.T) {
	s := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"nested": {
				Type:       TypeObject,
				Title:      "Nested",
				Properties: map[string]*Schema{"x": {Type: TypeString}},
			},
			"labels": {
				Type:                 TypeObject,
				AdditionalProperties: &Schema{Type: TypeString},
			},
			"extras": {Type: TypeObject},
		},
	}

	m, err := Deserialize(s)
	require.NoError(t, err)

	nested := m.FieldByName("nested")
	require.Equal(t, KindObject, nested.Type.Kind)
	assert.Equal(t, "Nested", nested.Type.Object.Name)
	assert.NotNil(t, nested.Type.Object.FieldByName("x"))

	labels := m.FieldByName("labels")
	require.Equal(t, KindMap, labels.Type.Kind)
	assert.Equal(t, KindString, labels.Type.Elem.Kind)

	extras := m.FieldByName("extras")
	require.Equal(t, KindMap, extras.Type.Kind)
	assert.Equal(t, KindAny, extras.Type.Elem.Kind)
}

func TestDeserialize_Union(t *testing.T) {
	for _, marker := range []string{"anyOf", "oneOf"} {
		t.Run(marker, func(t *testing.T) {
			variants := []*Schema{
				{Type: TypeString, Description: "as text"},
				{Type: TypeInteger, Description: "as code"},
			}

			prop := &Schema{}
			if marker == "anyOf" {
				prop.AnyOf = variants
			} else {
				prop.OneOf = variants
			}

			s := &Schema{Type: TypeObject, Properties: map[string]*Schema{"v": prop}}

			m, err := Deserialize(s)
			require.NoError(t, err)

			f := m.FieldByName("v")
			require.Equal(t, KindUnion, f.Type.Kind)
			require.Len(t, f.Type.Members, 2)

			// Member metadata stays per-member; siblings never overwrite
			// each other.
			assert.Equal(t, "as text", f.Type.Members[0].Description)
			assert.Equal(t, "as code", f.Type.Members[1].Description)
		})
	}
}

func TestDeserialize_NilSchema(t *testing.T) {
	_, err := Deserialize(nil)
	require.Error(t, err)
}

func TestDeserialize_NonObjectSchema(t *testing.T) {
	_, err := Deserialize(&Schema{Type: TypeString})
	assert.ErrorContains(t, err, "must have type object")
}

// ---------------------------------------------------------------------------
// Round-trip
// ---------------------------------------------------------------------------

func TestRoundTrip_PreservesModel(t *testing.T) {
	original := &Model{
		Name:        "Job",
		Description: "a background job",
		Fields: []*Field{
			{Name: "attempts", Type: &FieldType{Kind: KindInteger}, Default: 3, Description: "retry budget"},
			{Name: "id", Type: &FieldType{Kind: KindString}, Required: true, Description: "job id"},
			{Name: "priority", Type: &FieldType{Kind: KindNumber}, Default: 0.5},
			{
				Name:     "tags",
				Type:     &FieldType{Kind: KindArray, Elem: &FieldType{Kind: KindString}},
				Required: true,
			},
			{Name: "urgent", Type: &FieldType{Kind: KindBoolean}, Default: false},
		},
	}

	restored, err := Deserialize(Serialize(original))
	require.NoError(t, err)

	assert.Equal(t, original.Name, restored.Name)
	assert.Equal(t, original.Description, restored.Description)
	require.Len(t, restored.Fields, len(original.Fields))

	for _, want := range original.Fields {
		got := restored.FieldByName(want.Name)
		require.NotNil(t, got, "field %q lost in round-trip", want.Name)

		assert.Equal(t, want.Required, got.Required, "field %q requiredness", want.Name)
		assert.Equal(t, want.Description, got.Description, "field %q description", want.Name)
		assert.Equal(t, want.Default, got.Default, "field %q default", want.Name)
		assert.Equal(t, want.Type.Kind, got.Type.Kind, "field %q kind", want.Name)
	}
}

func TestRoundTrip_UnionBecomesGenericUnion(t *testing.T) {
	original := &Model{
		Name: "Flexible",
		Fields: []*Field{
			{
				Name: "value",
				Type: &FieldType{
					Kind: KindUnion,
					Members: []UnionMember{
						{Type: &FieldType{Kind: KindString}},
						{Type: &FieldType{Kind: KindNull}},
					},
				},
			},
		},
	}

	restored, err := Deserialize(Serialize(original))
	require.NoError(t, err)

	f := restored.FieldByName("value")
	require.Equal(t, KindUnion, f.Type.Kind)
	require.Len(t, f.Type.Members, 2)
	assert.Equal(t, KindString, f.Type.Members[0].Type.Kind)
	assert.Equal(t, KindNull, f.Type.Members[1].Type.Kind)
}

func TestRoundTrip_UnionMemberDefaults(t *testing.T) {
	original := &Model{
		Name: "Retry",
		Fields: []*Field{
			{
				Name: "backoff",
				Type: &FieldType{
					Kind: KindUnion,
					Members: []UnionMember{
						{Type: &FieldType{Kind: KindString}, Description: "named policy", Default: "exponential"},
						{Type: &FieldType{Kind: KindNumber}, Description: "fixed seconds"},
					},
				},
			},
		},
	}

	restored, err := Deserialize(Serialize(original))
	require.NoError(t, err)

	f := restored.FieldByName("backoff")
	require.Equal(t, KindUnion, f.Type.Kind)
	require.Len(t, f.Type.Members, 2)

	// Member defaults survive alongside descriptions; the member
	// without one stays empty.
	assert.Equal(t, "exponential", f.Type.Members[0].Default)
	assert.Nil(t, f.Type.Members[1].Default)
}
