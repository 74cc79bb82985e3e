package schema

// Field describes one member of a struct template.
type Field struct {
	// Index is the positional slot of the field's value in a struct value.
	// Indexes within one template are unique and strictly increasing.
	Index int `yaml:"index" json:"index"`

	// Name is the field name, used as the wire key by structured codecs.
	Name string `yaml:"name" json:"name"`

	// Type references the field's type. The name may be a built-in, a
	// generic parameter of the enclosing template, or another template.
	Type TypeRef `yaml:"type" json:"type"`

	// Optional indicates the field may be absent on the wire. Absent
	// optional fields decode as null.
	Optional bool `yaml:"optional,omitempty" json:"optional,omitempty"`

	// Annotations carries schema-level metadata (indexing hints,
	// documentation, constraint tags). The core attaches no meaning to them.
	Annotations []Annotation `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// Annotation is a named piece of schema metadata.
type Annotation struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Built-in primitive type names recognized by the registry.
const (
	TypeString    = "String"
	TypeBool      = "Bool"
	TypeInt       = "Int"
	TypeLong      = "Long"
	TypeFloat     = "Float"
	TypeDouble    = "Double"
	TypeBytes     = "Bytes"
	TypeUuid      = "Uuid"
	TypeTimestamp = "Timestamp"
)

// Built-in collection type names.
const (
	TypeList = "List"
	TypeMap  = "Map"
)

// IsPrimitive reports whether name is a built-in primitive type name.
func IsPrimitive(name string) bool {
	switch name {
	case TypeString, TypeBool, TypeInt, TypeLong, TypeFloat,
		TypeDouble, TypeBytes, TypeUuid, TypeTimestamp:
		return true
	}
	return false
}

// IsCollection reports whether name is a built-in collection type name.
func IsCollection(name string) bool {
	return name == TypeList || name == TypeMap
}

// IsBuiltin reports whether name is any built-in type name.
func IsBuiltin(name string) bool {
	return IsPrimitive(name) || IsCollection(name)
}
