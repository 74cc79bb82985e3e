package registry

// Descriptor is the minimal structural contract a structured codec needs to
// drive encoding and decoding of runtime-shaped values. Wire formats address
// fields by name while values are positional, so the mapping is bidirectional.
type Descriptor interface {
	// NumFields returns the number of fields.
	NumFields() int

	// FieldName returns the wire name of the field at the given position.
	FieldName(i int) string

	// FieldIndex returns the position of the field with the given wire name.
	FieldIndex(name string) (int, bool)

	// FieldType returns the resolved type of the field at the given position.
	FieldType(i int) Type
}

// ConcreteField is one resolved struct member: wire name, resolved type, and
// whether the field may be absent on the wire.
type ConcreteField struct {
	Name     string
	Type     Type
	Optional bool
}

// Nullable reports whether the field admits null values.
func (f ConcreteField) Nullable() bool {
	return f.Type.Nullable()
}

// ConcreteType is a fully resolved, non-generic struct type. Instances are
// created and owned exclusively by a Registry; for a given registry, resolving
// the same (serial name, type arguments) key always yields the same pointer,
// including through recursive type graphs. A ConcreteType is immutable once
// its owning registry publishes it.
type ConcreteType struct {
	serialName string
	args       []Type
	fields     []ConcreteField

	// indexByName caches the name-to-position mapping, built at publish time.
	indexByName map[string]int
}

// SerialName returns the template name this type was resolved from.
func (c *ConcreteType) SerialName() string { return c.serialName }

// Args returns the resolved type arguments this instantiation was built with.
func (c *ConcreteType) Args() []Type {
	out := make([]Type, len(c.args))
	copy(out, c.args)
	return out
}

// Fields returns the resolved fields in positional order.
func (c *ConcreteType) Fields() []ConcreteField {
	out := make([]ConcreteField, len(c.fields))
	copy(out, c.fields)
	return out
}

// NumFields implements Descriptor.
func (c *ConcreteType) NumFields() int { return len(c.fields) }

// FieldName implements Descriptor.
func (c *ConcreteType) FieldName(i int) string { return c.fields[i].Name }

// FieldIndex implements Descriptor.
func (c *ConcreteType) FieldIndex(name string) (int, bool) {
	i, ok := c.indexByName[name]
	return i, ok
}

// FieldType implements Descriptor.
func (c *ConcreteType) FieldType(i int) Type { return c.fields[i].Type }

// Field returns the resolved field at the given position.
func (c *ConcreteType) Field(i int) ConcreteField { return c.fields[i] }

// String renders the canonical instantiation key, e.g. "Node" or "Wrapper<Int>".
func (c *ConcreteType) String() string {
	return typeKey(c.serialName, c.args)
}

// freeze finalizes the type after field population.
func (c *ConcreteType) freeze() {
	c.indexByName = make(map[string]int, len(c.fields))
	for i, f := range c.fields {
		c.indexByName[f.Name] = i
	}
}
