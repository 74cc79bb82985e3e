package schema

import (
	"fmt"
	"strings"
)

// Template is an uninstantiated struct definition. It may reference its own
// serial name, other templates (registered or not yet registered), and its
// declared generic parameters inside field type references. Resolution into a
// concrete type happens entirely in the registry.
type Template struct {
	// SerialName identifies the template. Unique within a registry.
	SerialName string `yaml:"type" json:"type"`

	// Fields in positional order.
	Fields []Field `yaml:"fields" json:"fields"`

	// TypeParams are the declared generic parameter names, e.g. ["T"].
	TypeParams []string `yaml:"params,omitempty" json:"params,omitempty"`

	// Annotations carries template-level metadata.
	Annotations []Annotation `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// FieldByName returns the field with the given name.
func (t Template) FieldByName(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Equal reports whether two templates have identical content.
func (t Template) Equal(other Template) bool {
	if t.SerialName != other.SerialName ||
		len(t.Fields) != len(other.Fields) ||
		len(t.TypeParams) != len(other.TypeParams) ||
		len(t.Annotations) != len(other.Annotations) {
		return false
	}
	for i, p := range t.TypeParams {
		if p != other.TypeParams[i] {
			return false
		}
	}
	for i, f := range t.Fields {
		o := other.Fields[i]
		if f.Index != o.Index || f.Name != o.Name || f.Optional != o.Optional ||
			!f.Type.Equal(o.Type) || len(f.Annotations) != len(o.Annotations) {
			return false
		}
		for j, a := range f.Annotations {
			if a != o.Annotations[j] {
				return false
			}
		}
	}
	for i, a := range t.Annotations {
		if a != other.Annotations[i] {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of a template: a non-empty serial
// name, unique field names, and unique strictly increasing field indexes.
// Name resolution is deliberately not checked here; templates may reference
// types that are registered later.
func Validate(t Template) error {
	if t.SerialName == "" {
		return fmt.Errorf("template has no serial name")
	}
	if IsBuiltin(t.SerialName) {
		return fmt.Errorf("template %q: serial name shadows a built-in type", t.SerialName)
	}
	// Type-expression syntax in a serial name would collide with the string
	// keys generic instantiations are cached under (e.g. a template literally
	// named "Box<Long>" versus Box resolved with Long).
	if strings.ContainsAny(t.SerialName, "<>,?") {
		return fmt.Errorf("template %q: serial name must not contain '<', '>', ',' or '?'", t.SerialName)
	}

	names := make(map[string]bool, len(t.Fields))
	lastIndex := -1
	for _, f := range t.Fields {
		if f.Name == "" {
			return fmt.Errorf("template %q: field at index %d has no name", t.SerialName, f.Index)
		}
		if names[f.Name] {
			return fmt.Errorf("template %q: duplicate field %q", t.SerialName, f.Name)
		}
		names[f.Name] = true

		if f.Index <= lastIndex {
			return fmt.Errorf("template %q: field %q index %d is not strictly increasing", t.SerialName, f.Name, f.Index)
		}
		lastIndex = f.Index

		if err := validateRef(t, f.Type); err != nil {
			return fmt.Errorf("template %q: field %q: %w", t.SerialName, f.Name, err)
		}
	}

	params := make(map[string]bool, len(t.TypeParams))
	for _, p := range t.TypeParams {
		if p == "" {
			return fmt.Errorf("template %q: empty type parameter name", t.SerialName)
		}
		if params[p] {
			return fmt.Errorf("template %q: duplicate type parameter %q", t.SerialName, p)
		}
		params[p] = true
	}

	return nil
}

// validateRef checks the parts of a type reference that do not require the
// registry: built-in arity and empty names.
func validateRef(t Template, ref TypeRef) error {
	if ref.Name == "" {
		return fmt.Errorf("empty type name")
	}
	if IsPrimitive(ref.Name) && len(ref.Args) > 0 {
		return fmt.Errorf("primitive %s takes no type arguments", ref.Name)
	}
	if ref.Name == TypeList && len(ref.Args) != 1 {
		return fmt.Errorf("List takes exactly one type argument, got %d", len(ref.Args))
	}
	if ref.Name == TypeMap && len(ref.Args) != 2 {
		return fmt.Errorf("Map takes exactly two type arguments, got %d", len(ref.Args))
	}
	for _, a := range ref.Args {
		if err := validateRef(t, a); err != nil {
			return err
		}
	}
	return nil
}
