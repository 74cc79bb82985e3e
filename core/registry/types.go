package registry

import (
	"strings"

	"github.com/artpar/typekit/core/schema"
)

// Kind identifies the category of a resolved type.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindUuid
	KindTimestamp
	KindList
	KindMap
	KindStruct
)

// String returns the type-expression name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return schema.TypeString
	case KindBool:
		return schema.TypeBool
	case KindInt:
		return schema.TypeInt
	case KindLong:
		return schema.TypeLong
	case KindFloat:
		return schema.TypeFloat
	case KindDouble:
		return schema.TypeDouble
	case KindBytes:
		return schema.TypeBytes
	case KindUuid:
		return schema.TypeUuid
	case KindTimestamp:
		return schema.TypeTimestamp
	case KindList:
		return schema.TypeList
	case KindMap:
		return schema.TypeMap
	case KindStruct:
		return "Struct"
	default:
		return "Unknown"
	}
}

// IsPrimitive reports whether the kind is a scalar primitive.
func (k Kind) IsPrimitive() bool {
	return k >= KindString && k <= KindTimestamp
}

// Type is a fully resolved type: a primitive, a collection, or a reference to
// a concrete struct type. The set of variants is closed; codecs switch
// exhaustively on Kind.
type Type interface {
	// Kind returns the variant tag.
	Kind() Kind

	// Nullable reports whether the position using this type admits null.
	Nullable() bool

	// String renders the canonical type expression, e.g. "List<Node?>".
	// Canonical form is used as the cache key component for type arguments.
	String() string

	// withNullable returns a copy with the nullability flag set.
	// Unexported so only this package can implement Type.
	withNullable(nullable bool) Type
}

// PrimitiveType is a scalar built-in type.
type PrimitiveType struct {
	kind     Kind
	nullable bool
}

// Primitive returns the resolved type for a primitive kind.
func Primitive(kind Kind) Type {
	return PrimitiveType{kind: kind}
}

func (p PrimitiveType) Kind() Kind     { return p.kind }
func (p PrimitiveType) Nullable() bool { return p.nullable }

func (p PrimitiveType) String() string {
	return typeExpr(p.kind.String(), nil, p.nullable)
}

func (p PrimitiveType) withNullable(nullable bool) Type {
	p.nullable = nullable
	return p
}

// ListType is an ordered collection of a single element type.
type ListType struct {
	elem     Type
	nullable bool
}

// ListOf returns the resolved type for a list with the given element type.
func ListOf(elem Type) Type {
	return ListType{elem: elem}
}

func (l ListType) Kind() Kind     { return KindList }
func (l ListType) Nullable() bool { return l.nullable }

// Elem returns the element type.
func (l ListType) Elem() Type { return l.elem }

func (l ListType) String() string {
	return typeExpr(schema.TypeList, []Type{l.elem}, l.nullable)
}

func (l ListType) withNullable(nullable bool) Type {
	l.nullable = nullable
	return l
}

// MapType is a mapping from a primitive key type to an element type.
// Keys are carried in their canonical string form in memory and on the wire.
type MapType struct {
	key      Type
	elem     Type
	nullable bool
}

// MapOf returns the resolved type for a map with the given key and element types.
func MapOf(key, elem Type) Type {
	return MapType{key: key, elem: elem}
}

func (m MapType) Kind() Kind     { return KindMap }
func (m MapType) Nullable() bool { return m.nullable }

// Key returns the key type.
func (m MapType) Key() Type { return m.key }

// Elem returns the element type.
func (m MapType) Elem() Type { return m.elem }

func (m MapType) String() string {
	return typeExpr(schema.TypeMap, []Type{m.key, m.elem}, m.nullable)
}

func (m MapType) withNullable(nullable bool) Type {
	m.nullable = nullable
	return m
}

// StructType references a concrete struct type. The referenced *ConcreteType
// carries the identity; StructType itself only adds position nullability, so
// a type can reference itself without owning itself.
type StructType struct {
	ct       *ConcreteType
	nullable bool
}

// StructOf returns the resolved type referencing a concrete type.
func StructOf(ct *ConcreteType) Type {
	return StructType{ct: ct}
}

func (s StructType) Kind() Kind     { return KindStruct }
func (s StructType) Nullable() bool { return s.nullable }

// Of returns the referenced concrete type.
func (s StructType) Of() *ConcreteType { return s.ct }

func (s StructType) String() string {
	if s.nullable {
		return s.ct.String() + "?"
	}
	return s.ct.String()
}

func (s StructType) withNullable(nullable bool) Type {
	s.nullable = nullable
	return s
}

// NullableOf returns a copy of t marked nullable.
func NullableOf(t Type) Type {
	return t.withNullable(true)
}

// TypesEqual reports whether two resolved types are interchangeable: same
// variant, same nullability, and for structs the same concrete identity.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || a.Nullable() != b.Nullable() {
		return false
	}
	switch at := a.(type) {
	case ListType:
		return TypesEqual(at.elem, b.(ListType).elem)
	case MapType:
		bt := b.(MapType)
		return TypesEqual(at.key, bt.key) && TypesEqual(at.elem, bt.elem)
	case StructType:
		return at.ct == b.(StructType).ct
	default:
		return true
	}
}

// typeExpr renders name<args...>? in canonical form.
func typeExpr(name string, args []Type, nullable bool) string {
	var sb strings.Builder
	sb.WriteString(name)
	if len(args) > 0 {
		sb.WriteByte('<')
		for i, a := range args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	if nullable {
		sb.WriteByte('?')
	}
	return sb.String()
}

// typeKey builds the concrete cache key for (serialName, args).
func typeKey(name string, args []Type) string {
	return typeExpr(name, args, false)
}

// kindOf maps a primitive type name to its kind. Callers must have checked
// schema.IsPrimitive first.
func kindOf(name string) Kind {
	switch name {
	case schema.TypeString:
		return KindString
	case schema.TypeBool:
		return KindBool
	case schema.TypeInt:
		return KindInt
	case schema.TypeLong:
		return KindLong
	case schema.TypeFloat:
		return KindFloat
	case schema.TypeDouble:
		return KindDouble
	case schema.TypeBytes:
		return KindBytes
	case schema.TypeUuid:
		return KindUuid
	default:
		return KindTimestamp
	}
}
