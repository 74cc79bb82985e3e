package schema

import (
	"fmt"
	"strings"
)

// TypeRef names a type at the schema level: a type identifier, its type
// arguments, and whether the position that uses it admits null.
// A TypeRef carries no resolution logic; the name may refer to a built-in,
// a generic parameter of the enclosing template, or a template that has not
// been registered yet. Dangling names only surface as errors at resolve time.
type TypeRef struct {
	// Name is a built-in identifier (String, Int, List, ...) or the serial
	// name of a template.
	Name string `yaml:"name" json:"name"`

	// Args are the type arguments, e.g. the element type of a List.
	Args []TypeRef `yaml:"args,omitempty" json:"args,omitempty"`

	// Nullable marks the reference as admitting null values.
	Nullable bool `yaml:"nullable,omitempty" json:"nullable,omitempty"`
}

// Named returns a TypeRef for a plain type name.
func Named(name string) TypeRef {
	return TypeRef{Name: name}
}

// NamedArgs returns a TypeRef with type arguments, e.g. NamedArgs("List", Named("Int")).
func NamedArgs(name string, args ...TypeRef) TypeRef {
	return TypeRef{Name: name, Args: args}
}

// AsNullable returns a copy of the reference marked nullable.
func (r TypeRef) AsNullable() TypeRef {
	r.Nullable = true
	return r
}

// Equal reports whether two references are structurally identical.
func (r TypeRef) Equal(other TypeRef) bool {
	if r.Name != other.Name || r.Nullable != other.Nullable || len(r.Args) != len(other.Args) {
		return false
	}
	for i := range r.Args {
		if !r.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// String renders the reference in type-expression form, e.g. "List<Node>?".
func (r TypeRef) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	if r.Nullable {
		sb.WriteByte('?')
	}
	return sb.String()
}

// ParseTypeExpr parses a type expression string into a TypeRef.
//
// Grammar:
//
//	expr     = name [ "<" expr ("," expr)* ">" ] [ "?" ]
//
// Examples: "String", "Node?", "List<Node>", "Map<String, Int>?",
// "List<Pair<A, B>>".
func ParseTypeExpr(expr string) (TypeRef, error) {
	p := &typeExprParser{input: expr}
	ref, err := p.parseExpr()
	if err != nil {
		return TypeRef{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return TypeRef{}, fmt.Errorf("parse type %q: unexpected %q at offset %d", expr, p.input[p.pos:], p.pos)
	}
	return ref, nil
}

type typeExprParser struct {
	input string
	pos   int
}

func (p *typeExprParser) parseExpr() (TypeRef, error) {
	p.skipSpace()
	name := p.readName()
	if name == "" {
		return TypeRef{}, fmt.Errorf("parse type %q: expected type name at offset %d", p.input, p.pos)
	}

	ref := TypeRef{Name: name}

	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return TypeRef{}, err
			}
			ref.Args = append(ref.Args, arg)

			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
			case '>':
				p.pos++
			default:
				return TypeRef{}, fmt.Errorf("parse type %q: expected ',' or '>' at offset %d", p.input, p.pos)
			}
			if p.input[p.pos-1] == '>' {
				break
			}
		}
	}

	p.skipSpace()
	if p.peek() == '?' {
		p.pos++
		ref.Nullable = true
	}

	return ref, nil
}

func (p *typeExprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *typeExprParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeExprParser) readName() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}
