package registry

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Value is a struct value: a concrete type plus a positional list of field
// values matching the type's field order. Field values are dynamic; their
// conformance to the field types is checked on construction.
//
// Canonical value representations per kind:
//
//	String     string
//	Bool       bool
//	Int, Long  int64 (int and int32 are accepted and compare equal)
//	Float      float64 (float32 accepted)
//	Double     float64
//	Bytes      []byte
//	Uuid       uuid.UUID
//	Timestamp  time.Time
//	List       []any
//	Map        map[string]any, keys in canonical string form
//	Struct     *Value (nil for nullable fields)
type Value struct {
	typ    *ConcreteType
	values []any
}

// NewValue constructs a struct value, validating that values has exactly one
// entry per field and each entry conforms to its field's resolved type.
// Nil is accepted only for nullable or optional fields. Violations fail with
// ErrValueShape.
func NewValue(ct *ConcreteType, values ...any) (*Value, error) {
	if ct == nil {
		return nil, fmt.Errorf("%w: nil concrete type", ErrValueShape)
	}
	if len(values) != ct.NumFields() {
		return nil, fmt.Errorf("%w: %s has %d fields, got %d values",
			ErrValueShape, ct, ct.NumFields(), len(values))
	}

	vals := make([]any, len(values))
	copy(vals, values)

	for i, v := range vals {
		f := ct.Field(i)
		// A typed-nil *Value means the same thing as an absent struct.
		if sv, ok := v.(*Value); ok && sv == nil {
			v = nil
			vals[i] = nil
		}
		if v == nil {
			if f.Nullable() || f.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: %s.%s is not nullable", ErrValueShape, ct, f.Name)
		}
		if err := checkValue(f.Type, v); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrValueShape, ct, f.Name, err)
		}
	}

	return &Value{typ: ct, values: vals}, nil
}

// Type returns the concrete type of the value.
func (v *Value) Type() *ConcreteType { return v.typ }

// Get returns the field value at the given position.
func (v *Value) Get(i int) any { return v.values[i] }

// Field returns the value of the named field.
func (v *Value) Field(name string) (any, bool) {
	i, ok := v.typ.FieldIndex(name)
	if !ok {
		return nil, false
	}
	return v.values[i], true
}

// Values returns a shallow copy of the positional field values.
func (v *Value) Values() []any {
	out := make([]any, len(v.values))
	copy(out, v.values)
	return out
}

// Equal reports structural equality: same concrete type identity and
// pairwise-equal field values, with nested struct values compared
// recursively.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.typ != other.typ || len(v.values) != len(other.values) {
		return false
	}
	for i := range v.values {
		if !valueEqual(v.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

// checkValue verifies that a non-nil dynamic value conforms to a resolved
// type.
func checkValue(t Type, v any) error {
	switch t.Kind() {
	case KindString:
		if _, ok := v.(string); !ok {
			return typeErr(t, v)
		}
	case KindBool:
		if _, ok := v.(bool); !ok {
			return typeErr(t, v)
		}
	case KindInt, KindLong:
		switch v.(type) {
		case int, int32, int64:
		default:
			return typeErr(t, v)
		}
	case KindFloat, KindDouble:
		switch v.(type) {
		case float32, float64:
		default:
			return typeErr(t, v)
		}
	case KindBytes:
		if _, ok := v.([]byte); !ok {
			return typeErr(t, v)
		}
	case KindUuid:
		if _, ok := v.(uuid.UUID); !ok {
			return typeErr(t, v)
		}
	case KindTimestamp:
		if _, ok := v.(time.Time); !ok {
			return typeErr(t, v)
		}
	case KindList:
		elems, ok := v.([]any)
		if !ok {
			return typeErr(t, v)
		}
		elemType := t.(ListType).Elem()
		for i, e := range elems {
			if e == nil {
				if elemType.Nullable() {
					continue
				}
				return fmt.Errorf("element %d: %s is not nullable", i, elemType)
			}
			if err := checkValue(elemType, e); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	case KindMap:
		entries, ok := v.(map[string]any)
		if !ok {
			return typeErr(t, v)
		}
		elemType := t.(MapType).Elem()
		for k, e := range entries {
			if e == nil {
				if elemType.Nullable() {
					continue
				}
				return fmt.Errorf("key %q: %s is not nullable", k, elemType)
			}
			if err := checkValue(elemType, e); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	case KindStruct:
		sv, ok := v.(*Value)
		if !ok {
			return typeErr(t, v)
		}
		if sv == nil {
			if t.Nullable() {
				return nil
			}
			return fmt.Errorf("%s is not nullable", t)
		}
		if sv.typ != t.(StructType).Of() {
			return fmt.Errorf("expected %s, got value of %s", t.(StructType).Of(), sv.typ)
		}
	}
	return nil
}

func typeErr(t Type, v any) error {
	return fmt.Errorf("expected %s, got %T", t, v)
}

// valueEqual compares two dynamic field values, normalizing across the
// accepted numeric representations.
func valueEqual(a, b any) bool {
	if av, ok := a.(*Value); ok && av == nil {
		a = nil
	}
	if bv, ok := b.(*Value); ok && bv == nil {
		b = nil
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case int, int32, int64:
		bi, ok := asInt64(b)
		if !ok {
			return false
		}
		ai, _ := asInt64(a)
		return ai == bi
	case float32, float64:
		bf, ok := asFloat64(b)
		if !ok {
			return false
		}
		af, _ := asFloat64(a)
		return af == bf
	case []byte:
		bb, ok := b.([]byte)
		return ok && bytes.Equal(av, bb)
	case time.Time:
		bt, ok := b.(time.Time)
		return ok && av.Equal(bt)
	case *Value:
		bv, ok := b.(*Value)
		return ok && av.Equal(bv)
	case []any:
		bl, ok := b.([]any)
		if !ok || len(av) != len(bl) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bl[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bm, ok := b.(map[string]any)
		if !ok || len(av) != len(bm) {
			return false
		}
		for k, v := range av {
			bv, ok := bm[k]
			if !ok || !valueEqual(v, bv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
