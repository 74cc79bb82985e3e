package registry

import (
	"fmt"
	"reflect"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/artpar/typekit/core/schema"
)

// AliasInstance binds one concrete instantiation of an externally defined
// generic wrapper type. Args is the declared type-argument tuple under which
// the instantiation is registered; Specimen is a (zero) value of the
// instantiated Go type whose layout the virtual template is derived from.
type AliasInstance struct {
	Args     []Type
	Specimen any
}

// RegisterAlias derives a virtual concrete type per instantiation of an
// external generic wrapper type. Each instantiation is registered
// independently under (serialName, instance.Args), so Wrapper<Int> and
// Wrapper<Uuid> resolve to distinct, non-interchangeable concrete types.
// Resolution and caching then work exactly as for hand-registered templates.
func (r *Registry) RegisterAlias(serialName string, instances ...AliasInstance) error {
	if serialName == "" {
		return fmt.Errorf("alias has no serial name")
	}
	if len(instances) == 0 {
		return fmt.Errorf("alias %q: no instantiations", serialName)
	}

	for _, inst := range instances {
		tpl, err := deriveTemplate(serialName, inst.Specimen)
		if err != nil {
			return fmt.Errorf("alias %q: %w", serialName, err)
		}

		key := typeKey(serialName, inst.Args)

		r.mu.Lock()
		if existing, ok := r.aliases[key]; ok {
			if !existing.Equal(tpl) {
				r.mu.Unlock()
				return fmt.Errorf("%w: %s", ErrDuplicateType, key)
			}
			r.mu.Unlock()
			continue
		}
		r.aliases[key] = tpl
		r.mu.Unlock()
	}

	return nil
}

var (
	uuidType = reflect.TypeOf(uuid.UUID{})
	timeType = reflect.TypeOf(time.Time{})
)

// deriveTemplate builds a non-generic template from the layout of an
// instantiated external struct type. Exported fields map positionally; a
// pointer field marks the reference nullable.
func deriveTemplate(serialName string, specimen any) (schema.Template, error) {
	if specimen == nil {
		return schema.Template{}, fmt.Errorf("nil specimen")
	}

	rt := reflect.TypeOf(specimen)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return schema.Template{}, fmt.Errorf("specimen must be a struct, got %s", rt.Kind())
	}

	tpl := schema.Template{SerialName: serialName}
	index := 0
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		ref, err := typeRefOf(sf.Type)
		if err != nil {
			return schema.Template{}, fmt.Errorf("field %s: %w", sf.Name, err)
		}

		tpl.Fields = append(tpl.Fields, schema.Field{
			Index: index,
			Name:  fieldName(sf),
			Type:  ref,
		})
		index++
	}

	if len(tpl.Fields) == 0 {
		return schema.Template{}, fmt.Errorf("struct %s has no exported fields", rt)
	}

	return tpl, nil
}

// fieldName picks the wire name for a reflected field: a json tag if present,
// otherwise the Go name with its first rune lowered.
func fieldName(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		for i := 0; i < len(tag); i++ {
			if tag[i] == ',' {
				tag = tag[:i]
				break
			}
		}
		if tag != "" && tag != "-" {
			return tag
		}
	}

	runes := []rune(sf.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// typeRefOf maps a reflected Go type to a schema type reference.
func typeRefOf(rt reflect.Type) (schema.TypeRef, error) {
	if rt == uuidType {
		return schema.Named(schema.TypeUuid), nil
	}
	if rt == timeType {
		return schema.Named(schema.TypeTimestamp), nil
	}

	switch rt.Kind() {
	case reflect.String:
		return schema.Named(schema.TypeString), nil
	case reflect.Bool:
		return schema.Named(schema.TypeBool), nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return schema.Named(schema.TypeInt), nil
	case reflect.Int, reflect.Int64:
		return schema.Named(schema.TypeLong), nil
	case reflect.Float32:
		return schema.Named(schema.TypeFloat), nil
	case reflect.Float64:
		return schema.Named(schema.TypeDouble), nil
	case reflect.Pointer:
		ref, err := typeRefOf(rt.Elem())
		if err != nil {
			return schema.TypeRef{}, err
		}
		return ref.AsNullable(), nil
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return schema.Named(schema.TypeBytes), nil
		}
		elem, err := typeRefOf(rt.Elem())
		if err != nil {
			return schema.TypeRef{}, err
		}
		return schema.NamedArgs(schema.TypeList, elem), nil
	case reflect.Map:
		if rt.Key().Kind() != reflect.String {
			return schema.TypeRef{}, fmt.Errorf("map key must be a string, got %s", rt.Key())
		}
		elem, err := typeRefOf(rt.Elem())
		if err != nil {
			return schema.TypeRef{}, err
		}
		return schema.NamedArgs(schema.TypeMap, schema.Named(schema.TypeString), elem), nil
	default:
		return schema.TypeRef{}, fmt.Errorf("unsupported field type %s", rt)
	}
}
