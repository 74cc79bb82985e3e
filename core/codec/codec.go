// Package codec bridges runtime struct values to JSON. Encoding and decoding
// are driven entirely by the concrete type's descriptor, so shapes known only
// at runtime serialize like compile-time types would.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/typekit/core/registry"
)

// Encode serializes a struct value to JSON. Fields are emitted keyed by wire
// name; a null field value encodes as a JSON null, not as an empty nested
// object. Type-level cycles are fine since the data bottoms out on nulls;
// value graphs with actual reference cycles are outside the contract.
func Encode(v *registry.Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("encode nil value")
	}

	doc, err := encodeStruct(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Decode deserializes JSON into a struct value of the given concrete type.
// Wire key order does not matter. A required (non-optional, non-nullable)
// field missing from the wire, or a value whose shape does not match its
// declared type, fails with ErrMalformedWire. Unknown keys are ignored.
func Decode(ct *registry.ConcreteType, data []byte) (*registry.Value, error) {
	if ct == nil {
		return nil, fmt.Errorf("decode into nil concrete type")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrMalformedWire, err)
	}

	return decodeStruct(ct, raw)
}

func encodeStruct(v *registry.Value) (map[string]any, error) {
	ct := v.Type()
	out := make(map[string]any, ct.NumFields())

	for i := 0; i < ct.NumFields(); i++ {
		f := ct.Field(i)
		raw := v.Get(i)
		if raw == nil {
			out[f.Name] = nil
			continue
		}
		ev, err := encodeValue(f.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", ct, f.Name, err)
		}
		out[f.Name] = ev
	}

	return out, nil
}

func encodeValue(t registry.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t.Kind() {
	case registry.KindString, registry.KindBool:
		return v, nil
	case registry.KindInt, registry.KindLong:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case registry.KindFloat, registry.KindDouble:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		}
	case registry.KindBytes:
		if b, ok := v.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), nil
		}
	case registry.KindUuid:
		if id, ok := v.(uuid.UUID); ok {
			return id.String(), nil
		}
	case registry.KindTimestamp:
		if ts, ok := v.(time.Time); ok {
			return ts.Format(time.RFC3339Nano), nil
		}
	case registry.KindList:
		elems, ok := v.([]any)
		if !ok {
			break
		}
		elemType := t.(registry.ListType).Elem()
		out := make([]any, len(elems))
		for i, e := range elems {
			ev, err := encodeValue(elemType, e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case registry.KindMap:
		entries, ok := v.(map[string]any)
		if !ok {
			break
		}
		elemType := t.(registry.MapType).Elem()
		out := make(map[string]any, len(entries))
		for k, e := range entries {
			ev, err := encodeValue(elemType, e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	case registry.KindStruct:
		if sv, ok := v.(*registry.Value); ok {
			if sv == nil {
				return nil, nil
			}
			return encodeStruct(sv)
		}
	}

	return nil, fmt.Errorf("cannot encode %T as %s", v, t)
}

func decodeStruct(ct *registry.ConcreteType, raw any) (*registry.Value, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object for %s, got %T", registry.ErrMalformedWire, ct, raw)
	}

	values := make([]any, ct.NumFields())
	for i := 0; i < ct.NumFields(); i++ {
		f := ct.Field(i)

		raw, present := obj[f.Name]
		if !present || raw == nil {
			if f.Optional || f.Nullable() {
				values[i] = nil
				continue
			}
			if !present {
				return nil, fmt.Errorf("%w: missing required field %s.%s", registry.ErrMalformedWire, ct, f.Name)
			}
			return nil, fmt.Errorf("%w: null in non-nullable field %s.%s", registry.ErrMalformedWire, ct, f.Name)
		}

		dv, err := decodeValue(f.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", ct, f.Name, err)
		}
		values[i] = dv
	}

	return registry.NewValue(ct, values...)
}

func decodeValue(t registry.Type, raw any) (any, error) {
	switch t.Kind() {
	case registry.KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case registry.KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case registry.KindInt:
		if n, ok := raw.(json.Number); ok {
			i, err := parseInt(n, 32)
			if err != nil {
				return nil, err
			}
			return i, nil
		}
	case registry.KindLong:
		if n, ok := raw.(json.Number); ok {
			i, err := parseInt(n, 64)
			if err != nil {
				return nil, err
			}
			return i, nil
		}
	case registry.KindFloat, registry.KindDouble:
		if n, ok := raw.(json.Number); ok {
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", registry.ErrMalformedWire, err)
			}
			return f, nil
		}
	case registry.KindBytes:
		if s, ok := raw.(string); ok {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid base64: %v", registry.ErrMalformedWire, err)
			}
			return b, nil
		}
	case registry.KindUuid:
		if s, ok := raw.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid uuid: %v", registry.ErrMalformedWire, err)
			}
			return id, nil
		}
	case registry.KindTimestamp:
		if s, ok := raw.(string); ok {
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid timestamp: %v", registry.ErrMalformedWire, err)
			}
			return ts, nil
		}
	case registry.KindList:
		elems, ok := raw.([]any)
		if !ok {
			break
		}
		elemType := t.(registry.ListType).Elem()
		out := make([]any, len(elems))
		for i, e := range elems {
			if e == nil {
				if !elemType.Nullable() {
					return nil, fmt.Errorf("%w: null element %d in non-nullable %s", registry.ErrMalformedWire, i, t)
				}
				continue
			}
			dv, err := decodeValue(elemType, e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = dv
		}
		return out, nil
	case registry.KindMap:
		entries, ok := raw.(map[string]any)
		if !ok {
			break
		}
		elemType := t.(registry.MapType).Elem()
		out := make(map[string]any, len(entries))
		for k, e := range entries {
			if e == nil {
				if !elemType.Nullable() {
					return nil, fmt.Errorf("%w: null value for key %q in non-nullable %s", registry.ErrMalformedWire, k, t)
				}
				out[k] = nil
				continue
			}
			dv, err := decodeValue(elemType, e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = dv
		}
		return out, nil
	case registry.KindStruct:
		return decodeStruct(t.(registry.StructType).Of(), raw)
	}

	return nil, fmt.Errorf("%w: expected %s, got %T", registry.ErrMalformedWire, t, raw)
}

func parseInt(n json.Number, bits int) (int64, error) {
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", registry.ErrMalformedWire, err)
	}
	if bits == 32 && (i > 1<<31-1 || i < -(1<<31)) {
		return 0, fmt.Errorf("%w: %s overflows Int", registry.ErrMalformedWire, n)
	}
	return i, nil
}
