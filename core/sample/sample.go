// Package sample generates example values for resolved types. Generated
// values are deterministic per seed, so they are stable enough to embed in
// documentation and golden files.
package sample

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/typekit/core/registry"
)

// Generator produces example values for concrete types.
type Generator struct {
	rng      *rand.Rand
	maxDepth int
}

// New creates a generator. The same seed always yields the same sequence of
// values.
func New(seed int64) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		maxDepth: 4,
	}
}

// SetMaxDepth bounds recursion through self-referential types. Past the
// bound, nullable and optional fields are set to nil and collections come
// out empty.
func (g *Generator) SetMaxDepth(d int) {
	g.maxDepth = d
}

// Value generates an example value for ct.
func (g *Generator) Value(ct *registry.ConcreteType) (*registry.Value, error) {
	return g.structValue(ct, 0)
}

func (g *Generator) structValue(ct *registry.ConcreteType, depth int) (*registry.Value, error) {
	values := make([]any, ct.NumFields())
	for i, f := range ct.Fields() {
		if depth >= g.maxDepth && (f.Optional || f.Nullable()) {
			values[i] = nil
			continue
		}
		v, err := g.fieldValue(f.Type, depth)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		values[i] = v
	}
	return registry.NewValue(ct, values...)
}

func (g *Generator) fieldValue(t registry.Type, depth int) (any, error) {
	switch t.Kind() {
	case registry.KindString:
		return words[g.rng.Intn(len(words))], nil
	case registry.KindBool:
		return g.rng.Intn(2) == 1, nil
	case registry.KindInt:
		return int32(g.rng.Intn(1000)), nil
	case registry.KindLong:
		return g.rng.Int63n(1 << 40), nil
	case registry.KindFloat:
		return float32(g.rng.Intn(10000)) / 100, nil
	case registry.KindDouble:
		return float64(g.rng.Intn(1000000)) / 100, nil
	case registry.KindBytes:
		b := make([]byte, 4+g.rng.Intn(8))
		g.rng.Read(b)
		return b, nil
	case registry.KindUuid:
		var b [16]byte
		g.rng.Read(b[:])
		// Version 4, RFC 4122 variant.
		b[6] = (b[6] & 0x0f) | 0x40
		b[8] = (b[8] & 0x3f) | 0x80
		return uuid.UUID(b), nil
	case registry.KindTimestamp:
		return time.Unix(1700000000+int64(g.rng.Intn(86400*365)), 0).UTC(), nil

	case registry.KindList:
		if depth >= g.maxDepth {
			return []any{}, nil
		}
		elem := t.(registry.ListType).Elem()
		out := make([]any, 1+g.rng.Intn(2))
		for i := range out {
			v, err := g.fieldValue(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case registry.KindMap:
		if depth >= g.maxDepth {
			return map[string]any{}, nil
		}
		elem := t.(registry.MapType).Elem()
		out := make(map[string]any, 2)
		for i := 0; i < 1+g.rng.Intn(2); i++ {
			v, err := g.fieldValue(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[words[g.rng.Intn(len(words))]] = v
		}
		return out, nil

	case registry.KindStruct:
		if depth >= g.maxDepth {
			return nil, fmt.Errorf("%s recurses past depth %d without a nullable or optional break", t, g.maxDepth)
		}
		return g.structValue(t.(registry.StructType).Of(), depth+1)

	default:
		return nil, fmt.Errorf("cannot generate a %s", t)
	}
}

var words = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
	"golf", "hotel", "india", "juliet", "kilo", "lima",
}
