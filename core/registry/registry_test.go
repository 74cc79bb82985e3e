package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/artpar/typekit/core/schema"
)

func nodeTemplate() schema.Template {
	return schema.Template{
		SerialName: "Node",
		Fields: []schema.Field{
			{Index: 0, Name: "id", Type: schema.Named("Uuid")},
			{Index: 1, Name: "child", Type: schema.Named("Node").AsNullable()},
		},
	}
}

func registerAll(t *testing.T, r *Registry, templates ...schema.Template) {
	t.Helper()
	for _, tpl := range templates {
		if err := r.Register(tpl); err != nil {
			t.Fatalf("Register(%s) error = %v", tpl.SerialName, err)
		}
	}
}

func TestResolve_Identity(t *testing.T) {
	r := New()
	registerAll(t, r, nodeTemplate())

	first, err := r.Resolve("Node")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := r.Resolve("Node")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if first != second {
		t.Error("repeated resolutions of the same key must return the same pointer")
	}
}

func TestResolve_SelfReference(t *testing.T) {
	r := New()
	registerAll(t, r, nodeTemplate())

	ct, err := r.Resolve("Node")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if ct.NumFields() != 2 {
		t.Fatalf("NumFields() = %d, want 2", ct.NumFields())
	}

	child := ct.FieldType(1)
	if child.Kind() != KindStruct {
		t.Fatalf("child kind = %v, want KindStruct", child.Kind())
	}
	if !child.Nullable() {
		t.Error("child should be nullable")
	}
	// Self-reference resolves to the very same instance, not a duplicate.
	if child.(StructType).Of() != ct {
		t.Error("self-referential field must point at the same concrete type")
	}
}

func TestResolve_MutualRecursion(t *testing.T) {
	a := schema.Template{
		SerialName: "A",
		Fields: []schema.Field{
			{Index: 0, Name: "id", Type: schema.Named("Uuid")},
			{Index: 1, Name: "b", Type: schema.Named("B").AsNullable()},
		},
	}
	b := schema.Template{
		SerialName: "B",
		Fields: []schema.Field{
			{Index: 0, Name: "id", Type: schema.Named("Uuid")},
			{Index: 1, Name: "a", Type: schema.Named("A").AsNullable()},
		},
	}

	// Registration order must not matter.
	for _, order := range [][]schema.Template{{a, b}, {b, a}} {
		r := New()
		registerAll(t, r, order...)

		ctA, err := r.Resolve("A")
		if err != nil {
			t.Fatalf("Resolve(A) error = %v", err)
		}
		ctB, err := r.Resolve("B")
		if err != nil {
			t.Fatalf("Resolve(B) error = %v", err)
		}

		if ctA.FieldType(1).(StructType).Of() != ctB {
			t.Error("A.b must reference the canonical B instance")
		}
		if ctB.FieldType(1).(StructType).Of() != ctA {
			t.Error("B.a must reference the canonical A instance")
		}
	}
}

func TestResolve_ThreeCycle(t *testing.T) {
	r := New()
	registerAll(t, r,
		schema.Template{SerialName: "X", Fields: []schema.Field{
			{Index: 0, Name: "id", Type: schema.Named("Uuid")},
			{Index: 1, Name: "next", Type: schema.Named("Y").AsNullable()},
		}},
		schema.Template{SerialName: "Y", Fields: []schema.Field{
			{Index: 0, Name: "id", Type: schema.Named("Uuid")},
			{Index: 1, Name: "next", Type: schema.Named("Z").AsNullable()},
		}},
		schema.Template{SerialName: "Z", Fields: []schema.Field{
			{Index: 0, Name: "id", Type: schema.Named("Uuid")},
			{Index: 1, Name: "next", Type: schema.Named("X").AsNullable()},
		}},
	)

	x, err := r.Resolve("X")
	if err != nil {
		t.Fatalf("Resolve(X) error = %v", err)
	}

	y := x.FieldType(1).(StructType).Of()
	z := y.FieldType(1).(StructType).Of()
	back := z.FieldType(1).(StructType).Of()

	if back != x {
		t.Error("following the 3-cycle must come back to the same X instance")
	}
}

func TestResolve_ListRecursion(t *testing.T) {
	r := New()
	registerAll(t, r, schema.Template{
		SerialName: "TreeNode",
		Fields: []schema.Field{
			{Index: 0, Name: "id", Type: schema.Named("Uuid")},
			{Index: 1, Name: "children", Type: schema.NamedArgs("List", schema.Named("TreeNode"))},
		},
	})

	ct, err := r.Resolve("TreeNode")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	children := ct.FieldType(1)
	if children.Kind() != KindList {
		t.Fatalf("children kind = %v, want KindList", children.Kind())
	}
	if children.(ListType).Elem().(StructType).Of() != ct {
		t.Error("list element must reference the same concrete type")
	}
}

func TestResolve_Generic(t *testing.T) {
	r := New()
	registerAll(t, r, schema.Template{
		SerialName: "Pair",
		TypeParams: []string{"A", "B"},
		Fields: []schema.Field{
			{Index: 0, Name: "first", Type: schema.Named("A")},
			{Index: 1, Name: "second", Type: schema.Named("B")},
		},
	})

	ct, err := r.Resolve("Pair", Primitive(KindString), Primitive(KindLong))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if ct.FieldType(0).Kind() != KindString {
		t.Errorf("first kind = %v, want KindString", ct.FieldType(0).Kind())
	}
	if ct.FieldType(1).Kind() != KindLong {
		t.Errorf("second kind = %v, want KindLong", ct.FieldType(1).Kind())
	}

	// A different argument tuple is a different identity.
	other, err := r.Resolve("Pair", Primitive(KindLong), Primitive(KindString))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if other == ct {
		t.Error("distinct argument tuples must yield distinct concrete types")
	}

	// Same tuple is the same identity.
	again, err := r.Resolve("Pair", Primitive(KindString), Primitive(KindLong))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if again != ct {
		t.Error("identical argument tuples must yield the same concrete type")
	}
}

func TestResolve_GenericThroughCollection(t *testing.T) {
	r := New()
	registerAll(t, r, schema.Template{
		SerialName: "Batch",
		TypeParams: []string{"T"},
		Fields: []schema.Field{
			{Index: 0, Name: "items", Type: schema.NamedArgs("List", schema.Named("T"))},
			{Index: 1, Name: "byKey", Type: schema.NamedArgs("Map", schema.Named("String"), schema.Named("T"))},
		},
	})

	ct, err := r.Resolve("Batch", Primitive(KindUuid))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if ct.FieldType(0).(ListType).Elem().Kind() != KindUuid {
		t.Errorf("items element = %v, want Uuid", ct.FieldType(0).(ListType).Elem())
	}
	if ct.FieldType(1).(MapType).Elem().Kind() != KindUuid {
		t.Errorf("byKey element = %v, want Uuid", ct.FieldType(1).(MapType).Elem())
	}
}

func TestResolve_ArityMismatch(t *testing.T) {
	r := New()
	registerAll(t, r,
		schema.Template{
			SerialName: "Box",
			TypeParams: []string{"T"},
			Fields:     []schema.Field{{Index: 0, Name: "value", Type: schema.Named("T")}},
		},
		nodeTemplate(),
	)

	if _, err := r.Resolve("Box"); !errors.Is(err, ErrArityMismatch) {
		t.Errorf("Resolve(Box) error = %v, want ErrArityMismatch", err)
	}
	if _, err := r.Resolve("Box", Primitive(KindInt), Primitive(KindInt)); !errors.Is(err, ErrArityMismatch) {
		t.Errorf("Resolve(Box, Int, Int) error = %v, want ErrArityMismatch", err)
	}
	if _, err := r.Resolve("Node", Primitive(KindInt)); !errors.Is(err, ErrArityMismatch) {
		t.Errorf("Resolve(Node, Int) error = %v, want ErrArityMismatch", err)
	}
}

func TestResolve_UnknownType(t *testing.T) {
	r := New()

	if _, err := r.Resolve("Nowhere"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Resolve(Nowhere) error = %v, want ErrUnknownType", err)
	}
}

func TestResolve_DanglingReferenceThenRegistered(t *testing.T) {
	r := New()
	registerAll(t, r, schema.Template{
		SerialName: "Owner",
		Fields:     []schema.Field{{Index: 0, Name: "pet", Type: schema.Named("Pet")}},
	})

	// Forward reference is legal at registration, fatal at resolution.
	if _, err := r.Resolve("Owner"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("Resolve(Owner) error = %v, want ErrUnknownType", err)
	}

	// The failed resolution must leave no half-built entries behind.
	if n := r.ResolvedCount(); n != 0 {
		t.Fatalf("ResolvedCount() = %d after failed resolve, want 0", n)
	}

	registerAll(t, r, schema.Template{
		SerialName: "Pet",
		Fields:     []schema.Field{{Index: 0, Name: "name", Type: schema.Named("String")}},
	})

	ct, err := r.Resolve("Owner")
	if err != nil {
		t.Fatalf("Resolve(Owner) after registering Pet error = %v", err)
	}
	if ct.FieldType(0).Kind() != KindStruct {
		t.Errorf("pet kind = %v, want KindStruct", ct.FieldType(0).Kind())
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	registerAll(t, r, nodeTemplate())

	before, err := r.Resolve("Node")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Identical content: idempotent, cached identity untouched.
	if err := r.Register(nodeTemplate()); err != nil {
		t.Fatalf("re-registering identical template: error = %v", err)
	}
	after, err := r.Resolve("Node")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if after != before {
		t.Error("idempotent re-registration must not change cached identity")
	}

	// Different content under the same name: rejected.
	changed := nodeTemplate()
	changed.Fields[0].Name = "uid"
	if err := r.Register(changed); !errors.Is(err, ErrDuplicateType) {
		t.Errorf("Register(changed) error = %v, want ErrDuplicateType", err)
	}
}

func TestResolve_ConcurrentSameKey(t *testing.T) {
	r := New()
	registerAll(t, r, nodeTemplate())

	const goroutines = 32
	results := make([]*ConcreteType, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ct, err := r.Resolve("Node")
			if err != nil {
				t.Errorf("Resolve() error = %v", err)
				return
			}
			results[i] = ct
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent first resolutions must converge on one instance")
		}
	}
}

func TestResolve_ConcurrentMutualRecursion(t *testing.T) {
	r := New()
	registerAll(t, r,
		schema.Template{SerialName: "A", Fields: []schema.Field{
			{Index: 0, Name: "b", Type: schema.Named("B").AsNullable()},
		}},
		schema.Template{SerialName: "B", Fields: []schema.Field{
			{Index: 0, Name: "a", Type: schema.Named("A").AsNullable()},
		}},
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		name := "A"
		if i%2 == 1 {
			name = "B"
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := r.Resolve(name); err != nil {
				t.Errorf("Resolve(%s) error = %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	a, _ := r.Resolve("A")
	b, _ := r.Resolve("B")
	if a.FieldType(0).(StructType).Of() != b || b.FieldType(0).(StructType).Of() != a {
		t.Error("concurrent resolution broke cross-references")
	}
}

func TestResolve_IdentityProperty(t *testing.T) {
	r := New()
	registerAll(t, r,
		nodeTemplate(),
		schema.Template{
			SerialName: "Box",
			TypeParams: []string{"T"},
			Fields:     []schema.Field{{Index: 0, Name: "value", Type: schema.Named("T")}},
		},
	)

	argPool := []Type{
		Primitive(KindString),
		Primitive(KindLong),
		Primitive(KindUuid),
		ListOf(Primitive(KindInt)),
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("resolving the same key twice yields the same pointer", prop.ForAll(
		func(argIdx int, generic bool) bool {
			if !generic {
				a, err1 := r.Resolve("Node")
				b, err2 := r.Resolve("Node")
				return err1 == nil && err2 == nil && a == b
			}
			a, err1 := r.Resolve("Box", argPool[argIdx])
			b, err2 := r.Resolve("Box", argPool[argIdx])
			return err1 == nil && err2 == nil && a == b
		},
		gen.IntRange(0, len(argPool)-1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestFingerprint(t *testing.T) {
	build := func() *Registry {
		r := New()
		registerAll(t, r, nodeTemplate())
		return r
	}

	a := build().MustResolve("Node")
	b := build().MustResolve("Node")

	// Structurally identical graphs digest identically across registries.
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical type graphs must have identical fingerprints")
	}

	// A recursive graph must terminate and produce a non-empty digest.
	if a.Fingerprint() == "" {
		t.Error("fingerprint must not be empty")
	}

	r := build()
	registerAll(t, r, schema.Template{
		SerialName: "Other",
		Fields:     []schema.Field{{Index: 0, Name: "id", Type: schema.Named("Uuid")}},
	})
	other := r.MustResolve("Other")
	if other.Fingerprint() == a.Fingerprint() {
		t.Error("different shapes must have different fingerprints")
	}
}

func TestResolveType(t *testing.T) {
	r := New()
	registerAll(t, r,
		nodeTemplate(),
		schema.Template{
			SerialName: "Box",
			TypeParams: []string{"T"},
			Fields: []schema.Field{
				{Index: 0, Name: "value", Type: schema.Named("T")},
			},
		},
	)

	// A bare primitive.
	pt, err := r.ResolveType(schema.Named("String"))
	if err != nil {
		t.Fatalf("ResolveType() error = %v", err)
	}
	if pt.Kind() != KindString {
		t.Errorf("kind = %v, want KindString", pt.Kind())
	}

	// A generic instantiation shares identity with a direct Resolve.
	bt, err := r.ResolveType(schema.NamedArgs("Box", schema.Named("Long")))
	if err != nil {
		t.Fatalf("ResolveType() error = %v", err)
	}
	direct := r.MustResolve("Box", Primitive(KindLong))
	if bt.(StructType).Of() != direct {
		t.Error("ResolveType and Resolve must yield the same concrete type")
	}

	// Nullability applies to the outer type only.
	nt, err := r.ResolveType(schema.NamedArgs("List", schema.Named("Node")).AsNullable())
	if err != nil {
		t.Fatalf("ResolveType() error = %v", err)
	}
	if !nt.Nullable() {
		t.Error("outer type must be nullable")
	}
	if nt.(ListType).Elem().Nullable() {
		t.Error("element must not inherit nullability")
	}

	// Free parameters are not allowed in a standalone reference.
	if _, err := r.ResolveType(schema.Named("T")); err == nil {
		t.Error("expected error for unbound type parameter")
	}

	// Non-primitive map keys are rejected.
	if _, err := r.ResolveType(schema.NamedArgs("Map", schema.Named("Node"), schema.Named("String"))); err == nil {
		t.Error("expected error for struct map key")
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	starts int
	hits   int
	fails  int
}

func (o *recordingObserver) ResolveStarted(string) {
	o.mu.Lock()
	o.starts++
	o.mu.Unlock()
}

func (o *recordingObserver) CacheHit(string) {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *recordingObserver) ResolveFailed(string, error) {
	o.mu.Lock()
	o.fails++
	o.mu.Unlock()
}

func TestObserver_CountsOneStartPerKey(t *testing.T) {
	obs := &recordingObserver{}
	r := New()
	r.Observe(obs)
	registerAll(t, r, nodeTemplate())

	// Every call beyond the one that actually builds is a cache hit, even
	// when callers race the first resolution: losers of the build lock must
	// not be counted as misses.
	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve("Node"); err != nil {
				t.Errorf("Resolve() error = %v", err)
			}
		}()
	}
	wg.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.starts != 1 {
		t.Errorf("starts = %d, want 1", obs.starts)
	}
	if obs.hits != n-1 {
		t.Errorf("hits = %d, want %d", obs.hits, n-1)
	}
	if obs.fails != 0 {
		t.Errorf("fails = %d, want 0", obs.fails)
	}
}
