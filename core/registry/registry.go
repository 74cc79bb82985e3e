// Package registry implements the runtime structural type system: a registry
// of struct templates, resolution of templates into concrete types with
// stable identity, and struct values shaped by those types.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/typekit/core/schema"
)

// Registry is the central authority for runtime struct types. It owns all
// registered templates and every ConcreteType it has resolved; callers hold
// non-owning references. Resolve is safe for concurrent use, including
// concurrent first resolution of the same key.
type Registry struct {
	mu sync.RWMutex

	// templates by serial name
	templates map[string]schema.Template

	// aliases holds per-instantiation templates derived from external
	// wrapper types, keyed by the full concrete key (name plus arguments).
	aliases map[string]schema.Template

	// published is the concrete cache: fully resolved, frozen types keyed
	// by (serial name, type arguments). This map is what gives repeated
	// resolutions of one key pointer identity.
	published map[string]*ConcreteType

	// buildMu serializes resolution builds. Resolution is pure in-memory
	// computation, so one build at a time keeps the shell-then-fill protocol
	// race-free without per-key completion plumbing; cache hits never take
	// this lock.
	buildMu sync.Mutex

	obs Observer
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		templates: make(map[string]schema.Template),
		aliases:   make(map[string]schema.Template),
		published: make(map[string]*ConcreteType),
		obs:       nopObserver{},
	}
}

// Observe attaches an observer for resolution events. Intended to be called
// once during setup, before the registry is shared.
func (r *Registry) Observe(obs Observer) {
	if obs == nil {
		obs = nopObserver{}
	}
	r.obs = obs
}

// Register adds a template under its serial name. Registration is pure
// bookkeeping: no field type is resolved, so templates may reference names
// that are registered later. Registering an identical template again is a
// no-op; registering a different template under an existing name fails with
// ErrDuplicateType. Concrete types already resolved are never invalidated.
func (r *Registry) Register(tpl schema.Template) error {
	if err := schema.Validate(tpl); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.templates[tpl.SerialName]; ok {
		if existing.Equal(tpl) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDuplicateType, tpl.SerialName)
	}

	r.templates[tpl.SerialName] = tpl
	return nil
}

// RegisterAll registers templates in order, stopping at the first error.
func (r *Registry) RegisterAll(templates []schema.Template) error {
	for _, tpl := range templates {
		if err := r.Register(tpl); err != nil {
			return err
		}
	}
	return nil
}

// Template returns the registered template for a serial name.
func (r *Registry) Template(serialName string) (schema.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, ok := r.templates[serialName]
	return tpl, ok
}

// Templates returns all registered templates sorted by serial name.
func (r *Registry) Templates() []schema.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schema.Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialName < out[j].SerialName })
	return out
}

// Resolve turns a registered template plus type arguments into a concrete
// type. For a fixed registry, two resolutions of the same key return the same
// pointer, including through recursive and mutually recursive type graphs.
// Every name reachable from the template must be registered by the time
// Resolve is called; a dangling name fails with ErrUnknownType and leaves the
// concrete cache untouched.
func (r *Registry) Resolve(serialName string, args ...Type) (*ConcreteType, error) {
	key := typeKey(serialName, args)

	r.mu.RLock()
	ct, ok := r.published[key]
	r.mu.RUnlock()
	if ok {
		r.obs.CacheHit(serialName)
		return ct, nil
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	// A concurrent build may have published the key while we waited.
	r.mu.RLock()
	ct, ok = r.published[key]
	r.mu.RUnlock()
	if ok {
		r.obs.CacheHit(serialName)
		return ct, nil
	}

	r.obs.ResolveStarted(serialName)

	b := &build{reg: r, pending: make(map[string]*ConcreteType)}
	ct, err := b.resolve(serialName, args)
	if err != nil {
		// Shells created by this build are discarded wholesale, so a failed
		// resolution leaves no half-filled entries behind and a later call
		// can succeed once the missing template is registered.
		r.obs.ResolveFailed(serialName, err)
		return nil, err
	}

	// Freeze and publish every type this build produced. Publication is the
	// single point after which a ConcreteType is visible to other
	// goroutines, and nothing mutates it afterwards.
	r.mu.Lock()
	for k, t := range b.pending {
		t.freeze()
		r.published[k] = t
	}
	r.mu.Unlock()

	return ct, nil
}

// MustResolve is Resolve that panics on error, for types known to be
// registered (typically during startup wiring).
func (r *Registry) MustResolve(serialName string, args ...Type) *ConcreteType {
	ct, err := r.Resolve(serialName, args...)
	if err != nil {
		panic(err)
	}
	return ct
}

// ResolveType resolves a standalone type reference. The reference must be
// closed: free type parameters are not allowed here, only primitives,
// collections and registered templates with fully-specified arguments.
func (r *Registry) ResolveType(ref schema.TypeRef) (Type, error) {
	var t Type
	switch {
	case schema.IsPrimitive(ref.Name):
		if len(ref.Args) != 0 {
			return nil, fmt.Errorf("%w: %s takes no type arguments", ErrArityMismatch, ref.Name)
		}
		t = Primitive(kindOf(ref.Name))

	case ref.Name == schema.TypeList:
		if len(ref.Args) != 1 {
			return nil, fmt.Errorf("%w: List expects 1 type argument, got %d", ErrArityMismatch, len(ref.Args))
		}
		elem, err := r.ResolveType(ref.Args[0])
		if err != nil {
			return nil, err
		}
		t = ListOf(elem)

	case ref.Name == schema.TypeMap:
		if len(ref.Args) != 2 {
			return nil, fmt.Errorf("%w: Map expects 2 type arguments, got %d", ErrArityMismatch, len(ref.Args))
		}
		key, err := r.ResolveType(ref.Args[0])
		if err != nil {
			return nil, err
		}
		if !key.Kind().IsPrimitive() {
			return nil, fmt.Errorf("Map key must be a primitive, got %s", key)
		}
		elem, err := r.ResolveType(ref.Args[1])
		if err != nil {
			return nil, err
		}
		t = MapOf(key, elem)

	default:
		args := make([]Type, len(ref.Args))
		for i, a := range ref.Args {
			arg, err := r.ResolveType(a)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		ct, err := r.Resolve(ref.Name, args...)
		if err != nil {
			return nil, err
		}
		t = StructOf(ct)
	}

	if ref.Nullable {
		t = NullableOf(t)
	}
	return t, nil
}

// ResolvedCount returns the number of concrete types in the cache.
func (r *Registry) ResolvedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.published)
}

// build is the state of one resolution pass. Shells created during the pass
// live in pending until the whole pass succeeds; recursive references find
// them there, which is what breaks resolution cycles.
type build struct {
	reg     *Registry
	pending map[string]*ConcreteType
}

func (b *build) resolve(serialName string, args []Type) (*ConcreteType, error) {
	key := typeKey(serialName, args)

	// A shell from this pass means we are inside a cycle: return it as-is,
	// its fields are filled before the pass completes.
	if ct, ok := b.pending[key]; ok {
		return ct, nil
	}

	b.reg.mu.RLock()
	ct, published := b.reg.published[key]
	tpl, isAlias, found := b.reg.lookupLocked(serialName, key)
	b.reg.mu.RUnlock()

	if published {
		return ct, nil
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, serialName)
	}
	if !isAlias && len(args) != len(tpl.TypeParams) {
		return nil, fmt.Errorf("%w: %s expects %d type arguments, got %d",
			ErrArityMismatch, serialName, len(tpl.TypeParams), len(args))
	}

	// Insert the shell before touching any field so recursive references to
	// this key short-circuit instead of recursing forever.
	shell := &ConcreteType{serialName: serialName, args: append([]Type(nil), args...)}
	b.pending[key] = shell

	fields := make([]ConcreteField, 0, len(tpl.Fields))
	for _, f := range tpl.Fields {
		ft, err := b.resolveRef(tpl, args, f.Type)
		if err != nil {
			return nil, fmt.Errorf("resolve %s.%s: %w", serialName, f.Name, err)
		}
		fields = append(fields, ConcreteField{Name: f.Name, Type: ft, Optional: f.Optional})
	}
	shell.fields = fields

	return shell, nil
}

// lookupLocked finds the template for a resolution: an alias instantiation
// bound to the exact concrete key wins over a hand-registered template.
// Callers hold r.mu.
func (r *Registry) lookupLocked(serialName, key string) (tpl schema.Template, isAlias, found bool) {
	if tpl, ok := r.aliases[key]; ok {
		return tpl, true, true
	}
	tpl, ok := r.templates[serialName]
	return tpl, false, ok
}

// resolveRef resolves one type reference in the context of a template and
// its caller-supplied type arguments.
func (b *build) resolveRef(tpl schema.Template, args []Type, ref schema.TypeRef) (Type, error) {
	// Generic parameter: substitute positionally.
	for i, param := range tpl.TypeParams {
		if ref.Name != param {
			continue
		}
		if len(ref.Args) > 0 {
			return nil, fmt.Errorf("%w: type parameter %s takes no type arguments", ErrArityMismatch, param)
		}
		t := args[i]
		if ref.Nullable {
			t = NullableOf(t)
		}
		return t, nil
	}

	switch {
	case schema.IsPrimitive(ref.Name):
		if len(ref.Args) != 0 {
			return nil, fmt.Errorf("%w: %s takes no type arguments", ErrArityMismatch, ref.Name)
		}
		return PrimitiveType{kind: kindOf(ref.Name), nullable: ref.Nullable}, nil

	case ref.Name == schema.TypeList:
		if len(ref.Args) != 1 {
			return nil, fmt.Errorf("%w: List expects 1 type argument, got %d", ErrArityMismatch, len(ref.Args))
		}
		elem, err := b.resolveRef(tpl, args, ref.Args[0])
		if err != nil {
			return nil, err
		}
		return ListType{elem: elem, nullable: ref.Nullable}, nil

	case ref.Name == schema.TypeMap:
		if len(ref.Args) != 2 {
			return nil, fmt.Errorf("%w: Map expects 2 type arguments, got %d", ErrArityMismatch, len(ref.Args))
		}
		key, err := b.resolveRef(tpl, args, ref.Args[0])
		if err != nil {
			return nil, err
		}
		if !key.Kind().IsPrimitive() {
			return nil, fmt.Errorf("Map key must be a primitive, got %s", key)
		}
		elem, err := b.resolveRef(tpl, args, ref.Args[1])
		if err != nil {
			return nil, err
		}
		return MapType{key: key, elem: elem, nullable: ref.Nullable}, nil

	default:
		// Another template: resolve its arguments in this context, then
		// recurse. The recursion bottoms out on the pending-shell check.
		resolved := make([]Type, len(ref.Args))
		for i, a := range ref.Args {
			t, err := b.resolveRef(tpl, args, a)
			if err != nil {
				return nil, err
			}
			resolved[i] = t
		}
		ct, err := b.resolve(ref.Name, resolved)
		if err != nil {
			return nil, err
		}
		return StructType{ct: ct, nullable: ref.Nullable}, nil
	}
}
