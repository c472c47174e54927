package container

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// cell is one cache slot. Its mutex serialises check-construct-store so a
// singleton or scoped service is built at most once per slot.
type cell struct {
	mu    sync.Mutex
	value any
	ready bool
}

// resolution is the state of one Make call: the scope it runs in (nil at the
// root) and the chain of keys currently being built.
type resolution struct {
	c     *Container
	scope *Scope
	path  []string
}

// Make implements Resolver so factories can resolve their own dependencies
// within the same scope and cycle detection.
func (r *resolution) Make(key string) (any, error) {
	return r.make(key)
}

func (r *resolution) enter(key string) *resolution {
	path := make([]string, len(r.path), len(r.path)+1)
	copy(path, r.path)
	return &resolution{c: r.c, scope: r.scope, path: append(path, key)}
}

func (r *resolution) fail(key string, err error) error {
	path := append(slices.Clone(r.path), key)
	return &ResolutionError{Key: key, Path: path, Err: err}
}

func (r *resolution) make(abstract string) (any, error) {
	key := r.c.canonicalKey(abstract)

	if slices.Contains(r.path, key) {
		return nil, r.fail(key, ErrCircularDependency)
	}

	if len(r.path) > 0 {
		if f := r.c.getContextual(r.path[len(r.path)-1], key); f != nil {
			return r.run(&Descriptor{Key: key, factory: f})
		}
	}

	d, err := r.c.lookup(key)
	if err != nil {
		return nil, r.fail(key, err)
	}

	switch d.Lifetime {
	case Singleton:
		return r.singleton(d)
	case Scoped:
		if r.scope == nil {
			return nil, r.fail(key, ErrNoActiveScope)
		}
		return r.scoped(d)
	default:
		return r.run(d)
	}
}

func (r *resolution) singleton(d *Descriptor) (any, error) {
	cl := r.c.singletonCell(d.Key)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.ready {
		return cl.value, nil
	}

	// Singletons outlive every scope, so they are built from the root.
	root := &resolution{c: r.c, path: r.path}
	v, err := root.run(d)
	if err != nil {
		return nil, err
	}
	cl.value, cl.ready = v, true
	return v, nil
}

func (r *resolution) scoped(d *Descriptor) (any, error) {
	cl, err := r.scope.cell(d.Key)
	if err != nil {
		return nil, r.fail(d.Key, err)
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.ready {
		return cl.value, nil
	}
	v, err := r.run(d)
	if err != nil {
		return nil, err
	}
	cl.value, cl.ready = v, true
	return v, nil
}

// run builds a fresh value for d: factory, then instance, then constructor.
func (r *resolution) run(d *Descriptor) (any, error) {
	child := r.enter(d.Key)

	var (
		instance any
		err      error
	)
	switch {
	case d.factory != nil:
		instance, err = d.factory(child)
	case d.hasInstance:
		return d.instance, nil
	case d.ctor != nil:
		instance, err = d.ctor.build(child)
	default:
		return nil, r.fail(d.Key, ErrMissingImplementation)
	}
	if err != nil {
		return nil, fmt.Errorf("container: building [%s]: %w", d.Key, err)
	}

	instance = r.c.applyExtenders(d.Key, instance)
	r.c.fireAfterResolving(d.Key, instance)
	return instance, nil
}

// inject resolves a constructor parameter or struct field. Keys nobody
// registered are left at the zero value.
func (r *resolution) inject(key string, t reflect.Type) (reflect.Value, error) {
	if t == resolverType {
		return reflect.ValueOf(Resolver(r)), nil
	}

	canonical := r.c.canonicalKey(key)
	contextual := len(r.path) > 0 && r.c.getContextual(r.path[len(r.path)-1], canonical) != nil
	if !contextual && !r.c.Bound(canonical) {
		return reflect.Zero(t), nil
	}

	v, err := r.make(key)
	if err != nil {
		return reflect.Value{}, err
	}
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, r.fail(canonical, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, rv.Type(), t))
	}
	return rv, nil
}

// tagged resolves every key under tag in this resolution's scope.
func (r *resolution) tagged(tag string) ([]any, error) {
	keys := r.c.taggedKeys(tag)
	out := make([]any, 0, len(keys))
	for _, key := range keys {
		v, err := r.make(key)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
