package container

import (
	"fmt"
	"reflect"
	"strings"
)

// Factory builds a service. The Resolver it receives is bound to the scope
// the resolution started in, so scoped dependencies stay scope-local.
//
//	c.BindFactory("mailer", func(r container.Resolver) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](r, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return mail.NewSMTP(cfg.Mail), nil
//	}, container.Singleton)
type Factory func(r Resolver) (any, error)

// Resolver is anything services can be resolved from: the root container,
// a Scope, or the in-flight resolution handed to a Factory.
type Resolver interface {
	Make(key string) (any, error)
}

// Descriptor binds a key to a lifetime and exactly one construction source.
// Precedence when building is factory, then instance, then constructor.
type Descriptor struct {
	Key      string
	Lifetime Lifetime

	factory     Factory
	instance    any
	hasInstance bool
	ctor        *constructor
}

// Source names the descriptor's construction source.
func (d *Descriptor) Source() string {
	switch {
	case d.factory != nil:
		return "factory"
	case d.hasInstance:
		return "instance"
	case d.ctor != nil && d.ctor.fn.IsValid():
		return "constructor"
	case d.ctor != nil:
		return "type"
	default:
		return "none"
	}
}

// newDescriptor validates impl and turns it into a descriptor.
func newDescriptor(key string, impl any, lifetime Lifetime) (*Descriptor, error) {
	d := &Descriptor{Key: key, Lifetime: lifetime}
	switch v := impl.(type) {
	case nil:
	case Factory:
		d.factory = v
	case func(Resolver) (any, error):
		d.factory = v
	default:
		ctor, err := newConstructor(impl)
		if err != nil {
			return nil, fmt.Errorf("%w [%s]: %v", ErrInvalidConstructor, key, err)
		}
		d.ctor = ctor
	}
	return d, nil
}

// ── Constructors ──────────────────────────────────────────────────────────────

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	resolverType = reflect.TypeOf((*Resolver)(nil)).Elem()
)

// constructor is either a function whose parameters are resolved by type, or
// a struct type whose `inject` fields are resolved by key.
type constructor struct {
	fn         reflect.Value
	params     []reflect.Type
	returnsErr bool

	structType reflect.Type
	pointer    bool
	fields     []injectField
}

type injectField struct {
	index int
	key   string
	typ   reflect.Type
}

func newConstructor(impl any) (*constructor, error) {
	if t, ok := impl.(reflect.Type); ok {
		return newTypeConstructor(t)
	}

	fn := reflect.ValueOf(impl)
	ft := fn.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("want a constructor func or reflect.Type, got %s", ft)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic constructor %s", ft)
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("second return value of %s must be error", ft)
		}
	default:
		return nil, fmt.Errorf("constructor %s must return T or (T, error)", ft)
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	return &constructor{fn: fn, params: params, returnsErr: ft.NumOut() == 2}, nil
}

func newTypeConstructor(t reflect.Type) (*constructor, error) {
	if t == nil {
		return nil, fmt.Errorf("nil implementation type")
	}
	k := &constructor{structType: t}
	if t.Kind() == reflect.Pointer {
		k.pointer = true
		k.structType = t.Elem()
	}
	if k.structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("implementation type %s is not a struct", t)
	}

	for i := 0; i < k.structType.NumField(); i++ {
		f := k.structType.Field(i)
		tag, ok := f.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("field %s.%s is tagged inject but unexported", k.structType, f.Name)
		}
		key := strings.TrimSpace(tag)
		if key == "" {
			key = typeKey(f.Type)
		}
		k.fields = append(k.fields, injectField{index: i, key: key, typ: f.Type})
	}
	return k, nil
}

// build calls the constructor, resolving each dependency through r.
func (k *constructor) build(r *resolution) (any, error) {
	if k.fn.IsValid() {
		args := make([]reflect.Value, len(k.params))
		for i, p := range k.params {
			v, err := r.inject(typeKey(p), p)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		out := k.fn.Call(args)
		if k.returnsErr && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}

	ptr := reflect.New(k.structType)
	for _, f := range k.fields {
		v, err := r.inject(f.key, f.typ)
		if err != nil {
			return nil, err
		}
		ptr.Elem().Field(f.index).Set(v)
	}
	if k.pointer {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

// ── Keys ──────────────────────────────────────────────────────────────────────

// typeKey returns the stable key for a Go type: "pkg/path.Name" for named
// types, "*pkg/path.Name" for pointers to them, the type's string otherwise.
func typeKey(t reflect.Type) string {
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		return "*" + typeKey(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
