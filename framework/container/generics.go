package container

import (
	"context"
	"fmt"
	"reflect"
)

// ── Keys ──────────────────────────────────────────────────────────────────────

// KeyOf returns the key for type T, stable across calls.
//
//	container.KeyOf[UserRepository]()  // "github.com/acme/app/users.UserRepository"
//	container.KeyOf[*zap.Logger]()     // "*go.uber.org/zap.Logger"
func KeyOf[T any]() string {
	return typeKey(reflect.TypeOf((*T)(nil)).Elem())
}

// TypeKey returns the key for v's type. A nil pointer to an interface yields
// the interface's key, so TypeKey((*UserRepository)(nil)) == KeyOf[UserRepository]().
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return typeKey(t)
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds T under KeyOf[T]() with T itself as the implementation type.
// T must be a struct or pointer to struct; fields tagged `inject` are
// auto-wired.
//
//	type UserService struct {
//	    Repo UserRepository `inject:""`
//	    Log  *zap.Logger    `inject:""`
//	}
//	container.Register[*UserService](c, container.Scoped)
func Register[T any](c *Container, lifetime Lifetime) error {
	return c.Bind(KeyOf[T](), reflect.TypeOf((*T)(nil)).Elem(), lifetime)
}

// Provide binds ctor under KeyOf[T]().
//
//	container.Provide[*UserService](c, NewUserService, container.Scoped)
func Provide[T any](c *Container, ctor any, lifetime Lifetime) error {
	return c.Bind(KeyOf[T](), ctor, lifetime)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve calls Make and type-asserts the result.
//
//	// Instead of: v, err := c.Make("db"); db := v.(*gorm.DB)
//	// Write:      db, err := container.Resolve[*gorm.DB](c, "db")
func Resolve[T any](r Resolver, key string) (T, error) {
	var zero T
	instance, err := r.Make(key)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: [%s] resolved to %T, want %s", ErrTypeMismatch, key, instance, KeyOf[T]())
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error.
func MustResolve[T any](r Resolver, key string) T {
	v, err := Resolve[T](r, key)
	if err != nil {
		panic(err)
	}
	return v
}

// Get resolves T registered under KeyOf[T]().
func Get[T any](r Resolver) (T, error) {
	return Resolve[T](r, KeyOf[T]())
}

// MustGet is Get that panics on error.
func MustGet[T any](r Resolver) T {
	return MustResolve[T](r, KeyOf[T]())
}

// FromContext resolves key from the scope carried by ctx. Without a scope it
// fails with ErrNoActiveScope.
func FromContext[T any](ctx context.Context, key string) (T, error) {
	s, ok := ScopeFrom(ctx)
	if !ok {
		var zero T
		return zero, &ResolutionError{Key: key, Path: []string{key}, Err: ErrNoActiveScope}
	}
	return Resolve[T](s, key)
}
