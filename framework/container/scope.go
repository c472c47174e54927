package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Scope is a lifetime boundary for Scoped services, typically one HTTP
// request. Scoped instances are cached per Scope and discarded on Close.
// Scopes are independent handles: any number may be open at once.
type Scope struct {
	id   string
	root *Container

	mu     sync.Mutex
	cells  map[string]*cell
	order  []string
	closed bool
}

// NewScope opens a scope with a generated id.
func (c *Container) NewScope() *Scope {
	for {
		s, err := c.BeginScope(uuid.NewString())
		if err == nil {
			return s
		}
	}
}

// BeginScope opens a scope with the given id; an empty id is generated.
// Opening an id that is already open fails with ErrScopeActive.
func (c *Container) BeginScope(id string) (*Scope, error) {
	if id == "" {
		id = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scopes[id]; ok {
		return nil, fmt.Errorf("%w [%s]", ErrScopeActive, id)
	}
	s := &Scope{id: id, root: c, cells: make(map[string]*cell)}
	c.scopes[id] = s
	return s, nil
}

// ActiveScopes returns the number of open scopes.
func (c *Container) ActiveScopes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scopes)
}

// Scope returns the open scope with the given id.
func (c *Container) Scope(id string) (*Scope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scopes[id]
	return s, ok
}

func (c *Container) openScopesLocked() []*Scope {
	out := make([]*Scope, 0, len(c.scopes))
	for _, s := range c.scopes {
		out = append(out, s)
	}
	return out
}

// ID returns the scope's identifier.
func (s *Scope) ID() string { return s.id }

// Container returns the container the scope belongs to.
func (s *Scope) Container() *Container { return s.root }

// Make resolves key inside the scope.
func (s *Scope) Make(key string) (any, error) {
	if s.isClosed() {
		return nil, &ResolutionError{Key: key, Path: []string{key}, Err: ErrScopeClosed}
	}
	return (&resolution{c: s.root, scope: s}).make(key)
}

// MustMake is Make that panics on error.
func (s *Scope) MustMake(key string) any {
	v, err := s.Make(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Tagged resolves all keys under tag inside the scope.
func (s *Scope) Tagged(tag string) ([]any, error) {
	if s.isClosed() {
		return nil, ErrScopeClosed
	}
	return (&resolution{c: s.root, scope: s}).tagged(tag)
}

// Close ends the scope and discards its cache. Cached instances that
// implement io.Closer are closed in reverse creation order.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrScopeClosed
	}
	s.closed = true
	cells, order := s.cells, s.order
	s.cells, s.order = nil, nil
	s.mu.Unlock()

	s.root.mu.Lock()
	if s.root.scopes[s.id] == s {
		delete(s.root.scopes, s.id)
	}
	s.root.mu.Unlock()

	return closeCells(cells, order)
}

// closeCells closes the ready io.Closer values in cells, last created first.
func closeCells(cells map[string]*cell, order []string) error {
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		cl, ok := cells[order[i]]
		if !ok {
			continue
		}
		cl.mu.Lock()
		v, ready := cl.value, cl.ready
		cl.mu.Unlock()
		if !ready {
			continue
		}
		if closer, ok := v.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing [%s]: %w", order[i], err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Scope) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Scope) cell(key string) (*cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrScopeClosed
	}
	cl, ok := s.cells[key]
	if !ok {
		cl = &cell{}
		s.cells[key] = cl
		s.order = append(s.order, key)
	}
	return cl, nil
}

func (s *Scope) forget(key string) error {
	s.mu.Lock()
	cl, ok := s.cells[key]
	delete(s.cells, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return closeCells(map[string]*cell{key: cl}, []string{key})
}

func (s *Scope) reset() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	cells, order := s.cells, s.order
	s.cells = make(map[string]*cell)
	s.order = nil
	s.mu.Unlock()
	return closeCells(cells, order)
}

// ── Context ───────────────────────────────────────────────────────────────────

type scopeKey struct{}

// WithScope returns a copy of ctx carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the scope carried by ctx.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}
