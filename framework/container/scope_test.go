package container_test

import (
	"context"
	"errors"
	"testing"

	"github.com/km-arc/go-ioc/framework/container"
)

type unitOfWork struct {
	closed bool
	log    *[]string
	name   string
}

func (u *unitOfWork) Close() error {
	u.closed = true
	if u.log != nil {
		*u.log = append(*u.log, u.name)
	}
	return nil
}

type brokenCloser struct{}

var errClose = errors.New("close failed")

func (brokenCloser) Close() error { return errClose }

// ── Scoped identity ───────────────────────────────────────────────────────────

func TestScope_SameInstanceWithinScope(t *testing.T) {
	c := container.New()
	_ = c.Scoped("uow", func() *unitOfWork { return &unitOfWork{} })

	s := c.NewScope()
	defer s.Close()

	a := mustMake(t, s, "uow")
	b := mustMake(t, s, "uow")
	if a != b {
		t.Error("scoped service should be shared within a scope")
	}
}

func TestScope_DistinctAcrossScopes(t *testing.T) {
	c := container.New()
	_ = c.Scoped("uow", func() *unitOfWork { return &unitOfWork{} })

	s1 := c.NewScope()
	defer s1.Close()
	s2 := c.NewScope()
	defer s2.Close()

	if mustMake(t, s1, "uow") == mustMake(t, s2, "uow") {
		t.Error("different scopes should build different instances")
	}
	if c.ActiveScopes() != 2 {
		t.Errorf("ActiveScopes: got %d want 2", c.ActiveScopes())
	}
}

func TestScope_SingletonSharedAcrossScopes(t *testing.T) {
	c := container.New()
	_ = c.Singleton(loggerKey, NewLogger)

	s1 := c.NewScope()
	defer s1.Close()
	s2 := c.NewScope()
	defer s2.Close()

	root := mustMake(t, c, loggerKey)
	if mustMake(t, s1, loggerKey) != root || mustMake(t, s2, loggerKey) != root {
		t.Error("singleton should be the same in every scope and at the root")
	}
}

func TestScope_TransientDistinctWithinScope(t *testing.T) {
	c := container.New()
	_ = c.Bind(loggerKey, NewLogger, container.Transient)

	s := c.NewScope()
	defer s.Close()
	if mustMake(t, s, loggerKey) == mustMake(t, s, loggerKey) {
		t.Error("transient should be distinct even within one scope")
	}
}

func TestScope_TransientSeesScopedDependency(t *testing.T) {
	c := container.New()
	_ = c.Scoped(loggerKey, NewLogger)
	_ = c.Bind(serviceKey, NewService, container.Transient)

	s := c.NewScope()
	defer s.Close()

	svc := mustMake(t, s, serviceKey).(*Service)
	if svc.Log != mustMake(t, s, loggerKey) {
		t.Error("transient service should receive the scope's logger")
	}
}

func TestScope_SingletonCannotCaptureScoped(t *testing.T) {
	c := container.New()
	_ = c.Scoped(loggerKey, NewLogger)
	_ = c.Singleton(serviceKey, NewService)

	s := c.NewScope()
	defer s.Close()

	_, err := s.Make(serviceKey)
	if !errors.Is(err, container.ErrNoActiveScope) {
		t.Errorf("got %v want ErrNoActiveScope", err)
	}
}

// ── Close ─────────────────────────────────────────────────────────────────────

func TestScope_CloseDiscardsCache(t *testing.T) {
	c := container.New()
	_ = c.Scoped("uow", func() *unitOfWork { return &unitOfWork{} })

	s, err := c.BeginScope("req-1")
	if err != nil {
		t.Fatal(err)
	}
	first := mustMake(t, s, "uow")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Make("uow"); !errors.Is(err, container.ErrScopeClosed) {
		t.Errorf("Make after Close: got %v want ErrScopeClosed", err)
	}
	if _, err := s.Make("uow"); !errors.Is(err, container.ErrNoActiveScope) {
		t.Errorf("ErrScopeClosed should match ErrNoActiveScope, got %v", err)
	}

	// Re-entering the same id starts from an empty cache.
	again, err := c.BeginScope("req-1")
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	if mustMake(t, again, "uow") == first {
		t.Error("a new scope with the same id must not reuse the old instance")
	}
}

func TestScope_CloseDisposesInReverseOrder(t *testing.T) {
	c := container.New()
	var closed []string
	_ = c.Scoped("a", func() *unitOfWork { return &unitOfWork{name: "a", log: &closed} })
	_ = c.Scoped("b", func() *unitOfWork { return &unitOfWork{name: "b", log: &closed} })

	s := c.NewScope()
	mustMake(t, s, "a")
	mustMake(t, s, "b")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if len(closed) != 2 || closed[0] != "b" || closed[1] != "a" {
		t.Errorf("close order: got %v want [b a]", closed)
	}
}

func TestScope_CloseJoinsErrors(t *testing.T) {
	c := container.New()
	_ = c.Scoped("broken", func() brokenCloser { return brokenCloser{} })

	s := c.NewScope()
	mustMake(t, s, "broken")

	if err := s.Close(); !errors.Is(err, errClose) {
		t.Errorf("got %v want errClose", err)
	}
	if c.ActiveScopes() != 0 {
		t.Error("a scope is inactive after Close even when a closer fails")
	}
}

func TestScope_CloseTwice(t *testing.T) {
	c := container.New()
	s := c.NewScope()
	_ = s.Close()
	if err := s.Close(); !errors.Is(err, container.ErrScopeClosed) {
		t.Errorf("second Close: got %v want ErrScopeClosed", err)
	}
}

func TestScope_SingletonsNotClosedWithScope(t *testing.T) {
	c := container.New()
	_ = c.Singleton("shared", func() *unitOfWork { return &unitOfWork{} })

	s := c.NewScope()
	u := mustMake(t, s, "shared").(*unitOfWork)
	_ = s.Close()
	if u.closed {
		t.Error("closing a scope must not close singletons")
	}
}

// ── Scope ids ─────────────────────────────────────────────────────────────────

func TestScope_BeginScope_DuplicateID(t *testing.T) {
	c := container.New()
	s, err := c.BeginScope("req-1")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := c.BeginScope("req-1"); !errors.Is(err, container.ErrScopeActive) {
		t.Errorf("got %v want ErrScopeActive", err)
	}
	if got, ok := c.Scope("req-1"); !ok || got != s {
		t.Error("Scope(id) should return the open scope")
	}
}

func TestScope_GeneratedIDs(t *testing.T) {
	c := container.New()
	s1 := c.NewScope()
	defer s1.Close()
	s2, _ := c.BeginScope("")
	defer s2.Close()

	if s1.ID() == "" || s2.ID() == "" || s1.ID() == s2.ID() {
		t.Errorf("generated ids should be unique and non-empty: %q %q", s1.ID(), s2.ID())
	}
	if s1.Container() != c {
		t.Error("Container() should return the root")
	}
}

// ── Forget / Flush with open scopes ───────────────────────────────────────────

func TestScope_ForgetDropsScopedInstance(t *testing.T) {
	c := container.New()
	_ = c.Scoped("uow", func() *unitOfWork { return &unitOfWork{} })
	s := c.NewScope()
	defer s.Close()
	first := mustMake(t, s, "uow")

	c.Forget("uow")
	_ = c.Scoped("uow", func() *unitOfWork { return &unitOfWork{} })

	if mustMake(t, s, "uow") == first {
		t.Error("Forget should drop the scope-cached instance")
	}
	if !first.(*unitOfWork).closed {
		t.Error("Forget should close the dropped instance")
	}
}

func TestScope_FlushClosesScopedInstances(t *testing.T) {
	c := container.New()
	var closed []string
	_ = c.Scoped("a", func() *unitOfWork { return &unitOfWork{log: &closed, name: "a"} })
	_ = c.Scoped("b", func() *unitOfWork { return &unitOfWork{log: &closed, name: "b"} })
	_ = c.Scoped("broken", func() brokenCloser { return brokenCloser{} })

	s := c.NewScope()
	defer s.Close()
	mustMake(t, s, "a")
	mustMake(t, s, "b")
	mustMake(t, s, "broken")

	if err := c.Flush(); !errors.Is(err, errClose) {
		t.Errorf("Flush: got %v want errClose", err)
	}
	if len(closed) != 2 || closed[0] != "b" || closed[1] != "a" {
		t.Errorf("close order: got %v want [b a]", closed)
	}
	if c.ActiveScopes() != 1 {
		t.Error("Flush should leave open scopes open")
	}
}

// ── Context ───────────────────────────────────────────────────────────────────

func TestScope_Context(t *testing.T) {
	c := container.New()
	_ = c.Scoped(loggerKey, NewLogger)

	if _, ok := container.ScopeFrom(context.Background()); ok {
		t.Error("background context carries no scope")
	}
	if _, err := container.FromContext[*Logger](context.Background(), loggerKey); !errors.Is(err, container.ErrNoActiveScope) {
		t.Errorf("got %v want ErrNoActiveScope", err)
	}

	s := c.NewScope()
	defer s.Close()
	ctx := container.WithScope(context.Background(), s)

	got, ok := container.ScopeFrom(ctx)
	if !ok || got != s {
		t.Fatal("ScopeFrom should return the carried scope")
	}
	l, err := container.FromContext[*Logger](ctx, loggerKey)
	if err != nil {
		t.Fatal(err)
	}
	if l != mustMake(t, s, loggerKey) {
		t.Error("FromContext should resolve inside the carried scope")
	}
}

func TestScope_Tagged(t *testing.T) {
	c := container.New()
	_ = c.Scoped("a", func() *unitOfWork { return &unitOfWork{} })
	c.Tag([]string{"a"}, "units")

	if _, err := c.Tagged("units"); !errors.Is(err, container.ErrNoActiveScope) {
		t.Errorf("root Tagged: got %v want ErrNoActiveScope", err)
	}

	s := c.NewScope()
	defer s.Close()
	units, err := s.Tagged("units")
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 || units[0] != mustMake(t, s, "a") {
		t.Errorf("scope Tagged: got %v", units)
	}
}
