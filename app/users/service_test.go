package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/km-arc/go-ioc/app/users"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/http/validation"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// newScope registers the users module on a bare container with a fixed
// clock and opens a scope for the test.
func newScope(t *testing.T) (*container.Container, *container.Scope) {
	t.Helper()
	c := container.New()
	if err := (&users.Provider{}).Register(c); err != nil {
		t.Fatal(err)
	}
	if err := c.Instance(users.ClockKey, users.Clock(fixedClock{epoch})); err != nil {
		t.Fatal(err)
	}
	s := c.NewScope()
	t.Cleanup(func() { _ = s.Close() })
	return c, s
}

func service(t *testing.T, s *container.Scope) *users.Service {
	t.Helper()
	svc, err := container.Resolve[*users.Service](s, users.ServiceKey)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestService_ScopedPerScope(t *testing.T) {
	c, s := newScope(t)

	a := service(t, s)
	if b := service(t, s); a != b {
		t.Error("same scope should return the same service")
	}

	other := c.NewScope()
	defer other.Close()
	if b := service(t, other); a == b {
		t.Error("different scopes should get different services")
	}

	// Outside any scope the service cannot be built.
	if _, err := c.Make(users.ServiceKey); !errors.Is(err, container.ErrNoActiveScope) {
		t.Errorf("root Make: got %v want ErrNoActiveScope", err)
	}
}

func TestService_RepositoryIsShared(t *testing.T) {
	c, s := newScope(t)
	ctx := context.Background()

	if _, err := service(t, s).Create(ctx, users.CreateUser{Name: "Ada", Email: "ada@example.com", Age: 36}); err != nil {
		t.Fatal(err)
	}

	other := c.NewScope()
	defer other.Close()
	list, err := service(t, other).List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "Ada" {
		t.Errorf("List from another scope: got %+v", list)
	}
}

func TestService_Create(t *testing.T) {
	_, s := newScope(t)
	svc := service(t, s)

	u, err := svc.Create(context.Background(), users.CreateUser{Name: "Ada", Email: "ada@example.com", Age: 36})
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 1 {
		t.Errorf("ID: got %d want 1", u.ID)
	}
	if !u.CreatedAt.Equal(epoch) || !u.UpdatedAt.Equal(epoch) {
		t.Errorf("timestamps should come from the bound clock, got %v / %v", u.CreatedAt, u.UpdatedAt)
	}
	if got := svc.Changed(); len(got) != 1 || got[0] != 1 {
		t.Errorf("Changed: got %v want [1]", got)
	}
}

func TestService_Create_Validation(t *testing.T) {
	_, s := newScope(t)

	_, err := service(t, s).Create(context.Background(), users.CreateUser{Name: "A", Email: "nope", Age: 12})
	bag, ok := validation.FromError(err)
	if !ok {
		t.Fatalf("expected a validation error, got %v", err)
	}
	for _, field := range []string{"name", "email", "age"} {
		if bag.First(field) == "" {
			t.Errorf("expected an error for %q, bag: %v", field, bag.Bag)
		}
	}
}

func TestService_Create_EmailTaken(t *testing.T) {
	_, s := newScope(t)
	svc := service(t, s)
	ctx := context.Background()

	if _, err := svc.Create(ctx, users.CreateUser{Name: "Ada", Email: "ada@example.com", Age: 36}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, users.CreateUser{Name: "Other", Email: "ADA@example.com", Age: 40})
	bag, ok := validation.FromError(err)
	if !ok {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if got := bag.First("email"); got != "The email has already been taken." {
		t.Errorf("email error: got %q", got)
	}
}

func TestService_Update(t *testing.T) {
	_, s := newScope(t)
	svc := service(t, s)
	ctx := context.Background()

	u, _ := svc.Create(ctx, users.CreateUser{Name: "Ada", Email: "ada@example.com", Age: 36})

	name := "Ada Lovelace"
	got, err := svc.Update(ctx, u.ID, users.UpdateUser{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != name || got.Email != "ada@example.com" || got.Age != 36 {
		t.Errorf("only Name should change, got %+v", got)
	}

	age := 3
	if _, err := svc.Update(ctx, u.ID, users.UpdateUser{Age: &age}); err == nil {
		t.Error("expected age validation to fail")
	}
}

func TestService_NotFound(t *testing.T) {
	_, s := newScope(t)
	svc := service(t, s)
	ctx := context.Background()

	if _, err := svc.Find(ctx, 42); !errors.Is(err, users.ErrUserNotFound) || !errors.Is(err, gohttp.ErrNotFound) {
		t.Errorf("Find: got %v want ErrUserNotFound", err)
	}
	if err := svc.Delete(ctx, 42); !errors.Is(err, gohttp.ErrNotFound) {
		t.Errorf("Delete: got %v want ErrNotFound", err)
	}
}

func TestService_Delete(t *testing.T) {
	_, s := newScope(t)
	svc := service(t, s)
	ctx := context.Background()

	u, _ := svc.Create(ctx, users.CreateUser{Name: "Ada", Email: "ada@example.com", Age: 36})
	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Find(ctx, u.ID); !errors.Is(err, users.ErrUserNotFound) {
		t.Errorf("Find after Delete: got %v", err)
	}
}

func TestProvider_CustomRepository(t *testing.T) {
	repo := users.NewMemoryRepository()
	c := container.New()
	if err := (&users.Provider{Repository: repo}).Register(c); err != nil {
		t.Fatal(err)
	}
	got, err := container.Resolve[users.Repository](c, users.RepositoryKey)
	if err != nil {
		t.Fatal(err)
	}
	if got != users.Repository(repo) {
		t.Error("Provider should bind the given repository")
	}
}
