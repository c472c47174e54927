package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	gohttp "github.com/km-arc/go-ioc/framework/http"
)

// ErrUserNotFound matches gohttp.ErrNotFound, so handlers answer it with 404.
var ErrUserNotFound = fmt.Errorf("user %w", gohttp.ErrNotFound)

// ErrEmailTaken is returned when another user already has the email.
var ErrEmailTaken = errors.New("users: email already taken")

// Repository persists users.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Find(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

// MemoryRepository is an in-memory Repository, safe for concurrent use.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[int64]User)}
}

func (r *MemoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b User) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r *MemoryRepository) Find(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id]
	if !ok {
		return User{}, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	return u, nil
}

func (r *MemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, 0) {
		return ErrEmailTaken
	}
	r.nextID++
	u.ID = r.nextID
	r.rows[u.ID] = *u
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID]; !ok {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, u.ID)
	}
	if r.emailTaken(u.Email, u.ID) {
		return ErrEmailTaken
	}
	r.rows[u.ID] = *u
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	delete(r.rows, id)
	return nil
}

// emailTaken reports whether a user other than except has email. Caller holds mu.
func (r *MemoryRepository) emailTaken(email string, except int64) bool {
	for id, u := range r.rows {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
