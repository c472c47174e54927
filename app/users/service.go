package users

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/http/validation"
)

// Clock tells the service the time. Bound transient.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Service holds the users business rules. One Service is built per request
// scope; it records what the request changed so the controller can log it
// once the response is written.
type Service struct {
	repo  Repository
	clock Clock
	log   *zap.Logger

	changed []int64
}

// NewService is the auto-wired constructor; a missing logger becomes a no-op.
func NewService(repo Repository, clock Clock, log *zap.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, clock: clock, log: log}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Find(ctx context.Context, id int64) (User, error) {
	return s.repo.Find(ctx, id)
}

// Create validates in and stores a new user.
func (s *Service) Create(ctx context.Context, in CreateUser) (User, error) {
	if err := validation.Struct(&in).Err(); err != nil {
		return User{}, err
	}
	now := s.clock.Now()
	u := User{Name: in.Name, Email: in.Email, Age: in.Age, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, &u); err != nil {
		return User{}, emailTaken(err)
	}
	s.changed = append(s.changed, u.ID)
	s.log.Debug("user created", zap.Int64("id", u.ID))
	return u, nil
}

// Update validates in and applies its non-nil fields to user id.
func (s *Service) Update(ctx context.Context, id int64, in UpdateUser) (User, error) {
	if err := validation.Struct(&in).Err(); err != nil {
		return User{}, err
	}
	u, err := s.repo.Find(ctx, id)
	if err != nil {
		return User{}, err
	}
	in.apply(&u)
	u.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, &u); err != nil {
		return User{}, emailTaken(err)
	}
	s.changed = append(s.changed, u.ID)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed = append(s.changed, id)
	return nil
}

// Changed returns the ids this request created, updated or deleted.
func (s *Service) Changed() []int64 { return s.changed }

// Close logs the request's changes; it runs when the request scope closes.
func (s *Service) Close() error {
	if len(s.changed) > 0 {
		s.log.Info("users changed", zap.Int64s("ids", s.changed))
	}
	return nil
}

func emailTaken(err error) error {
	if errors.Is(err, ErrEmailTaken) {
		return &validation.Errors{Bag: map[string][]string{
			"email": {"The email has already been taken."},
		}}
	}
	return err
}
