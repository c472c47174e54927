package users

import (
	"strings"

	"gorm.io/gorm"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/routing"
)

// Keys bound by Provider.
var (
	RepositoryKey = container.KeyOf[Repository]()
	ClockKey      = container.KeyOf[Clock]()
	ServiceKey    = container.KeyOf[*Service]()
)

// Prefix is where the resource is mounted.
const (
	apiPrefix = "/api"
	Prefix    = apiPrefix + "/users"
)

// Provider binds the users module and mounts its routes.
//
//	Repository  → singleton, in memory or on the configured database
//	Clock       → transient
//	*Service    → scoped, one per request
type Provider struct {
	container.BaseProvider
	// Repository replaces the in-memory store when set.
	Repository Repository
}

func (p *Provider) Register(app *container.Container) error {
	if p.Repository != nil {
		if err := app.Instance(RepositoryKey, p.Repository); err != nil {
			return err
		}
	} else if err := app.Singleton(RepositoryKey, newRepository); err != nil {
		return err
	}
	if err := app.Bind(ClockKey, func() Clock { return SystemClock{} }, container.Transient); err != nil {
		return err
	}
	if err := container.Provide[*Service](app, NewService, container.Scoped); err != nil {
		return err
	}
	return app.Alias(ServiceKey, "users")
}

// newRepository picks the store from config.Database. The database binding is
// only resolved when one is configured.
func newRepository(cfg *config.Config, r container.Resolver) (Repository, error) {
	if cfg == nil || cfg.Database.InMemory() {
		return NewMemoryRepository(), nil
	}
	db, err := container.Get[*gorm.DB](r)
	if err != nil {
		return nil, err
	}
	return NewGormRepository(db)
}

func (p *Provider) Boot(app *container.Container) error {
	r, err := container.Get[*routing.Router](app)
	if err != nil {
		return err
	}
	var debug bool
	if cfg, err := container.Get[*config.Config](app); err == nil && cfg != nil {
		debug = cfg.App.Debug
	}
	ctrl := &Controller{Debug: debug}
	r.Prefix(apiPrefix, func(api *routing.Router) {
		api.Resource(strings.TrimPrefix(Prefix, apiPrefix), ctrl)
	})
	return nil
}
