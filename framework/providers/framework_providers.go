package providers

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/database"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/metrics"
	"github.com/km-arc/go-ioc/framework/routing"
)

// Keys bound by the framework providers.
var (
	ConfigKey   = container.KeyOf[*config.Config]()
	LoggerKey   = container.KeyOf[*zap.Logger]()
	DatabaseKey = container.KeyOf[*gorm.DB]()
	MetricsKey  = container.KeyOf[*metrics.Collector]()
	RouterKey   = container.KeyOf[*routing.Router]()
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration.
//
// Bound abstracts:
//   - *config.Config (KeyOf)  → the loaded configuration
//   - "config"                → alias
//
// Config is used as-is when set; otherwise it is loaded from EnvFiles and
// validated.
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->instance('config', $config = new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load(p.EnvFiles...)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := app.Instance(ConfigKey, cfg); err != nil {
		return err
	}
	return app.Alias(ConfigKey, "config")
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider registers the zap logger built from config.Log.
//
// Bound abstracts:
//   - *zap.Logger (KeyOf)  → singleton
//   - "log"                → alias
//
// Laravel equivalent:
//
//	// Illuminate\Log\LogServiceProvider
//	$app->singleton('log', fn($app) => new LogManager($app));
type LoggingServiceProvider struct {
	container.BaseProvider
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	err := app.Singleton(LoggerKey, func(cfg *config.Config) (*zap.Logger, error) {
		if cfg == nil {
			return zap.NewNop(), nil
		}
		return logging.New(cfg.Log)
	})
	if err != nil {
		return err
	}
	return app.Alias(LoggerKey, "log")
}

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider opens the gorm connection named by config.Database.
// It is deferred: nothing connects until *gorm.DB is first resolved, so an
// application running on in-memory stores never dials a database.
//
// Bound abstracts:
//   - *gorm.DB (KeyOf)  → singleton
//
// Laravel equivalent:
//
//	// Illuminate\Database\DatabaseServiceProvider
//	$app->singleton('db', fn($app) => new DatabaseManager($app, $app['db.factory']));
type DatabaseServiceProvider struct {
	container.BaseProvider
}

func (p *DatabaseServiceProvider) Register(app *container.Container) error {
	return app.Singleton(DatabaseKey, func(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
		if cfg == nil {
			return nil, errors.New("database: no configuration bound")
		}
		return database.Open(cfg.Database, logger)
	})
}

func (p *DatabaseServiceProvider) Provides() []string { return []string{DatabaseKey} }
func (p *DatabaseServiceProvider) IsDeferred() bool   { return true }

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider registers the Prometheus collector and attaches it
// to the container on Boot, so construction counts start once every
// provider is registered.
//
// Bound abstracts:
//   - *metrics.Collector (KeyOf)  → singleton
type MetricsServiceProvider struct {
	container.BaseProvider
	// Registry defaults to a fresh prometheus.Registry.
	Registry *prometheus.Registry
}

func (p *MetricsServiceProvider) Register(app *container.Container) error {
	reg := p.Registry
	return app.Singleton(MetricsKey, func() *metrics.Collector {
		return metrics.NewCollector(reg)
	})
}

func (p *MetricsServiceProvider) Boot(app *container.Container) error {
	m, err := container.Get[*metrics.Collector](app)
	if err != nil {
		return err
	}
	return m.Observe(app)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router with access logging and
// a container scope per request. When a metrics collector is bound and
// config names a metrics path, the collector is served there.
//
// Bound abstracts:
//   - *routing.Router (KeyOf)  → singleton
//   - "router"                 → alias
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	err := app.Singleton(RouterKey, func(cfg *config.Config, logger *zap.Logger, m *metrics.Collector) *routing.Router {
		if logger == nil {
			logger = zap.NewNop()
		}
		r := routing.New()
		r.Middleware(routing.AccessLog(logger), routing.ScopeMiddleware(app, logger))
		if m != nil && cfg != nil && cfg.Container.MetricsPath != "" {
			r.Handle(cfg.Container.MetricsPath, m.Handler())
		}
		return r
	})
	if err != nil {
		return err
	}
	return app.Alias(RouterKey, "router")
}
