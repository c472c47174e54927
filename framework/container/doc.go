// Package container provides a Laravel-style IoC (Inversion of Control)
// container and Service Provider system for Go, with singleton, scoped and
// transient lifetimes.
//
// # Overview
//
// The container maps string keys to descriptors: a construction source
// (factory, pre-built instance, or constructor) plus a Lifetime. Resolving a
// key builds the object graph recursively, honouring each dependency's own
// lifetime. Keys are plain strings; KeyOf[T]() derives one from a Go type.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        — safe to resolve everything after this
//  4. Serve requests, one Scope per request
//
// # Bindings
//
//	// Transient — new instance every Make()
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("Foo", NewFoo, container.Transient)
//
//	// Singleton — created once, reused
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.Singleton(container.KeyOf[*RedisCache](), cache.NewRedis)
//
//	// Scoped: created once per Scope
//	// Laravel: $app->scoped(Transaction::class, ...)
//	c.Scoped(container.KeyOf[*UnitOfWork](), NewUnitOfWork)
//
//	// Explicit factory
//	c.BindFactory("mailer", func(r container.Resolver) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](r, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return mail.NewSMTP(cfg.Mail), nil
//	}, container.Singleton)
//
//	// Pre-built value
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
//
// # Auto-wiring
//
// Constructor parameters and struct fields tagged `inject` are resolved by
// the key of their type. Parameters nobody registered receive their zero
// value. A parameter of type Resolver receives the resolver in use.
//
//	func NewUserService(repo UserRepository, log *zap.Logger) *UserService
//
//	c.Singleton(container.KeyOf[UserRepository](), NewMemoryUserRepository)
//	c.Scoped(container.KeyOf[*UserService](), NewUserService)
//
// # Resolving
//
//	raw, err := c.Make("cache")
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//	svc, err := container.Get[*UserService](scope)
//
// # Scopes
//
// Scoped services need a Scope. Scopes are handles, not global state, so any
// number may be open at once; the router opens one per request and carries
// it in the request context.
//
//	scope := c.NewScope()
//	defer scope.Close()
//	svc, err := container.Get[*UserService](scope)
//
//	ctx = container.WithScope(ctx, scope)
//	svc, err = container.FromContext[*UserService](ctx, container.KeyOf[*UserService]())
//
// # Re-registration
//
// WithRebindPolicy chooses what binding an already-bound key does:
// RebindOverwrite (default) replaces the descriptor but keeps a cached
// singleton, RebindRefresh also drops the cached singleton, RebindReject
// returns ErrAlreadyRegistered.
//
// # Contextual Binding
//
//	// Laravel: $app->when(PhotoController::class)
//	//              ->needs(Filesystem::class)
//	//              ->give(fn() => new S3Filesystem)
//	c.When("PhotoController").
//	    Needs("Filesystem").
//	    Give(func(r container.Resolver) (any, error) { return &S3Filesystem{}, nil })
//
// # Tags
//
//	// Laravel: $app->tag([CpuReport::class, MemReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemReport"}, "reports")
//	reports, err := c.Tagged("reports")
//
// # Extend / Decorate
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, r container.Resolver) any {
//	    return &TimestampLogger{Inner: instance.(*Logger)}
//	})
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton("mailer", NewMailer)
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    return app.Singleton("heavy", newHeavy) // only called on first Make("heavy")
//	}
//
// # Errors
//
// Resolution failures are returned, never logged: ErrServiceNotRegistered,
// ErrNoActiveScope (and ErrScopeClosed), ErrMissingImplementation,
// ErrCircularDependency, ErrTypeMismatch. Match them with errors.Is.
package container
