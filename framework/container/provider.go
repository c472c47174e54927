package container

import (
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Every provider must implement at minimum Register().
// Boot() is called after ALL providers have been registered, making it safe
// to resolve other bindings inside Boot().
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton(container.KeyOf[*Mailer](), NewMailer)
//	}
//
//	func (p *AppServiceProvider) Boot(app *container.Container) error {
//	    log, err := container.Get[*zap.Logger](app)
//	    if err != nil {
//	        return err
//	    }
//	    log.Info("application booted")
//	    return nil
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here — use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	// Safe to resolve and use any binding here.
	Boot(app *Container) error

	// Provides returns the keys this provider registers.
	// Used for deferred (lazy) provider loading.
	//
	//	// Laravel: public function provides(): array { return [Cache::class]; }
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily —
	// only when one of its Provides() keys is first resolved.
	//
	//	// Laravel: protected $defer = true;
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
//
// It mirrors the behaviour of Laravel's Application::registerConfiguredProviders
// and Application::bootProviders.
type ProviderRegistry struct {
	app *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // key → provider
	loading    map[ServiceProvider]*deferredLoad
	booted     bool
	registered map[ServiceProvider]bool
}

// deferredLoad runs a deferred provider's Register/Boot exactly once; other
// lookups for its keys wait for it.
type deferredLoad struct {
	once sync.Once
	err  error
}

// NewProviderRegistry creates a registry bound to app. Lookups of keys owned
// by deferred providers load those providers on demand.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	r := &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loading:    make(map[ServiceProvider]*deferredLoad),
		registered: make(map[ServiceProvider]bool),
	}
	app.mu.Lock()
	app.loader = r
	app.mu.Unlock()
	return r
}

// Register adds a provider and calls its Register() method (unless deferred).
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, key := range provider.Provides() {
			r.deferred[key] = provider
		}
		r.mu.Unlock()
		return nil
	}

	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("registering %T: %w", provider, err)
	}
	// If already booted, boot this provider immediately
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("booting %T: %w", provider, err)
		}
	}
	return nil
}

func (r *ProviderRegistry) provides(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.deferred[key]
	return ok
}

// load registers (and boots, once the registry has booted) the deferred
// provider owning key.
func (r *ProviderRegistry) load(key string) (bool, error) {
	r.mu.Lock()
	provider, ok := r.deferred[key]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	l, ok := r.loading[provider]
	if !ok {
		l = &deferredLoad{}
		r.loading[provider] = l
	}
	r.mu.Unlock()

	l.once.Do(func() {
		defer func() {
			r.mu.Lock()
			for _, k := range provider.Provides() {
				delete(r.deferred, k)
			}
			delete(r.loading, provider)
			r.mu.Unlock()
		}()
		if err := provider.Register(r.app); err != nil {
			l.err = fmt.Errorf("registering deferred %T: %w", provider, err)
			return
		}
		if r.Booted() {
			if err := provider.Boot(r.app); err != nil {
				l.err = fmt.Errorf("booting deferred %T: %w", provider, err)
			}
		}
	})
	return l.err == nil, l.err
}

func (r *ProviderRegistry) forget(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.deferred[key]
	delete(r.deferred, key)
	return ok
}

// reset drops the pending deferred providers; they may be registered again.
func (r *ProviderRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, provider := range r.deferred {
		delete(r.registered, provider)
	}
	r.deferred = make(map[string]ServiceProvider)
	r.loading = make(map[ServiceProvider]*deferredLoad)
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("booting %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
