package container

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Extender decorates a freshly built instance.
type Extender func(instance any, r Resolver) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the service registry — mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Scoped / Instance / BindFactory / Alias
//   - Make (untyped) and Resolve / Get (generic)
//   - Scopes (one cache per request or unit of work)
//   - Tags (group multiple keys under one tag)
//   - Extend (decorate built instances)
//   - Contextual binding (when A needs B, give it C)
//   - Rebound and resolved callbacks
//
// A Container is safe for concurrent use.
type Container struct {
	mu     sync.RWMutex
	policy RebindPolicy

	// key → descriptor
	descriptors map[string]*Descriptor

	// key → singleton cache slot
	singletons map[string]*cell

	// alias → key (canonical)
	aliases map[string]string

	// key → extenders
	extenders map[string][]Extender

	// tag → []key
	tags map[string][]string

	// contextual: when[concrete][abstract] = factory
	contextual map[string]map[string]Factory

	// rebound callbacks: key → []func(Binding)
	reboundCallbacks map[string][]func(Binding)

	// resolved callbacks: []func(key, instance)
	afterResolving []func(string, any)

	// scope id → open scope
	scopes map[string]*Scope

	// loads deferred providers on first lookup
	loader deferredLoader
}

// deferredLoader registers the provider owning key, if there is one.
type deferredLoader interface {
	provides(key string) bool
	load(key string) (bool, error)
	// forget stops key from loading its provider and reports whether it would have.
	forget(key string) bool
	// reset drops every pending deferred provider.
	reset()
}

// Option configures a Container.
type Option func(*Container)

// WithRebindPolicy sets what registering an already-bound key does.
func WithRebindPolicy(p RebindPolicy) Option {
	return func(c *Container) { c.policy = p }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		descriptors:      make(map[string]*Descriptor),
		singletons:       make(map[string]*cell),
		aliases:          make(map[string]string),
		extenders:        make(map[string][]Extender),
		tags:             make(map[string][]string),
		contextual:       make(map[string]map[string]Factory),
		reboundCallbacks: make(map[string][]func(Binding)),
		scopes:           make(map[string]*Scope),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the container's rebind policy.
func (c *Container) Policy() RebindPolicy { return c.policy }

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers impl under key with the given lifetime. impl is a
// constructor func (T or (T, error), parameters auto-wired by type), a
// reflect.Type of a struct whose `inject` fields are auto-wired, a Factory,
// or nil.
//
//	// Laravel: $app->bind(UserRepository::class, EloquentUserRepository::class)
//	c.Bind(container.KeyOf[UserRepository](), NewSQLUserRepository, container.Transient)
func (c *Container) Bind(key string, impl any, lifetime Lifetime) error {
	d, err := newDescriptor(key, impl, lifetime)
	if err != nil {
		return err
	}
	return c.store(d, nil)
}

// Singleton registers impl as a service built once and shared.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.Singleton("cache", cache.NewRedis)
func (c *Container) Singleton(key string, impl any) error {
	return c.Bind(key, impl, Singleton)
}

// Scoped registers impl as a service built once per Scope.
//
//	// Laravel: $app->scoped(Transaction::class, ...)
//	c.Scoped(container.KeyOf[*Transaction](), NewTransaction)
func (c *Container) Scoped(key string, impl any) error {
	return c.Bind(key, impl, Scoped)
}

// BindFactory registers an explicit factory.
func (c *Container) BindFactory(key string, factory Factory, lifetime Lifetime) error {
	if factory == nil {
		return fmt.Errorf("%w [%s]: nil factory", ErrInvalidConstructor, key)
	}
	return c.store(&Descriptor{Key: key, Lifetime: lifetime, factory: factory}, nil)
}

// Instance registers a pre-built value as a singleton. The value goes into
// the singleton cache immediately.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
func (c *Container) Instance(key string, instance any) error {
	d := &Descriptor{Key: key, Lifetime: Singleton, instance: instance, hasInstance: true}
	// The seed stays locked until extenders have run; resolvers wait on it.
	seed := &cell{}
	seed.mu.Lock()
	notify, err := c.put(d, seed)
	if err != nil {
		seed.mu.Unlock()
		return err
	}
	seed.value, seed.ready = c.applyExtenders(d.Key, instance), true
	seed.mu.Unlock()
	notify()
	return nil
}

// store saves d and fires the rebinding callbacks.
func (c *Container) store(d *Descriptor, seed *cell) error {
	notify, err := c.put(d, seed)
	if err != nil {
		return err
	}
	notify()
	return nil
}

// put applies the rebind policy and saves d, seeding the singleton cache
// when seed is non-nil. The returned func fires the rebinding callbacks.
func (c *Container) put(d *Descriptor, seed *cell) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d.Key = c.canonical(d.Key)
	_, rebound := c.descriptors[d.Key]
	if rebound {
		switch c.policy {
		case RebindReject:
			return nil, fmt.Errorf("%w [%s]", ErrAlreadyRegistered, d.Key)
		case RebindRefresh:
			delete(c.singletons, d.Key)
		}
	}
	c.descriptors[d.Key] = d
	if seed != nil {
		c.singletons[d.Key] = seed
	}
	cbs := slices.Clone(c.reboundCallbacks[d.Key])
	if !rebound || len(cbs) == 0 {
		return func() {}, nil
	}
	return func() {
		c.mu.RLock()
		binding := c.bindingLocked(d)
		c.mu.RUnlock()
		for _, cb := range cbs {
			cb(binding)
		}
	}, nil
}

// Alias registers an alternative name for a key.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(abstract, alias string) error {
	if abstract == alias {
		return fmt.Errorf("container: [%s] is aliased to itself", abstract)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = c.canonical(abstract)
	return nil
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(fn() => new S3)
//	c.When("PhotoController").Needs("Filesystem").Give(func(r container.Resolver) (any, error) {
//	    return filesystem.NewS3(...), nil
//	})
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// getContextual returns the contextual factory for (concrete, abstract), or nil.
func (c *Container) getContextual(concrete, abstract string) Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.contextual[concrete]; ok {
		if f, ok := m[abstract]; ok {
			return f
		}
	}
	return nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates every instance built for key from now on. An already
// cached singleton is decorated in place.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, r container.Resolver) any {
//	    return logging.NewTimestampWrapper(instance.(*Logger))
//	})
func (c *Container) Extend(key string, fn Extender) {
	c.mu.Lock()
	key = c.canonical(key)
	c.extenders[key] = append(c.extenders[key], fn)
	cl := c.singletons[key]
	c.mu.Unlock()

	if cl == nil {
		return
	}
	cl.mu.Lock()
	if cl.ready {
		cl.value = fn(cl.value, c)
	}
	cl.mu.Unlock()
}

func (c *Container) applyExtenders(key string, instance any) any {
	c.mu.RLock()
	exts := slices.Clone(c.extenders[key])
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple keys under a named group.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(keys []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], keys...)
}

// Tagged resolves all keys registered under a tag.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	return (&resolution{c: c}).tagged(tag)
}

func (c *Container) taggedKeys(tag string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tags[tag])
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves key from the root. Scoped keys fail with ErrNoActiveScope;
// resolve them through a Scope.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Make("UserRepository")
func (c *Container) Make(key string) (any, error) {
	return (&resolution{c: c}).make(key)
}

// MustMake is Make that panics on error.
func (c *Container) MustMake(key string) any {
	v, err := c.Make(key)
	if err != nil {
		panic(err)
	}
	return v
}

// lookup returns the descriptor for key, loading a deferred provider if one
// owns it.
func (c *Container) lookup(key string) (*Descriptor, error) {
	c.mu.RLock()
	d, ok := c.descriptors[key]
	loader := c.loader
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	if loader != nil {
		// A concurrent lookup may have loaded the provider already, so the
		// registry is checked again whatever load reports.
		if _, err := loader.load(key); err != nil {
			return nil, err
		}
		c.mu.RLock()
		d, ok = c.descriptors[key]
		c.mu.RUnlock()
		if ok {
			return d, nil
		}
	}
	return nil, ErrServiceNotRegistered
}

func (c *Container) singletonCell(key string) *cell {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.singletons[key]
	if !ok {
		cl = &cell{}
		c.singletons[key] = cl
	}
	return cl
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether key has been registered, or will be by a deferred
// provider.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Bound(key string) bool {
	c.mu.RLock()
	key = c.canonical(key)
	_, ok := c.descriptors[key]
	loader := c.loader
	c.mu.RUnlock()
	return ok || loader != nil && loader.provides(key)
}

// Resolved reports whether key has a cached singleton.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(key string) bool {
	c.mu.RLock()
	cl, ok := c.singletons[c.canonical(key)]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.ready
}

// Forget removes the registration for key together with its cached
// singleton and any scope-cached instance; a key still waiting on a deferred
// provider is dropped from it. Scope-cached instances that implement
// io.Closer are closed and their errors discarded; cached singletons are
// left to their owner. It reports whether key was registered.
//
//	// Laravel: $app->forgetInstance(Cache::class)
func (c *Container) Forget(key string) bool {
	c.mu.Lock()
	key = c.canonical(key)
	_, ok := c.descriptors[key]
	delete(c.descriptors, key)
	delete(c.singletons, key)
	scopes := c.openScopesLocked()
	loader := c.loader
	c.mu.Unlock()

	if loader != nil && loader.forget(key) {
		ok = true
	}
	for _, s := range scopes {
		_ = s.forget(key)
	}
	return ok
}

// Flush resets the entire container, pending deferred providers included.
// Open scopes stay open with empty caches; the io.Closers they held are
// closed and their errors joined.
func (c *Container) Flush() error {
	c.mu.Lock()
	c.descriptors = make(map[string]*Descriptor)
	c.singletons = make(map[string]*cell)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]Extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]Factory)
	scopes := c.openScopesLocked()
	loader := c.loader
	c.mu.Unlock()

	if loader != nil {
		loader.reset()
	}
	var errs []error
	for _, s := range scopes {
		errs = append(errs, s.reset())
	}
	return errors.Join(errs...)
}

// Binding is a read-only snapshot of one registration.
type Binding struct {
	Key      string   `json:"key" yaml:"key"`
	Lifetime string   `json:"lifetime" yaml:"lifetime"`
	Source   string   `json:"source" yaml:"source"`
	Resolved bool     `json:"resolved" yaml:"resolved"`
	Aliases  []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Bindings returns a snapshot of every registration, sorted by key.
func (c *Container) Bindings() []Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Binding, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		out = append(out, c.bindingLocked(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// bindingLocked snapshots d. Caller holds mu.
func (c *Container) bindingLocked(d *Descriptor) Binding {
	b := Binding{Key: d.Key, Lifetime: d.Lifetime.String(), Source: d.Source()}
	if cl, ok := c.singletons[d.Key]; ok && cl.mu.TryLock() {
		b.Resolved = cl.ready
		cl.mu.Unlock()
	}
	for alias, target := range c.aliases {
		if target == d.Key {
			b.Aliases = append(b.Aliases, alias)
		}
	}
	for tag, keys := range c.tags {
		if slices.Contains(keys, d.Key) {
			b.Tags = append(b.Tags, tag)
		}
	}
	sort.Strings(b.Aliases)
	sort.Strings(b.Tags)
	return b
}

// canonicalKey resolves an alias to its canonical key.
func (c *Container) canonicalKey(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canonical(key)
}

// canonical is canonicalKey for callers already holding mu.
func (c *Container) canonical(key string) string {
	if target, ok := c.aliases[key]; ok {
		return target
	}
	return key
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback fired whenever key is registered again.
//
//	// Laravel: $app->rebinding(UserRepository::class, fn($app, $repo) => ...)
func (c *Container) Rebinding(key string, cb func(Binding)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key = c.canonical(key)
	c.reboundCallbacks[key] = append(c.reboundCallbacks[key], cb)
}

// AfterResolving registers a callback fired after any instance is built.
// Cache hits do not fire it.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(key string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(key string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(key, instance)
	}
}
