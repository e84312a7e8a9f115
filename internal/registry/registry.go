// Package registry defers and deduplicates construction of optional
// subsystems. Factories may install OS-level hooks with side effects,
// so the registry guarantees at most one concurrent factory invocation
// per component name.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/taskdesk/taskdesk/internal/sched"
)

// DefaultBackgroundDelay paces sequential background loads so a burst
// of deferred constructions does not starve interactive work.
const DefaultBackgroundDelay = 100 * time.Millisecond

// Priority classifies how urgently a component must be available.
// Only critical components are constructed synchronously at startup;
// everything else loads in the background or on first use.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority maps a config string to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "critical":
		return PriorityCritical, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

// Factory constructs a component. The context is detached from any
// individual caller: an abandoned Load does not abort a shared
// construction other callers may still be waiting on.
type Factory func(ctx context.Context) (any, error)

// Disposer is implemented by components that own resources needing
// explicit release at shutdown.
type Disposer interface {
	Dispose() error
}

// ComponentStatus reports one component's lifecycle position.
type ComponentStatus struct {
	Priority Priority `json:"priority"`
	Loaded   bool     `json:"loaded"`
	Loading  bool     `json:"loading"`
}

// Status is a point-in-time snapshot of the whole registry.
type Status struct {
	Components map[string]ComponentStatus `json:"components"`
	Registered int                        `json:"registered"`
	Loaded     int                        `json:"loaded"`
	Loading    int                        `json:"loading"`
}

type entry struct {
	factory  Factory
	priority Priority
}

type pending struct {
	done  chan struct{}
	value any
	err   error
}

// Options configures a Registry. Zero values resolve to a monotonic
// wall-clock scheduler, slog.Default, and DefaultBackgroundDelay.
type Options struct {
	Scheduler       sched.Scheduler
	Logger          *slog.Logger
	BackgroundDelay time.Duration
}

// Registry tracks component factories, cached instances, and in-flight
// constructions. Safe for concurrent use.
type Registry struct {
	clock sched.Scheduler
	log   *slog.Logger
	delay time.Duration

	mu        sync.Mutex
	factories map[string]entry
	cache     map[string]any
	inFlight  map[string]*pending
	order     []string // construction order, for reverse disposal
	closed    bool
}

func New(opts Options) *Registry {
	if opts.Scheduler == nil {
		opts.Scheduler = sched.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BackgroundDelay <= 0 {
		opts.BackgroundDelay = DefaultBackgroundDelay
	}
	return &Registry{
		clock:     opts.Scheduler,
		log:       opts.Logger,
		delay:     opts.BackgroundDelay,
		factories: make(map[string]entry),
		cache:     make(map[string]any),
		inFlight:  make(map[string]*pending),
	}
}

// Register records a factory under name. Re-registering replaces the
// factory for future constructions but never disturbs an instance that
// is already cached.
func (r *Registry) Register(name string, priority Priority, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = entry{factory: factory, priority: priority}
}

// Load returns the component named name, constructing it on first use.
// Concurrent callers for the same name attach to a single factory
// invocation. A failed construction leaves the component unloaded so a
// later call retries. Cancelling ctx detaches the caller without
// aborting a construction other callers share.
func (r *Registry) Load(ctx context.Context, name string) (any, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("registry is closed")
	}
	if inst, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return inst, nil
	}
	if p, ok := r.inFlight[name]; ok {
		r.mu.Unlock()
		return r.wait(ctx, p)
	}
	ent, ok := r.factories[name]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("component %q is not registered", name)
	}

	p := &pending{done: make(chan struct{})}
	r.inFlight[name] = p
	r.mu.Unlock()

	go r.construct(context.WithoutCancel(ctx), name, ent.factory, p)
	return r.wait(ctx, p)
}

func (r *Registry) construct(ctx context.Context, name string, factory Factory, p *pending) {
	start := r.clock.Now()
	inst, err := factory(ctx)

	r.mu.Lock()
	delete(r.inFlight, name)
	if err == nil {
		r.cache[name] = inst
		r.order = append(r.order, name)
	}
	r.mu.Unlock()

	p.value, p.err = inst, err
	close(p.done)

	if err != nil {
		r.log.Warn("component load failed", "component", name, "error", err)
		return
	}
	r.log.Debug("component loaded", "component", name,
		"duration", r.clock.Now().Sub(start))
}

func (r *Registry) wait(ctx context.Context, p *pending) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetSync returns the cached instance for name, or nil if the
// component has not finished loading. It never triggers construction.
func (r *Registry) GetSync(name string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[name]
}

// Preload loads names in parallel with all-outcomes semantics: one
// component's failure does not abort the others. The returned map
// holds a nil or non-nil error per requested name.
func (r *Registry) Preload(ctx context.Context, names []string) map[string]error {
	results := make(map[string]error, len(names))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := r.Load(ctx, name)
			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	return results
}

// LoadInBackground loads names sequentially on a separate goroutine,
// pausing between items so deferred construction does not monopolize
// the process. Failures are logged and skipped. It returns immediately.
func (r *Registry) LoadInBackground(ctx context.Context, names []string) {
	go func() {
		for _, name := range names {
			if err := r.clock.Sleep(ctx, r.delay); err != nil {
				return
			}
			if _, err := r.Load(ctx, name); err != nil {
				r.log.Warn("background load failed", "component", name, "error", err)
			}
		}
	}()
}

// CriticalNames returns registered components with PriorityCritical,
// sorted by name for deterministic startup.
func (r *Registry) CriticalNames() []string {
	return r.namesWith(func(p Priority) bool { return p == PriorityCritical })
}

// BackgroundNames returns non-critical components ordered
// highest-priority first, ties broken by name.
func (r *Registry) BackgroundNames() []string {
	names := r.namesWith(func(p Priority) bool { return p != PriorityCritical })
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.SliceStable(names, func(i, j int) bool {
		return r.factories[names[i]].priority > r.factories[names[j]].priority
	})
	return names
}

func (r *Registry) namesWith(keep func(Priority) bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for name, ent := range r.factories {
		if keep(ent.priority) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Status reports per-component lifecycle state plus aggregate totals.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		Components: make(map[string]ComponentStatus, len(r.factories)),
		Registered: len(r.factories),
	}
	for name, ent := range r.factories {
		_, loaded := r.cache[name]
		_, loading := r.inFlight[name]
		st.Components[name] = ComponentStatus{
			Priority: ent.priority,
			Loaded:   loaded,
			Loading:  loading,
		}
		if loaded {
			st.Loaded++
		}
		if loading {
			st.Loading++
		}
	}
	return st
}

// Close disposes loaded components in reverse construction order and
// refuses further loads. Disposal errors are joined, not short-circuited.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	order := r.order
	cache := r.cache
	r.order = nil
	r.cache = make(map[string]any)
	r.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		d, ok := cache[name].(Disposer)
		if !ok {
			continue
		}
		if err := d.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s: %w", name, err))
			r.log.Warn("component dispose failed", "component", name, "error", err)
		}
	}
	return errors.Join(errs...)
}
