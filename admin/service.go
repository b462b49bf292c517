package admin

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/fragcache/cache"
	"github.com/jonwraymond/fragcache/fragment"
	"github.com/jonwraymond/fragcache/observe"
	"github.com/jonwraymond/fragcache/settings"
)

// Config configures a Service.
type Config struct {
	// Fragment is the template for every tenant's engine. Enabled, Tenant
	// and Namespace are set per tenant.
	Fragment fragment.Config

	// AuxDir holds file-based state removed by Uninstall. Empty skips it.
	AuxDir string

	// Concurrency bounds network-wide lifecycle runs. Default: 4
	Concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithInstruments sets the telemetry used by the service and its engines.
func WithInstruments(in observe.Instruments) Option {
	return func(s *Service) { s.in = in }
}

// WithEngineOptions appends options passed to every fragment.New call.
func WithEngineOptions(opts ...fragment.Option) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithClock sets the time source for tenant creation stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Status reports a tenant's cache state for operators.
type Status struct {
	Tenant        string   `json:"tenant"`
	Enabled       bool     `json:"enabled"`
	ToggleSet     bool     `json:"toggle_set"`
	Active        bool     `json:"active"`
	CapabilityMet bool     `json:"capability_met"`
	Notices       []string `json:"notices,omitempty"`
}

// Service manages per-tenant fragment engines built from persisted
// settings.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Engines are rebuilt after every toggle change so capability is
//     re-evaluated.
type Service struct {
	backend    cache.Cache
	store      settings.Store
	cfg        Config
	in         observe.Instruments
	engineOpts []fragment.Option
	now        func() time.Time

	// toggleMu serializes read-modify-write of toggles.
	toggleMu sync.Mutex

	mu      sync.Mutex
	engines map[string]*fragment.Engine
	notices map[string][]string
}

// NewService creates a Service. backend may be nil, in which case every
// tenant reports an unmet capability.
func NewService(backend cache.Cache, store settings.Store, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := cfg.Fragment.Validate(); err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Fragment.Namespace == "" {
		cfg.Fragment.Namespace = fragment.DefaultNamespace
	}

	s := &Service{
		backend: backend,
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		engines: make(map[string]*fragment.Engine),
		notices: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.in = s.in.WithDefaults()
	return s, nil
}

// Namespace returns the backend namespace of a tenant's fragments.
func (s *Service) Namespace(tenant string) string {
	return s.cfg.Fragment.Namespace + ":" + tenant
}

// Tenants lists registered tenants.
func (s *Service) Tenants(ctx context.Context) ([]settings.Tenant, error) {
	return s.store.Tenants(ctx)
}

// Engine returns the tenant's engine, building it from settings on first
// use.
func (s *Service) Engine(ctx context.Context, tenant string) (*fragment.Engine, error) {
	s.mu.Lock()
	e, ok := s.engines[tenant]
	s.mu.Unlock()
	if ok {
		return e, nil
	}
	if err := s.requireTenant(ctx, tenant); err != nil {
		return nil, err
	}
	return s.rebuild(ctx, tenant)
}

// SetEnabled persists the operator toggle. Switching an enabled tenant off
// purges its fragments first.
func (s *Service) SetEnabled(ctx context.Context, tenant string, enabled bool) error {
	if err := s.requireTenant(ctx, tenant); err != nil {
		return err
	}

	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	prev, set, err := s.store.Enabled(ctx, tenant)
	if err != nil {
		return err
	}
	if set && prev && !enabled {
		if _, err := s.Purge(ctx, tenant); err != nil {
			return err
		}
	}
	if err := s.store.SetEnabled(ctx, tenant, enabled); err != nil {
		return err
	}
	if enabled {
		s.clearNotices(tenant)
	}
	s.forget(tenant)

	s.in.Logger.WithFragment(observe.FragmentMeta{Tenant: tenant}).Info(ctx, "fragment cache toggled",
		observe.Field{Key: "enabled", Value: enabled},
	)
	return nil
}

// Purge deletes every indexed fragment of the tenant. Backend failures are
// reported in the result, not as the error.
func (s *Service) Purge(ctx context.Context, tenant string) (fragment.PurgeResult, error) {
	e, err := s.Engine(ctx, tenant)
	if err != nil {
		return fragment.PurgeResult{}, err
	}
	res := e.Purge(ctx)
	s.in.Logger.WithFragment(observe.FragmentMeta{Tenant: tenant}).Info(ctx, "fragment cache purged",
		observe.Field{Key: "keys", Value: res.Keys},
		observe.Field{Key: "failures", Value: res.Failures},
	)
	return res, nil
}

// Status re-evaluates the tenant's capability and reports its state.
func (s *Service) Status(ctx context.Context, tenant string) (Status, error) {
	if err := s.requireTenant(ctx, tenant); err != nil {
		return Status{}, err
	}
	value, set, err := s.store.Enabled(ctx, tenant)
	if err != nil {
		return Status{}, err
	}
	e, err := s.rebuild(ctx, tenant)
	if err != nil {
		return Status{}, err
	}

	capability := e.Capability()
	st := Status{
		Tenant:        tenant,
		Enabled:       value,
		ToggleSet:     set,
		Active:        e.Enabled(),
		CapabilityMet: capability.Met,
	}
	for _, reason := range capability.Reasons {
		st.Notices = append(st.Notices, "fragment cache cannot run: "+reason)
	}
	s.mu.Lock()
	st.Notices = append(st.Notices, s.notices[tenant]...)
	s.mu.Unlock()
	return st, nil
}

func (s *Service) rebuild(ctx context.Context, tenant string) (*fragment.Engine, error) {
	value, set, err := s.store.Enabled(ctx, tenant)
	if err != nil {
		return nil, err
	}
	cfg := s.cfg.Fragment
	cfg.Enabled = set && value
	cfg.Tenant = tenant
	cfg.Namespace = s.Namespace(tenant)

	opts := append([]fragment.Option{fragment.WithInstruments(s.in)}, s.engineOpts...)
	e, err := fragment.New(ctx, s.backend, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("admin: build engine for %q: %w", tenant, err)
	}

	s.mu.Lock()
	s.engines[tenant] = e
	s.mu.Unlock()
	return e, nil
}

func (s *Service) forget(tenant string) {
	s.mu.Lock()
	delete(s.engines, tenant)
	s.mu.Unlock()
}

func (s *Service) addNotice(tenant, notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.notices[tenant], notice) {
		s.notices[tenant] = append(s.notices[tenant], notice)
	}
}

func (s *Service) clearNotices(tenant string) {
	s.mu.Lock()
	delete(s.notices, tenant)
	s.mu.Unlock()
}

func (s *Service) requireTenant(ctx context.Context, tenant string) error {
	if err := settings.ValidateTenant(tenant); err != nil {
		return err
	}
	tenants, err := s.store.Tenants(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(tenants, func(t settings.Tenant) bool { return t.ID == tenant }) {
		return fmt.Errorf("%w: %q", ErrUnknownTenant, tenant)
	}
	return nil
}
