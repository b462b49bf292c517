package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/fragcache/observe"
	"github.com/jonwraymond/fragcache/settings"
)

// Activate switches the cache on for tenants whose capability is met and
// whose toggle was never set. Tenants whose capability is unmet are forced
// off and get a notice. networkWide applies it to every active tenant and
// ignores tenant.
func (s *Service) Activate(ctx context.Context, tenant string, networkWide bool) error {
	targets, err := s.targets(ctx, tenant, networkWide)
	if err != nil {
		return err
	}
	return s.each(ctx, targets, s.activateOne)
}

// ActivateNewTenant registers a tenant created after activation and
// activates it.
func (s *Service) ActivateNewTenant(ctx context.Context, tenant string) error {
	if err := settings.ValidateTenant(tenant); err != nil {
		return err
	}
	switch err := s.requireTenant(ctx, tenant); {
	case errors.Is(err, ErrUnknownTenant):
		if err := s.store.PutTenant(ctx, settings.Tenant{ID: tenant, CreatedAt: s.now()}); err != nil {
			return err
		}
	case err != nil:
		return err
	}
	return s.activateOne(ctx, tenant)
}

// Deactivate purges the fragments of the affected tenants. Toggles are
// kept so a later Activate restores the operator's choice.
func (s *Service) Deactivate(ctx context.Context, tenant string, networkWide bool) error {
	targets, err := s.targets(ctx, tenant, networkWide)
	if err != nil {
		return err
	}
	return s.each(ctx, targets, func(ctx context.Context, tenant string) error {
		res, err := s.Purge(ctx, tenant)
		if err != nil {
			return err
		}
		s.forget(tenant)
		return res.Err
	})
}

// Uninstall removes the toggle of every tenant and deletes Config.AuxDir.
// Tenant records stay since they belong to the host platform.
func (s *Service) Uninstall(ctx context.Context) error {
	tenants, err := s.store.Tenants(ctx)
	if err != nil {
		return err
	}

	s.toggleMu.Lock()
	for _, t := range tenants {
		if err := s.store.Delete(ctx, t.ID); err != nil {
			s.toggleMu.Unlock()
			return err
		}
		s.forget(t.ID)
		s.clearNotices(t.ID)
	}
	s.toggleMu.Unlock()

	if s.cfg.AuxDir != "" {
		if err := os.RemoveAll(s.cfg.AuxDir); err != nil {
			return fmt.Errorf("admin: remove %s: %w", s.cfg.AuxDir, err)
		}
	}
	s.in.Logger.Info(ctx, "fragment cache uninstalled",
		observe.Field{Key: "tenants", Value: len(tenants)},
	)
	return nil
}

func (s *Service) activateOne(ctx context.Context, tenant string) error {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	e, err := s.rebuild(ctx, tenant)
	if err != nil {
		return err
	}
	capability := e.Capability()
	logger := s.in.Logger.WithFragment(observe.FragmentMeta{Tenant: tenant})

	if !capability.Met {
		if err := s.store.SetEnabled(ctx, tenant, false); err != nil {
			return err
		}
		s.addNotice(tenant, "fragment cache was switched off on activation: "+strings.Join(capability.Reasons, "; "))
		s.forget(tenant)
		logger.Warn(ctx, "fragment cache forced off on activation",
			observe.Field{Key: "error", Value: capability.Err()},
		)
		return nil
	}

	_, set, err := s.store.Enabled(ctx, tenant)
	if err != nil {
		return err
	}
	if !set {
		if err := s.store.SetEnabled(ctx, tenant, true); err != nil {
			return err
		}
		s.forget(tenant)
		logger.Info(ctx, "fragment cache enabled on activation")
	}
	return nil
}

func (s *Service) targets(ctx context.Context, tenant string, networkWide bool) ([]string, error) {
	if !networkWide {
		if err := s.requireTenant(ctx, tenant); err != nil {
			return nil, err
		}
		return []string{tenant}, nil
	}
	tenants, err := s.store.Tenants(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, t := range tenants {
		if t.Active() {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

// each runs fn for every tenant with at most Config.Concurrency in flight.
// A failing tenant does not stop the others; their errors are joined.
func (s *Service) each(ctx context.Context, tenants []string, fn func(context.Context, string) error) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(s.cfg.Concurrency)
	for _, tenant := range tenants {
		g.Go(func() error {
			if err := fn(ctx, tenant); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("admin: tenant %q: %w", tenant, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
