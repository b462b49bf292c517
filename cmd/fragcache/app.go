package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/fragcache/admin"
	"github.com/jonwraymond/fragcache/cache"
	"github.com/jonwraymond/fragcache/cache/boltcache"
	"github.com/jonwraymond/fragcache/cache/rediscache"
	"github.com/jonwraymond/fragcache/config"
	"github.com/jonwraymond/fragcache/observe"
	"github.com/jonwraymond/fragcache/resilience"
	"github.com/jonwraymond/fragcache/settings"
)

// app is the runtime assembled from a Config.
type app struct {
	cfg      config.Config
	backend  cache.Cache
	bolt     *boltcache.Store
	guard    *resilience.GuardedCache
	store    settings.Store
	svc      *admin.Service
	in       observe.Instruments
	observer observe.Observer
	registry *prometheus.Registry
	closers  []func() error
}

// newApp wires backend, settings and admin service. With telemetry set the
// full observer is started and metrics land in a private prometheus
// registry; otherwise only the logger is used.
func newApp(ctx context.Context, cfg config.Config, telemetry bool) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(ctx)
		}
	}()

	if telemetry {
		a.registry = prometheus.NewRegistry()
		cfg.Observe.Metrics.Registerer = a.registry
		if a.observer, err = observe.NewObserver(ctx, cfg.Observe); err != nil {
			return nil, err
		}
		if a.in, err = observe.InstrumentsFromObserver(a.observer); err != nil {
			return nil, err
		}
	} else if cfg.Observe.Logging.Enabled {
		a.in = observe.Instruments{Logger: observe.NewLogger(cfg.Observe.Logging.Level)}
	}
	a.in = a.in.WithDefaults()

	if err := a.openBackend(); err != nil {
		return nil, err
	}
	if err := a.openSettings(); err != nil {
		return nil, err
	}

	fragCfg, err := cfg.Fragment.Engine()
	if err != nil {
		return nil, err
	}
	a.svc, err = admin.NewService(a.backend, a.store, admin.Config{
		Fragment:    fragCfg,
		AuxDir:      cfg.Settings.AuxDir,
		Concurrency: cfg.Admin.Concurrency,
	}, admin.WithInstruments(a.in))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openBackend() error {
	bc := a.cfg.Backend
	switch bc.Kind {
	case config.BackendMemory:
		a.backend = cache.NewMemoryCache()
	case config.BackendRedis:
		s, err := rediscache.NewFromURL(bc.RedisURL, bc.RedisPrefix)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.backend = s
	case config.BackendBolt:
		s, err := boltcache.Open(bc.BoltPath, boltcache.Options{})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.bolt = s
		a.backend = s
	case config.BackendNone:
		return nil
	default:
		return fmt.Errorf("%w: %q", config.ErrInvalidBackend, bc.Kind)
	}

	if bc.Breaker.Enabled {
		guardCfg := bc.Breaker.Guard()
		logger := a.in.Logger
		guardCfg.Breaker.OnStateChange = func(from, to resilience.State) {
			logger.Warn(context.Background(), "backend circuit changed state",
				observe.Field{Key: "from", Value: from.String()},
				observe.Field{Key: "to", Value: to.String()},
			)
		}
		a.guard = resilience.NewGuardedCache(a.backend, guardCfg)
		a.backend = a.guard
	}
	return nil
}

func (a *app) openSettings() error {
	switch a.cfg.Settings.Kind {
	case config.BackendBolt:
		s, err := settings.OpenBolt(a.cfg.Settings.Path, settings.BoltOptions{})
		if err != nil {
			return err
		}
		a.store = s
	default:
		a.store = settings.NewMemoryStore()
	}
	a.closers = append(a.closers, a.store.Close)
	return nil
}

// Close releases everything newApp opened, in reverse order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	if a.observer != nil {
		errs = append(errs, a.observer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
