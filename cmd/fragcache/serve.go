package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/fragcache/admin"
	"github.com/jonwraymond/fragcache/auth"
	"github.com/jonwraymond/fragcache/health"
	"github.com/jonwraymond/fragcache/observe"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var errNoAdminCredentials = errors.New("fragcache: no admin key or token secret configured (use --insecure to serve without auth)")

func newServeCmd(f *flags) *cobra.Command {
	var (
		addr     string
		insecure bool
		sweep    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin API, health probes and metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := f.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Admin.Addr = addr
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				_ = a.Close(shutdownCtx)
			}()

			h, err := a.handler(insecure)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Admin.Addr)
			if err != nil {
				return err
			}
			if sweep > 0 && a.bolt != nil {
				go a.sweepLoop(ctx, sweep)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fragcache listening on %s\n", ln.Addr())
			return serve(ctx, ln, h, a.in.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from FRAGCACHE_ADMIN_ADDR)")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "serve the admin API without authentication")
	cmd.Flags().DurationVar(&sweep, "sweep-interval", 10*time.Minute, "interval between expired-entry sweeps of a bolt backend (0 disables)")
	return cmd
}

// handler assembles the HTTP surface.
func (a *app) handler(insecure bool) (http.Handler, error) {
	hcfg, err := a.adminAuth(insecure)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/tenants/", admin.NewHandler(a.svc, hcfg))

	agg := health.NewAggregator()
	if a.backend != nil {
		agg.Register("backend", health.NewBackendChecker("backend", a.backend))
	}
	health.RegisterHandlers(mux, agg)

	if a.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}
	return mux, nil
}

// adminAuth builds the admin authenticator chain from the configured API
// key and token secret.
func (a *app) adminAuth(insecure bool) (admin.HandlerConfig, error) {
	ac := a.cfg.Admin
	var (
		hcfg   admin.HandlerConfig
		chain  []auth.Authenticator
		tokens *auth.TokenService
	)

	if ac.APIKey != "" {
		store := auth.NewMemoryAPIKeyStore()
		if err := store.AddKey(ac.APIKey, auth.APIKeyInfo{
			ID:        "config",
			Principal: "admin",
			Roles:     []string{auth.RoleAdmin},
		}); err != nil {
			return hcfg, err
		}
		chain = append(chain, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store))
	}
	if ac.TokenSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(auth.TokenConfig{
			Secret: []byte(ac.TokenSecret),
			TTL:    ac.TokenTTL,
		})
		if err != nil {
			return hcfg, err
		}
		chain = append(chain, tokens)
	}

	switch {
	case len(chain) > 0:
		hcfg.Authenticator = auth.NewCompositeAuthenticator(chain...)
		hcfg.Tokens = tokens
	case insecure:
		hcfg.Authorizer = auth.AllowAllAuthorizer{}
		a.in.Logger.Warn(context.Background(), "admin API is serving without authentication")
	default:
		return hcfg, errNoAdminCredentials
	}
	return hcfg, nil
}

func (a *app) sweepLoop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.bolt.Sweep(ctx)
			if err != nil {
				a.in.Logger.Warn(ctx, "bolt sweep failed", observe.Field{Key: "error", Value: err.Error()})
				continue
			}
			if n > 0 {
				a.in.Logger.Debug(ctx, "bolt sweep removed expired entries", observe.Field{Key: "removed", Value: n})
			}
		}
	}
}

// serve runs h on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler, logger observe.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down admin server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
