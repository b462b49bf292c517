package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonwraymond/fragcache/auth"
	"github.com/jonwraymond/fragcache/observe"
	"github.com/jonwraymond/fragcache/settings"
)

// HandlerConfig configures the admin HTTP handler.
type HandlerConfig struct {
	// Authenticator identifies callers. Nil treats every caller as
	// anonymous.
	Authenticator auth.Authenticator

	// Authorizer checks each action. Default: auth.NewRoleAuthorizer(nil, "")
	Authorizer auth.Authorizer

	// Tokens issues action tokens. Nil disables the tokens route.
	Tokens *auth.TokenService
}

type handler struct {
	svc    *Service
	authz  auth.Authorizer
	tokens *auth.TokenService
	logger observe.Logger
}

// NewHandler returns the admin HTTP surface:
//
//	GET  /tenants/{tenant}/status
//	PUT  /tenants/{tenant}/enabled   {"enabled": bool}
//	POST /tenants/{tenant}/purge
//	POST /tenants/{tenant}/tokens    {"action": "purge"}
func NewHandler(svc *Service, cfg HandlerConfig) http.Handler {
	h := &handler{
		svc:    svc,
		authz:  cfg.Authorizer,
		tokens: cfg.Tokens,
		logger: svc.in.Logger,
	}
	if h.authz == nil {
		h.authz = auth.NewRoleAuthorizer(nil, "")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tenants/{tenant}/status", h.guard(auth.ActionStatus, h.status))
	mux.HandleFunc("PUT /tenants/{tenant}/enabled", h.guard(auth.ActionEnable, h.setEnabled))
	mux.HandleFunc("POST /tenants/{tenant}/purge", h.guard(auth.ActionPurge, h.purge))
	mux.HandleFunc("POST /tenants/{tenant}/tokens", h.guard(auth.ActionIssueToken, h.issueToken))

	if cfg.Authenticator == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mux.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), auth.AnonymousIdentity())))
		})
	}
	return auth.Middleware(cfg.Authenticator)(mux)
}

func (h *handler) guard(action string, next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := r.PathValue("tenant")
		if err := settings.ValidateTenant(tenant); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.allow(r, tenant, action); err != nil {
			writeError(w, auth.StatusFor(err), err)
			return
		}
		next(w, r, tenant)
	}
}

func (h *handler) allow(r *http.Request, tenant, action string) error {
	return h.authz.Authorize(r.Context(), &auth.AuthzRequest{
		Subject: auth.IdentityFromContext(r.Context()),
		Tenant:  tenant,
		Action:  action,
	})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request, tenant string) {
	st, err := h.svc.Status(r.Context(), tenant)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) setEnabled(w http.ResponseWriter, r *http.Request, tenant string) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, errors.New(`admin: body must be {"enabled": true|false}`))
		return
	}
	if err := h.svc.SetEnabled(r.Context(), tenant, *body.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}
	h.logger.WithFragment(observe.FragmentMeta{Tenant: tenant}).Info(r.Context(), "toggle requested",
		observe.Field{Key: "actor", Value: auth.Actor(r.Context())},
		observe.Field{Key: "enabled", Value: *body.Enabled},
	)
	h.status(w, r, tenant)
}

type purgeResponse struct {
	Tenant   string `json:"tenant"`
	Purged   int    `json:"purged"`
	Failures int    `json:"failures"`
	Error    string `json:"error,omitempty"`
}

func (h *handler) purge(w http.ResponseWriter, r *http.Request, tenant string) {
	res, err := h.svc.Purge(r.Context(), tenant)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := purgeResponse{Tenant: tenant, Purged: res.Keys, Failures: res.Failures}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	h.logger.WithFragment(observe.FragmentMeta{Tenant: tenant}).Info(r.Context(), "purge requested",
		observe.Field{Key: "actor", Value: auth.Actor(r.Context())},
	)
	writeJSON(w, http.StatusOK, resp)
}

type tokenResponse struct {
	Token     string    `json:"token"`
	Tenant    string    `json:"tenant"`
	Action    string    `json:"action"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *handler) issueToken(w http.ResponseWriter, r *http.Request, tenant string) {
	if h.tokens == nil {
		writeError(w, http.StatusNotImplemented, ErrTokensDisabled)
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, errors.New(`admin: body must be {"action": "..."}`))
			return
		}
	}
	if body.Action == "" {
		body.Action = auth.ActionPurge
	}
	if body.Action == auth.ActionIssueToken {
		writeError(w, http.StatusBadRequest, errors.New("admin: tokens cannot issue tokens"))
		return
	}
	// The caller must hold the action it delegates.
	if err := h.allow(r, tenant, body.Action); err != nil {
		writeError(w, auth.StatusFor(err), err)
		return
	}
	if err := h.svc.requireTenant(r.Context(), tenant); err != nil {
		writeServiceError(w, err)
		return
	}

	token, exp, err := h.tokens.Issue(auth.PrincipalFromContext(r.Context()), tenant, body.Action)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, Tenant: tenant, Action: body.Action, ExpiresAt: exp})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownTenant):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, settings.ErrInvalidTenant):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
