package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"contractdesk/internal/auth"
	"contractdesk/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth       *service.AuthService
	Contracts  *service.ContractService
	Categories *service.LookupService
	Statuses   *service.LookupService
	Cookies    auth.CookieConfig
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:        logger,
		isProd:        opts.IsProd,
		dbPing:        opts.DBPing,
		authSvc:       opts.Auth,
		contractSvc:   opts.Contracts,
		categoriesSvc: opts.Categories,
		statusesSvc:   opts.Statuses,
		cookies:       opts.Cookies,
		loginLimiter:  newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	apiMux := http.NewServeMux()

	apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
	apiMux.HandleFunc("POST /v1/auth/logout", api.handleAuthLogout)
	apiMux.HandleFunc("GET /v1/auth/me", api.handleAuthMe)
	apiMux.HandleFunc("POST /v1/auth/change-password", api.handleChangePassword)
	apiMux.HandleFunc("GET /v1/health", api.handleHealth)

	apiMux.HandleFunc("GET /v1/contracts", api.handleContractsList)
	apiMux.HandleFunc("POST /v1/contracts", api.handleContractsCreate)
	apiMux.HandleFunc("GET /v1/contracts/{id}", api.handleContractsGet)
	apiMux.HandleFunc("PATCH /v1/contracts/{id}", api.handleContractsPatch)
	apiMux.HandleFunc("DELETE /v1/contracts/{id}", api.handleContractsDelete)

	registerLookupRoutes(apiMux, api, "categories", api.categoriesSvc)
	registerLookupRoutes(apiMux, api, "statuses", api.statusesSvc)

	// Unmatched /v1 paths get a JSON 404 instead of the mux default.
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			WriteError(w, http.StatusNotFound, "not_found", "not found")
			return
		}
		h.ServeHTTP(w, r)
	})

	gated := api.authGate(apiHandler)

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			gated.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func registerLookupRoutes(mux *http.ServeMux, api *api, name string, svc *service.LookupService) {
	mux.HandleFunc("GET /v1/"+name, func(w http.ResponseWriter, r *http.Request) {
		api.handleLookupList(w, r, svc)
	})
	mux.HandleFunc("POST /v1/"+name, func(w http.ResponseWriter, r *http.Request) {
		api.handleLookupCreate(w, r, svc)
	})
	mux.HandleFunc("GET /v1/"+name+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.handleLookupGet(w, r, svc)
	})
	mux.HandleFunc("PATCH /v1/"+name+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.handleLookupRename(w, r, svc)
	})
	mux.HandleFunc("DELETE /v1/"+name+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.handleLookupDelete(w, r, svc)
	})
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc       *service.AuthService
	contractSvc   *service.ContractService
	categoriesSvc *service.LookupService
	statusesSvc   *service.LookupService
	cookies       auth.CookieConfig

	loginLimiter *loginLimiter
}

// handleHealthz is the public liveness probe, outside the auth gate.
func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}

// handleHealth is the gated health check; it doubles as the endpoint an
// account in the must-change-password state can still poll.
func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
