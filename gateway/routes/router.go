package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"milkfactory/gateway/middleware"
	"milkfactory/integrations/audit"
	"milkfactory/native/itemfactory"
	"milkfactory/native/milk"
)

// AuditLog is the read side of the audit sink.
type AuditLog interface {
	List(ctx context.Context, q audit.Query) ([]audit.Record, error)
}

type Config struct {
	Ledger        *milk.Ledger
	Factory       *itemfactory.Factory
	Audit         AuditLog
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

type api struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) (http.Handler, error) {
	if cfg.Ledger == nil || cfg.Factory == nil {
		return nil, errors.New("routes: ledger and factory are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Observability != nil {
		r.Handle("/metrics", cfg.Observability.MetricsHandler())
	}

	r.Route("/v1", func(v chi.Router) {
		if cfg.Authenticator != nil {
			v.Use(cfg.Authenticator.Middleware())
		}
		v.Route("/roles", func(sr chi.Router) {
			a.scope(sr, "roles")
			a.mountRoles(sr)
		})
		v.Route("/milk", func(sr chi.Router) {
			a.scope(sr, "milk")
			a.mountMilk(sr)
		})
		v.Route("/factory", func(sr chi.Router) {
			a.scope(sr, "factory")
			a.mountFactory(sr)
		})
		v.Route("/items", func(sr chi.Router) {
			a.scope(sr, "items")
			a.mountItems(sr)
		})
		if cfg.Audit != nil {
			v.Route("/audit", func(sr chi.Router) {
				a.scope(sr, "audit")
				sr.Get("/", a.listAudit)
				sr.Get("/export", a.exportAudit)
			})
		}
	})
	return r, nil
}

func (a *api) scope(r chi.Router, module string) {
	if a.cfg.RateLimiter != nil {
		r.Use(a.cfg.RateLimiter.Middleware(module))
	}
	if a.cfg.Observability != nil {
		r.Use(a.cfg.Observability.Middleware(module))
	}
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSONError(w, status, err)
}

func (a *api) ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
