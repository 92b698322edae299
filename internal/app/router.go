package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/auth"
	"github.com/sensus-admin/sensus-console/internal/compliance"
	"github.com/sensus-admin/sensus-console/internal/console"
	"github.com/sensus-admin/sensus-console/internal/observability"
	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthHandler       *auth.Handler
	ConsoleHandler    *console.Handler
	AuditHandler      *audit.Handler
	ComplianceHandler *compliance.Handler
	JobHandler        *jobs.Handler
	RBACMiddleware    rbac.Middleware
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the console service.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/console", func(r chi.Router) {
		for _, d := range console.Registry() {
			params.ConsoleHandler.Mount(r, d, params.RBACMiddleware)
		}
	})

	r.Route("/activity-logs", func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireRole(rbac.RoleSuperAdmin))
		params.AuditHandler.MountRoutes(r)
	})

	params.ComplianceHandler.MountRoutes(r, params.RBACMiddleware)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
