package rbac

import (
	"log/slog"
	"net/http"

	"github.com/sensus-admin/sensus-console/internal/platform/httpx"
	"github.com/sensus-admin/sensus-console/internal/shared"
)

// DenialMode selects how a denied route answers. The source console
// answered denials with a 404 to avoid revealing that the resource
// exists; both behaviors are kept and chosen by configuration.
type DenialMode string

const (
	// DenyNotFound hides the route behind a generic 404.
	DenyNotFound DenialMode = "not_found"
	// DenyForbidden answers honestly with a 403.
	DenyForbidden DenialMode = "forbidden"
)

// Middleware wires role gating for HTTP handlers.
type Middleware struct {
	Evaluator *Evaluator
	Mode      DenialMode
	Logger    *slog.Logger
}

// RequireRole ensures the session role grants at least one of the given
// symbolic roles. Anonymous requests get 401; denied requests get the
// configured denial response.
func (m Middleware) RequireRole(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || !sess.Authenticated() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login diperlukan")
				return
			}
			if m.Evaluator.HasAccess(sess.RoleID(), names...) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("route denied",
					slog.String("path", r.URL.Path),
					slog.String("role_id", sess.RoleID()))
			}
			m.deny(w)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter) {
	if m.Mode == DenyForbidden {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	// Denial is a valid outcome here, not an error; the generic not-found
	// answer is deliberate.
	httpx.Problem(w, http.StatusNotFound, "Not Found", "")
}
