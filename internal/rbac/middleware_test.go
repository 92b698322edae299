package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
)

func guardedRequest(t *testing.T, mw rbac.Middleware, profile *shared.Profile, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	if profile != nil {
		sess.SetProfile(*profile)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mw.RequireRole(roles...)(next).ServeHTTP(res, req)
	return res
}

func TestRequireRoleGrants(t *testing.T) {
	mw := rbac.Middleware{
		Evaluator: rbac.NewEvaluator(rbac.Policy{"super_admin": "uuid-1"}),
		Mode:      rbac.DenyNotFound,
	}
	res := guardedRequest(t, mw, &shared.Profile{UserID: "u1", RoleID: "uuid-1"}, "super_admin")
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestRequireRoleDeniesAsNotFound(t *testing.T) {
	mw := rbac.Middleware{
		Evaluator: rbac.NewEvaluator(rbac.Policy{"super_admin": "uuid-1"}),
		Mode:      rbac.DenyNotFound,
	}
	res := guardedRequest(t, mw, &shared.Profile{UserID: "u2", RoleID: "uuid-2"}, "super_admin")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestRequireRoleDeniesAsForbidden(t *testing.T) {
	mw := rbac.Middleware{
		Evaluator: rbac.NewEvaluator(rbac.Policy{"super_admin": "uuid-1"}),
		Mode:      rbac.DenyForbidden,
	}
	res := guardedRequest(t, mw, &shared.Profile{UserID: "u2", RoleID: "uuid-2"}, "super_admin")
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireRoleAnonymous(t *testing.T) {
	mw := rbac.Middleware{
		Evaluator: rbac.NewEvaluator(rbac.Policy{"super_admin": "uuid-1"}),
		Mode:      rbac.DenyNotFound,
	}
	res := guardedRequest(t, mw, nil, "super_admin")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
