package compliance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/compliance"
	"github.com/sensus-admin/sensus-console/internal/console"
	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
)

type queueStub struct {
	calls atomic.Int64
}

func (q *queueStub) EnqueueComplianceScan(ctx context.Context) (*asynq.TaskInfo, error) {
	q.calls.Add(1)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

type auditStub struct {
	entries []audit.Entry
}

func (a *auditStub) Record(ctx context.Context, entry audit.Entry) {
	a.entries = append(a.entries, entry)
}

type boardEnv struct {
	router   *chi.Mux
	sessions *shared.SessionManager
	queue    *queueStub
}

func newBoardEnv(t *testing.T, upstreamURL string, queue *queueStub) *boardEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	svc := newService(t, upstreamURL)
	classifier := &console.Classifier{Sessions: sessions, RedirectDelay: 1500 * time.Millisecond}
	var scanQueue compliance.ScanQueue
	if queue != nil {
		scanQueue = queue
	}
	handler := compliance.NewHandler(nil, svc, &auditStub{}, classifier, scanQueue)

	eval := rbac.NewEvaluator(rbac.Policy{
		rbac.RoleSuperAdmin: "role-super",
		rbac.RoleViewer:     "role-viewer",
	})
	guard := rbac.Middleware{Evaluator: eval, Mode: rbac.DenyNotFound}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			require.NoError(t, err)
			r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
			next.ServeHTTP(w, r)
		})
	})
	handler.MountRoutes(router, guard)
	return &boardEnv{router: router, sessions: sessions, queue: queue}
}

func seedBoardSession(t *testing.T, sessions *shared.SessionManager, roleID string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetProfile(shared.Profile{UserID: "u-1", Name: "Andi", RoleID: roleID, Token: "tok"})

	res := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(context.Background(), res, req, sess))
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func (e *boardEnv) do(method, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(cookie)
	res := httptest.NewRecorder()
	e.router.ServeHTTP(res, req)
	return res
}

func TestRefreshEnqueuesScan(t *testing.T) {
	var listCalls atomic.Int64
	srv := boardStub(t, &listCalls, map[string]int{"k-1": 0})
	defer srv.Close()

	env := newBoardEnv(t, srv.URL, &queueStub{})
	cookie := seedBoardSession(t, env.sessions, "role-super")

	res := env.do(http.MethodPost, "/compliance/refresh", cookie)
	require.Equal(t, http.StatusAccepted, res.Code)
	assert.Contains(t, res.Body.String(), "dijadwalkan")
	assert.Equal(t, int64(1), env.queue.calls.Load())

	// the scan itself runs on the worker, not inside the request
	assert.Equal(t, int64(0), listCalls.Load())
}

func TestRefreshWithoutQueueRebuildsInline(t *testing.T) {
	var listCalls atomic.Int64
	srv := boardStub(t, &listCalls, map[string]int{"k-1": 2})
	defer srv.Close()

	env := newBoardEnv(t, srv.URL, nil)
	cookie := seedBoardSession(t, env.sessions, "role-super")

	res := env.do(http.MethodPost, "/compliance/refresh", cookie)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "selesai")
	assert.Equal(t, int64(1), listCalls.Load())
}

func TestViewerReadsBoardButCannotRefresh(t *testing.T) {
	var listCalls atomic.Int64
	srv := boardStub(t, &listCalls, map[string]int{"k-1": 0})
	defer srv.Close()

	env := newBoardEnv(t, srv.URL, &queueStub{})
	cookie := seedBoardSession(t, env.sessions, "role-viewer")

	res := env.do(http.MethodGet, "/compliance/board", cookie)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "tertib")

	denied := env.do(http.MethodPost, "/compliance/refresh", cookie)
	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Equal(t, int64(0), env.queue.calls.Load())
}
