package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/auth"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

type recorderStub struct {
	entries []audit.Entry
}

func (r *recorderStub) Record(ctx context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func upstreamLoginStub(t *testing.T, success bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if !success {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Kredensial salah"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"token": "api-token-1",
				"user": map[string]any{
					"id": "u-9", "name": "Siti", "role_id": "role-daerah",
					"akses_daerah": "D-03",
				},
			},
		})
	}))
}

func newHandler(t *testing.T, upstreamURL string) (*auth.Handler, *shared.SessionManager, *recorderStub) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	rec := &recorderStub{}

	client := upstream.NewClient(upstreamURL, time.Second)
	service := auth.NewService(client, auth.BootstrapOperator{})
	handler := auth.NewHandler(nil, service, sessions, csrf, rec)
	return handler, sessions, rec
}

func doLogin(t *testing.T, handler *auth.Handler, sessions *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.Login(res, req)
	return res, sess
}

func TestLoginAttachesProfile(t *testing.T) {
	srv := upstreamLoginStub(t, true)
	defer srv.Close()
	handler, sessions, rec := newHandler(t, srv.URL)

	res, sess := doLogin(t, handler, sessions, `{"email":"siti@sensus.id","password":"rahasia1"}`)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, sess.Authenticated())
	assert.Equal(t, "role-daerah", sess.RoleID())
	assert.Equal(t, "D-03", sess.Scope().Daerah)
	assert.Equal(t, "api-token-1", sess.Profile().Token)

	// token must not appear in the response body
	assert.NotContains(t, res.Body.String(), "api-token-1")

	require.Len(t, rec.entries, 1)
	assert.Equal(t, audit.ActionLogin, rec.entries[0].Action)
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := upstreamLoginStub(t, false)
	defer srv.Close()
	handler, sessions, _ := newHandler(t, srv.URL)

	res, sess := doLogin(t, handler, sessions, `{"email":"siti@sensus.id","password":"salah123"}`)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.False(t, sess.Authenticated())
	assert.Contains(t, res.Body.String(), "Email atau password tidak valid")
}

func TestLoginValidation(t *testing.T) {
	srv := upstreamLoginStub(t, true)
	defer srv.Close()
	handler, sessions, _ := newHandler(t, srv.URL)

	res, _ := doLogin(t, handler, sessions, `{"email":"bukan-email","password":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestMeAnonymous(t *testing.T) {
	srv := upstreamLoginStub(t, true)
	defer srv.Close()
	handler, sessions, _ := newHandler(t, srv.URL)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.Me(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
