package console_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/console"
	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

type recorderStub struct {
	entries []audit.Entry
}

func (r *recorderStub) Record(ctx context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func testDescriptor() console.Descriptor {
	return console.Descriptor{
		Name:         "sensus",
		Title:        "Data Sensus",
		ListRoles:    []string{rbac.RoleSuperAdmin, rbac.RoleAdminDaerah},
		ScopeFilters: []string{"daerah"},
		Statuses: map[string]shared.StatusMapping{
			"status_sambung": {
				"aktif":  {Text: "Sambung Aktif", Color: "green"},
				"pindah": {Text: "Pindah", Color: "orange"},
			},
		},
		Actions: []console.RowAction{
			{Label: "Pindah Kelompok", Value: "move", Visible: func(row console.Row) bool {
				status, _ := row["status_sambung"].(string)
				return status != "pindah"
			}},
		},
		NewForm: func() any { return &console.SensusForm{} },
	}
}

type consoleEnv struct {
	router   *chi.Mux
	sessions *shared.SessionManager
	rec      *recorderStub
}

func newConsoleEnv(t *testing.T, upstreamURL string) *consoleEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	rec := &recorderStub{}

	client := upstream.NewClient(upstreamURL, time.Second)
	classifier := &console.Classifier{Sessions: sessions, RedirectDelay: 1500 * time.Millisecond}
	handler := console.NewHandler(nil, client, classifier, rec, 10)

	eval := rbac.NewEvaluator(rbac.Policy{
		rbac.RoleSuperAdmin:  "role-super",
		rbac.RoleAdminDaerah: "role-daerah",
	})
	guard := rbac.Middleware{Evaluator: eval, Mode: rbac.DenyNotFound}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			require.NoError(t, err)
			r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
			next.ServeHTTP(w, r)
			require.NoError(t, sessions.Commit(r.Context(), httptest.NewRecorder(), r, sess))
		})
	})
	handler.Mount(router, testDescriptor(), guard)
	return &consoleEnv{router: router, sessions: sessions, rec: rec}
}

// seedSession persists a logged-in session and returns its cookie.
func seedSession(t *testing.T, sessions *shared.SessionManager, profile shared.Profile) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetProfile(profile)

	res := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(context.Background(), res, req, sess))
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func daerahProfile() shared.Profile {
	return shared.Profile{
		UserID: "u-9",
		Name:   "Siti",
		RoleID: "role-daerah",
		Token:  "api-token-1",
		Scope:  shared.AccessScope{Daerah: "D-03"},
	}
}

func (e *consoleEnv) do(method, target string, cookie *http.Cookie, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	e.router.ServeHTTP(res, req)
	return res
}

func TestListDecoratesRows(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sensus", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "s-1", "nama": "Budi", "status_sambung": "aktif"},
				{"id": "s-2", "nama": "Wati", "status_sambung": "pindah"},
			},
			"meta": map[string]any{
				"current_page": 2, "last_page": 5, "per_page": 10, "total": 47, "from": 11,
			},
		})
	}))
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	// a manual attempt to widen the locked scope filter must be ignored
	res := env.do(http.MethodGet, "/sensus?page=2&filter%5Bdaerah%5D=D-99", cookie, "")
	require.Equal(t, http.StatusOK, res.Code)

	assert.Equal(t, []string{"D-03"}, gotQuery["filter[daerah]"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])

	var envl struct {
		Data struct {
			Data []map[string]any `json:"data"`
			Meta upstream.Meta    `json:"meta"`
			Query struct {
				Locked []string `json:"locked"`
			} `json:"query"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envl))
	require.Len(t, envl.Data.Data, 2)

	first := envl.Data.Data[0]
	assert.Equal(t, float64(11), first["_row_number"])
	badges := first["_badges"].(map[string]any)
	sambung := badges["status_sambung"].(map[string]any)
	assert.Equal(t, "Sambung Aktif", sambung["text"])

	// the move action is hidden once the record already moved
	labels := func(row map[string]any) []string {
		var out []string
		for _, a := range row["_actions"].([]any) {
			out = append(out, a.(map[string]any)["label"].(string))
		}
		return out
	}
	assert.Contains(t, labels(envl.Data.Data[0]), "Pindah Kelompok")
	assert.NotContains(t, labels(envl.Data.Data[1]), "Pindah Kelompok")

	assert.Equal(t, []string{"daerah"}, envl.Data.Query.Locked)
}

func TestListOvershootingPageRefetchesClamped(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		w.Header().Set("Content-Type", "application/json")
		if page == "2" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"id": "s-11", "nama": "Tono", "status_sambung": "aktif"}},
				"meta": map[string]any{"current_page": 2, "last_page": 2, "per_page": 10, "total": 11, "from": 11},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{},
			"meta": map[string]any{"current_page": 99, "last_page": 2, "per_page": 10, "total": 11, "from": 0},
		})
	}))
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodGet, "/sensus?page=99", cookie, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []string{"99", "2"}, pages)

	var envl struct {
		Data struct {
			Data []map[string]any `json:"data"`
			Meta upstream.Meta    `json:"meta"`
			Query struct {
				Page int `json:"page"`
			} `json:"query"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envl))
	assert.Equal(t, 2, envl.Data.Meta.CurrentPage)
	assert.Equal(t, 2, envl.Data.Query.Page)
	require.Len(t, envl.Data.Data, 1)
	assert.Equal(t, "Tono", envl.Data.Data[0]["nama"])
}

func TestDetailActionStashesRecordForView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sensus/s-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "s-1", "nama": "Budi"},
		})
	}))
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodPost, "/sensus/s-1/actions/detail", cookie, "")
	require.Equal(t, http.StatusOK, res.Code)

	var envl struct {
		Data console.ActionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envl))
	assert.Equal(t, "navigate", envl.Data.Kind)
	assert.Equal(t, "/console/sensus/s-1/view", envl.Data.Location)

	// the destination renders from the stash, no second fetch
	viewRes := env.do(http.MethodGet, "/sensus/s-1/view", cookie, "")
	require.Equal(t, http.StatusOK, viewRes.Code)
	assert.Contains(t, viewRes.Body.String(), "Budi")
}

func TestDetailActionFailureDoesNotNavigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Data sensus tidak ditemukan",
		})
	}))
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodPost, "/sensus/s-1/actions/detail", cookie, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), "Data sensus tidak ditemukan")
	assert.NotContains(t, res.Body.String(), "navigate")

	// without a stashed record the destination refuses to render
	viewRes := env.do(http.MethodGet, "/sensus/s-1/view", cookie, "")
	assert.Equal(t, http.StatusConflict, viewRes.Code)
}

func TestViewByDirectURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodGet, "/sensus/s-1/view", cookie, "")
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Contains(t, res.Body.String(), "kembali ke daftar")
}

func TestExpiredTokenDestroysSessionAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Unauthenticated."})
	}))
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodGet, "/sensus", cookie, "")
	require.Equal(t, http.StatusUnauthorized, res.Code)

	var envl struct {
		Redirect *struct {
			Location string `json:"location"`
			DelayMS  int    `json:"delay_ms"`
		} `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envl))
	require.NotNil(t, envl.Redirect)
	assert.Equal(t, "/", envl.Redirect.Location)
	assert.Equal(t, 1500, envl.Redirect.DelayMS)

	// the session is gone, the next request is anonymous
	again := env.do(http.MethodGet, "/sensus", cookie, "")
	assert.Equal(t, http.StatusUnauthorized, again.Code)
	assert.Contains(t, again.Body.String(), "login diperlukan")
}

func TestDeleteRecordsAudit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/sensus/s-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Data sensus dihapus"})
	}))
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodDelete, "/sensus/s-1", cookie, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Data sensus dihapus")

	require.Len(t, env.rec.entries, 1)
	assert.Equal(t, audit.ActionDelete, env.rec.entries[0].Action)
	assert.Equal(t, "sensus", env.rec.entries[0].Entity)
	assert.Equal(t, "s-1", env.rec.entries[0].EntityID)
}

func TestDeleteActionAsksConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodPost, "/sensus/s-1/actions/delete", cookie, "")
	require.Equal(t, http.StatusOK, res.Code)

	var envl struct {
		Data console.ActionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &envl))
	assert.Equal(t, "confirm", envl.Data.Kind)
	require.NotNil(t, envl.Data.Confirm)
	assert.Equal(t, "/console/sensus/s-1", envl.Data.Confirm.ConfirmPath)
}

func TestCreateValidation(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	env := newConsoleEnv(t, srv.URL)
	cookie := seedSession(t, env.sessions, daerahProfile())

	res := env.do(http.MethodPost, "/sensus", cookie, `{"nama":"B","jenis_kelamin":"X"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Periksa kembali isian Anda")
}

func TestRegistryCoversEveryEntity(t *testing.T) {
	names := make(map[string]bool)
	for _, d := range console.Registry() {
		require.NotEmpty(t, d.Name)
		require.NotEmpty(t, d.ListRoles, d.Name)
		require.NotNil(t, d.NewForm, d.Name)
		names[d.Name] = true
	}
	for _, want := range []string{"users", "roles", "daerah", "desa", "kelompok", "pekerjaan", "sensus"} {
		assert.True(t, names[want], want)
	}
}
