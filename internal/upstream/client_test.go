package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQueryOmitsEmptyFilters(t *testing.T) {
	q := ListQuery{
		Page:    2,
		PerPage: 10,
		Filters: map[string]string{
			"search":   "",
			"daerah":   "D-01",
			"kelompok": "",
		},
	}
	values := q.Values()

	assert.Equal(t, "2", values.Get("page"))
	assert.Equal(t, "10", values.Get("per_page"))
	assert.Equal(t, "D-01", values.Get("filter[daerah]"))
	_, hasSearch := values["filter[search]"]
	assert.False(t, hasSearch, "empty filter must be omitted, not sent empty")
	_, hasKelompok := values["filter[kelompok]"]
	assert.False(t, hasKelompok)
}

func TestListDecodesPageEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sensus", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.Equal(t, "11", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": "a"}, {"id": "b"}},
			"meta": map[string]any{
				"current_page": 2, "last_page": 5, "per_page": 10,
				"total": 47, "from": 11,
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	page, err := List[map[string]any](context.Background(), client, "tok-1", "sensus", ListQuery{Page: 11})
	require.NoError(t, err)

	assert.Len(t, page.Data, 2)
	assert.Equal(t, 5, page.Meta.LastPage)
	assert.Equal(t, 11, page.RowNumber(0))
	assert.Equal(t, 20, page.RowNumber(9))
}

func TestDetailNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Data sensus tidak ditemukan",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := Detail[map[string]any](context.Background(), client, "tok", "sensus", "missing-id")
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Data sensus tidak ditemukan", nf.Message)
}

func TestUnauthorizedMatchesSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Unauthenticated."})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := List[map[string]any](context.Background(), client, "stale", "users", ListQuery{Page: 1})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrSessionExpired))
	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusUnauthorized, herr.Status)
	assert.Equal(t, "Unauthenticated.", herr.Message)
}

func TestForbiddenIsNotSessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := List[map[string]any](context.Background(), client, "tok", "users", ListQuery{Page: 1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionExpired))
}

func TestNetworkFailure(t *testing.T) {
	// Closed server yields a transport-level failure, not an HTTP status.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := List[map[string]any](context.Background(), client, "", "users", ListQuery{Page: 1})
	require.Error(t, err)

	var nerr *NetworkError
	assert.True(t, errors.As(err, &nerr))
}
