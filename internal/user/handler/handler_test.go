package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"arcanalyse/internal/platform/metrics"
	"arcanalyse/internal/user/store"
)

var testMetrics = metrics.New(prometheus.NewRegistry())

func newRouter(t *testing.T) (http.Handler, *store.Memory) {
	t.Helper()
	users := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(users, logger, testMetrics)
	r := chi.NewRouter()
	h.Register(r)
	return r, users
}

func createUser(t *testing.T, router http.Handler, email, password string, actor *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-Actor-Id", actor.String())
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateUser(t *testing.T) {
	t.Run("creates and normalizes email", func(t *testing.T) {
		router, _ := newRouter(t)
		rec := createUser(t, router, "Alice@Example.COM", "s3cret-pass", nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			ID    uuid.UUID `json:"id"`
			Email string    `json:"email"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotEqual(t, uuid.Nil, resp.ID)
		require.Equal(t, "alice@example.com", resp.Email)
		require.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("stamps audit actor from header", func(t *testing.T) {
		router, users := newRouter(t)
		actor := uuid.New()
		rec := createUser(t, router, "bob@example.com", "s3cret-pass", &actor)
		require.Equal(t, http.StatusCreated, rec.Code)

		u, err := users.FindByEmailCI(t.Context(), "bob@example.com")
		require.NoError(t, err)
		require.NotNil(t, u.CreatedByID)
		require.Equal(t, actor, *u.CreatedByID)
		require.NotNil(t, u.UpdatedByID)
		require.Equal(t, actor, *u.UpdatedByID)
	})

	t.Run("conflicting email answers 409", func(t *testing.T) {
		router, _ := newRouter(t)
		require.Equal(t, http.StatusCreated, createUser(t, router, "A@x.com", "s3cret-pass", nil).Code)
		require.Equal(t, http.StatusConflict, createUser(t, router, "a@x.com", "s3cret-pass", nil).Code)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		router, _ := newRouter(t)

		require.Equal(t, http.StatusBadRequest, createUser(t, router, "", "s3cret-pass", nil).Code)
		require.Equal(t, http.StatusBadRequest, createUser(t, router, "not-an-email", "s3cret-pass", nil).Code)
		require.Equal(t, http.StatusBadRequest, createUser(t, router, "ok@x.com", "short", nil).Code)

		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed actor header", func(t *testing.T) {
		router, _ := newRouter(t)
		body, _ := json.Marshal(map[string]string{"email": "c@x.com", "password": "s3cret-pass"})
		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
		req.Header.Set("X-Actor-Id", "not-a-uuid")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListUsers(t *testing.T) {
	router, users := newRouter(t)
	for _, email := range []string{"u1@x.com", "u2@x.com", "u3@x.com"} {
		require.Equal(t, http.StatusCreated, createUser(t, router, email, "s3cret-pass", nil).Code)
	}

	t.Run("returns page envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users?limit=2&offset=0", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var page Page
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		require.Len(t, page.Items, 2)
		require.Equal(t, 3, page.Total)
		require.Equal(t, 2, page.Limit)
		require.Equal(t, 0, page.Offset)
	})

	t.Run("excludes soft-deleted users", func(t *testing.T) {
		u, err := users.FindByEmailCI(t.Context(), "u2@x.com")
		require.NoError(t, err)
		require.NoError(t, users.Update(t.Context(), u, map[string]any{"deleted_at": time.Now()}))

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var page Page
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
		require.Equal(t, 2, page.Total)
		for _, item := range page.Items {
			require.NotEqual(t, "u2@x.com", item.Email)
		}
	})

	t.Run("rejects bad pagination and sort", func(t *testing.T) {
		for _, query := range []string{"?limit=0", "?limit=201", "?offset=-1", "?sort=name.asc", "?limit=abc"} {
			req := httptest.NewRequest(http.MethodGet, "/users"+query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code, "query %s", query)
		}
	})
}

func TestGetUser(t *testing.T) {
	router, users := newRouter(t)
	require.Equal(t, http.StatusCreated, createUser(t, router, "find@x.com", "s3cret-pass", nil).Code)
	u, err := users.FindByEmailCI(t.Context(), "find@x.com")
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/"+u.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("absent answers 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("soft-deleted answers 404", func(t *testing.T) {
		require.NoError(t, users.Update(t.Context(), u, map[string]any{"deleted_at": time.Now()}))
		req := httptest.NewRequest(http.MethodGet, "/users/"+u.ID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id answers 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/zzz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
