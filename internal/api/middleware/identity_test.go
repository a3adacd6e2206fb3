package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climacast/climacast/internal/api/middleware"
)

func TestIdentity_UsesProvidedHeader(t *testing.T) {
	var captured string
	handler := middleware.Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses", nil)
	req.Header.Set(middleware.AnonymousIDHeader, "client-abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, "client-abc", captured)
	assert.Equal(t, "client-abc", rec.Header().Get(middleware.AnonymousIDHeader))
}

func TestIdentity_GeneratesIDWhenMissing(t *testing.T) {
	var captured string
	handler := middleware.Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.NotEmpty(t, captured)
	_, err := uuid.Parse(captured)
	assert.NoError(t, err, "generated identity should be a UUID")
	assert.Equal(t, captured, rec.Header().Get(middleware.AnonymousIDHeader))
}

func TestGetUserID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middleware.GetUserID(req.Context()))
}
