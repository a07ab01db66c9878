package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveCORS(t *testing.T, origins []string, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	CORS(origins)(handler).ServeHTTP(rec, req)
	return rec, called
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/content/services", nil)
	req.Header.Set("Origin", "https://cappsac.com")

	rec, called := serveCORS(t, []string{" https://cappsac.com "}, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cappsac.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/content/services", nil)
	req.Header.Set("Origin", "https://unknown.example")

	rec, called := serveCORS(t, []string{"https://cappsac.com"}, req)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/content/services", nil)
	req.Header.Set("Origin", "https://random.example")

	rec, _ := serveCORS(t, []string{"*"}, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabledWithoutOrigins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/content/services", nil)
	req.Header.Set("Origin", "https://random.example")

	rec, called := serveCORS(t, []string{"", "  "}, req)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSHandlesPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	req.Header.Set("Origin", "https://cappsac.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rec, called := serveCORS(t, []string{"https://cappsac.com"}, req)

	assert.False(t, called, "preflight is answered by the middleware")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://cappsac.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPatch, rec.Header().Get("Access-Control-Allow-Methods"))
}
