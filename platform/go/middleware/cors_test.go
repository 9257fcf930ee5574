package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCORS(t *testing.T) {
	var reached int
	handler := DefaultCORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/hello", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, preflight)

	require.Zero(t, reached)
	require.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/hello", nil)
	other.Header.Set("Origin", "https://evil.example")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, other)

	require.Equal(t, 1, reached)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestDefaultCORSDisabled(t *testing.T) {
	handler := DefaultCORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
