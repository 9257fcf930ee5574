package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/hello-audit/contracts"
	platformauth "github.com/zenGate-Global/hello-audit/platform/go/auth"
)

func newValidatedRouter(t *testing.T, authn *platformauth.Authentication) *chi.Mux {
	t.Helper()
	spec, err := contracts.GetHelloSwagger()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if authn != nil {
				req = req.WithContext(platformauth.WithAuthentication(req.Context(), authn))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Use(SpecValidator(spec))
	r.Get("/hello", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestSpecValidator(t *testing.T) {
	authenticated := &platformauth.Authentication{Authenticated: true, Name: "sub-123"}

	testCases := []struct {
		name   string
		authn  *platformauth.Authentication
		target string
		want   int
	}{
		{name: "valid request", authn: authenticated, target: "/hello?name=World", want: http.StatusOK},
		{name: "missing name", authn: authenticated, target: "/hello", want: http.StatusBadRequest},
		{name: "no principal", authn: nil, target: "/hello?name=World", want: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			newValidatedRouter(t, tc.authn).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tc.target, nil))
			require.Equal(t, tc.want, resp.Code)
		})
	}
}
