package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultAuthenticationExtractor(t *testing.T) {
	testCases := []struct {
		name     string
		claims   map[string]interface{}
		wantName string
		wantErr  bool
	}{
		{
			name:     "sub claim",
			claims:   map[string]interface{}{"sub": "sub-123", "uid": "uid-1"},
			wantName: "sub-123",
		},
		{
			name:     "firebase uid",
			claims:   map[string]interface{}{"uid": "uid-1"},
			wantName: "uid-1",
		},
		{
			name:     "user_id",
			claims:   map[string]interface{}{"user_id": "user-7"},
			wantName: "user-7",
		},
		{
			name:    "no subject",
			claims:  map[string]interface{}{"name": "Jane"},
			wantErr: true,
		},
		{
			name:    "nil claims",
			claims:  nil,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			authn, err := DefaultAuthenticationExtractor(tc.claims)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, authn.Authenticated)
			require.Equal(t, tc.wantName, authn.Name)
			require.Equal(t, len(tc.claims), len(authn.Attributes))
		})
	}
}

func TestChain(t *testing.T) {
	none := AuthenticatorFunc(func(*http.Request) (*Authentication, error) { return nil, ErrNoCredentials })
	bob := AuthenticatorFunc(func(*http.Request) (*Authentication, error) {
		return &Authentication{Authenticated: true, Name: "bob"}, nil
	})
	broken := AuthenticatorFunc(func(*http.Request) (*Authentication, error) { return nil, errors.New("bad token") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	authn, err := Chain(none, nil, bob).Authenticate(req)
	require.NoError(t, err)
	require.Equal(t, "bob", authn.Name)

	_, err = Chain(none, broken, bob).Authenticate(req)
	require.EqualError(t, err, "bad token")

	_, err = Chain(none).Authenticate(req)
	require.ErrorIs(t, err, ErrNoCredentials)

	stale := AuthenticatorFunc(func(*http.Request) (*Authentication, error) { return nil, ErrSessionExpired })

	authn, err = Chain(stale, bob).Authenticate(req)
	require.NoError(t, err)
	require.Equal(t, "bob", authn.Name)
	require.True(t, authn.StaleSession)

	_, err = Chain(stale, none).Authenticate(req)
	require.ErrorIs(t, err, ErrSessionExpired)

	_, err = Chain(stale, broken).Authenticate(req)
	require.EqualError(t, err, "bad token")
}

func newProtectedRouter(t *testing.T, a Authenticator) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	r.Use(Bind(a, zaptest.NewLogger(t)))
	r.Use(RequireAuthenticated(LoginPath))
	r.Get("/hello", func(w http.ResponseWriter, req *http.Request) {
		principal, ok := PrincipalFromContext(req.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(principal.DisplayName))
	})
	return r
}

func TestBindAndRequireAuthenticated(t *testing.T) {
	r := newProtectedRouter(t, NewBearerAuthenticator("dev", UnsignedTokenVerifier(), nil))

	t.Run("authenticated bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hello", nil)
		req.Header.Set("Authorization", "Bearer "+unsignedToken(t, map[string]interface{}{"sub": "sub-1", "preferred_username": "jdoe"}))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, "jdoe", resp.Body.String())
	})

	t.Run("browser is redirected to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hello?name=World", nil)
		req.Header.Set("Accept", "text/html")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		require.Equal(t, http.StatusFound, resp.Code)
		require.Equal(t, LoginPath, resp.Header().Get("Location"))

		callback := httptest.NewRequest(http.MethodGet, CallbackPath, nil)
		for _, c := range resp.Result().Cookies() {
			callback.AddCookie(c)
		}
		require.Equal(t, "/hello?name=World", PopRedirectURICookie(httptest.NewRecorder(), callback))
	})

	t.Run("api client gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hello", nil)
		req.Header.Set("Accept", "application/json")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		require.Contains(t, resp.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("invalid bearer gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/hello", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		require.Contains(t, resp.Header().Get("WWW-Authenticate"), "invalid_token")
	})
}

func TestBindPrefersBearerOverStaleSession(t *testing.T) {
	r := newProtectedRouter(t, Chain(newTestCodec(t), NewBearerAuthenticator("dev", UnsignedTokenVerifier(), nil)))

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set("Authorization", "Bearer "+unsignedToken(t, map[string]interface{}{"sub": "sub-1", "preferred_username": "jdoe"}))
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "left-over-from-previous-deploy"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "jdoe", resp.Body.String())

	var cleared bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared)
}

func TestBindDiscardsStaleSession(t *testing.T) {
	codec := newTestCodec(t)
	r := newProtectedRouter(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusFound, resp.Code)

	var cleared bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared)
}
