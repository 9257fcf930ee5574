package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type ctxKey string

const (
	ctxAuthentication ctxKey = "HELLO_AUDIT_AUTHENTICATION"
)

// Sentinel errors returned by authenticators.
var (
	// ErrNoCredentials means the request carried nothing to authenticate.
	ErrNoCredentials = errors.New("no credentials presented")
	// ErrInvalidSession means the session cookie could not be decoded.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionExpired means the session cookie decoded but is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// Authentication is the result of the login protocol bound to one request.
type Authentication struct {
	// Authenticated reports whether the credentials were accepted.
	Authenticated bool
	// Name is the canonical principal name (the token subject); never empty when Authenticated.
	Name string
	// Attributes holds the identity token claims.
	Attributes map[string]interface{}
	// Provider names the mechanism that produced the result ("oidc", "firebase", "dev", "session").
	Provider string
	// StaleSession is set when a session cookie was presented but rejected and a later
	// authenticator accepted the request; the cookie should still be cleared.
	StaleSession bool
}

// WithAuthentication binds the authentication result to the context.
func WithAuthentication(ctx context.Context, authn *Authentication) context.Context {
	return context.WithValue(ctx, ctxAuthentication, authn)
}

// AuthenticationFromContext returns the authentication bound to the context, if any.
func AuthenticationFromContext(ctx context.Context) (*Authentication, bool) {
	if ctx == nil {
		return nil, false
	}
	authn, ok := ctx.Value(ctxAuthentication).(*Authentication)
	return authn, ok && authn != nil
}

// Authenticator derives an authentication result from the raw request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Authentication, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) (*Authentication, error)

// Authenticate calls f(r).
func (f AuthenticatorFunc) Authenticate(r *http.Request) (*Authentication, error) {
	return f(r)
}

// Chain tries each authenticator in order and returns the first accepted result or the first
// rejection. A stale session only wins when no later authenticator finds credentials.
func Chain(authenticators ...Authenticator) Authenticator {
	return AuthenticatorFunc(func(r *http.Request) (*Authentication, error) {
		var stale error
		for _, a := range authenticators {
			if a == nil {
				continue
			}
			authn, err := a.Authenticate(r)
			switch {
			case errors.Is(err, ErrNoCredentials):
				continue
			case isStaleSession(err):
				if stale == nil {
					stale = err
				}
				continue
			case err != nil:
				return nil, err
			}

			if stale != nil {
				accepted := *authn
				accepted.StaleSession = true
				return &accepted, nil
			}
			return authn, nil
		}
		if stale != nil {
			return nil, stale
		}
		return nil, ErrNoCredentials
	})
}

func isStaleSession(err error) bool {
	return errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrSessionExpired)
}

// Bind authenticates every request and binds the result to its context.
// Requests without credentials, or with a stale session cookie, continue unauthenticated so
// RequireAuthenticated can route them into the login flow. Rejected bearer credentials end
// the request with 401.
func Bind(authenticator Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	if authenticator == nil {
		panic("auth.Bind: authenticator must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authn, err := authenticator.Authenticate(r)
			switch {
			case errors.Is(err, ErrNoCredentials):
				next.ServeHTTP(w, r)
				return
			case isStaleSession(err):
				logger.Debug("discarding session cookie", zap.Error(err))
				ClearSessionCookie(w, r)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				logger.Info("rejecting credentials", zap.Error(err))
				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="api", error="invalid_token", error_description=%q`, err.Error()))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if authn.StaleSession {
				logger.Debug("discarding session cookie superseded by bearer credentials")
				ClearSessionCookie(w, r)
			}
			next.ServeHTTP(w, r.WithContext(WithAuthentication(r.Context(), authn)))
		})
	}
}

// RequireAuthenticated stops requests that have no authenticated principal. Browser navigations
// are redirected to loginPath after remembering the original URL; everything else gets 401.
// An empty loginPath disables redirects.
func RequireAuthenticated(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			if loginPath != "" && isBrowserNavigation(r) {
				SetRedirectURICookie(w, r, r.URL.RequestURI())
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

func isBrowserNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	if _, found := ExtractJWTToken(r); found {
		return false
	}
	if r.Header.Get("X-Requested-With") != "" {
		return false
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// ExtractFunc converts a claims map into an Authentication.
type ExtractFunc func(claims map[string]interface{}) (*Authentication, error)

// DefaultAuthenticationExtractor uses sub (falling back to uid and user_id) as the canonical name
// and keeps every claim as an attribute.
func DefaultAuthenticationExtractor(claims map[string]interface{}) (*Authentication, error) {
	if claims == nil {
		return nil, errors.New("missing claims")
	}

	name := fallbackStringClaim(claims, []string{"sub", "uid", "user_id"}, "")
	if name == "" {
		return nil, errors.New("token has no subject")
	}

	attributes := make(map[string]interface{}, len(claims))
	for k, v := range claims {
		attributes[k] = v
	}

	return &Authentication{
		Authenticated: true,
		Name:          name,
		Attributes:    attributes,
	}, nil
}

func extractStringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key]; ok {
		if strVal, valid := v.(string); valid {
			return strVal
		}
	}
	return ""
}

func fallbackStringClaim(claims map[string]interface{}, keys []string, def string) string {
	for _, key := range keys {
		if v := extractStringClaim(claims, key); v != "" {
			return v
		}
	}
	return def
}
