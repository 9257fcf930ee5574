package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
)

// Providers that only accept bearer tokens.
const (
	ProviderFirebase = "firebase"
	ProviderDev      = "dev"
)

// VerifyFunc validates the incoming JWT and returns its claims map.
type VerifyFunc func(ctx context.Context, token string) (map[string]interface{}, error)

// BearerAuthenticator authenticates requests carrying an "Authorization: Bearer" token.
type BearerAuthenticator struct {
	provider string
	verify   VerifyFunc
	extract  ExtractFunc
}

// NewBearerAuthenticator builds a BearerAuthenticator. A nil extract uses DefaultAuthenticationExtractor.
func NewBearerAuthenticator(provider string, verify VerifyFunc, extract ExtractFunc) *BearerAuthenticator {
	if verify == nil {
		panic("auth.NewBearerAuthenticator: verify func must not be nil")
	}
	if extract == nil {
		extract = DefaultAuthenticationExtractor
	}
	return &BearerAuthenticator{provider: provider, verify: verify, extract: extract}
}

// Authenticate verifies the bearer token of r.
func (a *BearerAuthenticator) Authenticate(r *http.Request) (*Authentication, error) {
	token, found := ExtractJWTToken(r)
	if !found || token == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.verify(r.Context(), token)
	if err != nil {
		return nil, fmt.Errorf("verify bearer token: %w", err)
	}

	authn, err := a.extract(claims)
	if err != nil {
		return nil, fmt.Errorf("invalid claims: %w", err)
	}
	authn.Provider = a.provider
	return authn, nil
}

// ExtractJWTToken returns the bearer token of the Authorization header.
func ExtractJWTToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	// Case-insensitive prefix match.
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	return strings.TrimSpace(authHeader[len(prefix):]), true
}

// HS256TokenVerifier returns a VerifyFunc for tokens signed with a shared secret.
func HS256TokenVerifier(secret []byte) VerifyFunc {
	return func(_ context.Context, token string) (map[string]interface{}, error) {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return nil, err
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("unsupported claim type %T", parsed.Claims)
		}
		return map[string]interface{}(claims), nil
	}
}

// UnsignedTokenVerifier returns a VerifyFunc that decodes unsigned JWT payloads without validation.
func UnsignedTokenVerifier() VerifyFunc {
	return func(_ context.Context, token string) (map[string]interface{}, error) {
		return parseUnsignedJWTClaims(token)
	}
}

// FirebaseTokenVerifier returns a VerifyFunc that validates tokens via Firebase Auth.
func FirebaseTokenVerifier(fbAuth *firebaseauth.Client) VerifyFunc {
	return func(ctx context.Context, token string) (map[string]interface{}, error) {
		t, err := fbAuth.VerifyIDToken(ctx, token)
		if err != nil {
			return nil, err
		}

		claims := make(map[string]interface{}, len(t.Claims)+2)
		for k, v := range t.Claims {
			claims[k] = v
		}
		claims["uid"] = t.UID
		claims["sub"] = t.Subject

		return claims, nil
	}
}

func parseUnsignedJWTClaims(token string) (map[string]interface{}, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, errors.New("invalid token format")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	claims := make(map[string]interface{})
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	return claims, nil
}
