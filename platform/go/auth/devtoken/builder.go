package devtoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer   = "http://localhost/dev-idp"
	defaultAudience = "hello-audit"
)

// Params captures the OIDC-shaped claims of a local token. No environment variables are read
// so the builder stays deterministic for tooling.
type Params struct {
	Subject           string        // sub claim (required)
	PreferredUsername string        // preferred_username claim (optional)
	Name              string        // name claim (optional)
	Email             string        // email claim (optional)
	ExpiresIn         time.Duration // relative expiry; default 1h if zero
	Audience          string        // optional override; defaults to "hello-audit"
	Issuer            string        // optional override; defaults to a local dev issuer
}

// BuildUnsignedToken returns a JWT string with alg "none" and no signature, accepted when
// AUTH_PROVIDER=dev runs without a signing secret.
func BuildUnsignedToken(p Params, now time.Time) (string, error) {
	claims, err := buildClaims(p, now)
	if err != nil {
		return "", err
	}

	headerSegment, err := encodeSegment(map[string]interface{}{"alg": "none", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payloadSegment, err := encodeSegment(claims)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s.%s.", headerSegment, payloadSegment), nil
}

// BuildSignedToken returns an HS256 JWT signed with secret.
func BuildSignedToken(p Params, secret []byte, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("secret is required")
	}
	claims, err := buildClaims(p, now)
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func buildClaims(p Params, now time.Time) (jwt.MapClaims, error) {
	if strings.TrimSpace(p.Subject) == "" {
		return nil, errors.New("subject is required")
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	issuer := p.Issuer
	if strings.TrimSpace(issuer) == "" {
		issuer = defaultIssuer
	}

	audience := p.Audience
	if strings.TrimSpace(audience) == "" {
		audience = defaultAudience
	}

	claims := jwt.MapClaims{
		"iss": issuer,
		"aud": audience,
		"sub": p.Subject,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}
	if p.PreferredUsername != "" {
		claims["preferred_username"] = p.PreferredUsername
	}
	if p.Name != "" {
		claims["name"] = p.Name
	}
	if p.Email != "" {
		claims["email"] = p.Email
	}

	return claims, nil
}

func encodeSegment(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
