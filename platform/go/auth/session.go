package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	// SessionCookieName carries the encoded login session.
	SessionCookieName = "hello_audit_session"

	redirectURICookieName = "hello_audit_redirect_uri"
	defaultSessionTTL     = 8 * time.Hour
)

// Session is the server-issued record of a completed federated login.
type Session struct {
	Subject    string                 `json:"sub"`
	Attributes map[string]interface{} `json:"attrs,omitempty"`
	Provider   string                 `json:"provider"`
	ExpiresAt  time.Time              `json:"exp"`
}

// SessionCodec signs and encrypts sessions into cookies.
type SessionCodec struct {
	cookie *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// SessionConfig configures a SessionCodec.
type SessionConfig struct {
	// HashKey authenticates the cookie; at least 32 bytes.
	HashKey []byte
	// BlockKey encrypts the cookie; 16, 24 or 32 bytes, or empty to disable encryption.
	BlockKey []byte
	// TTL bounds the session lifetime; defaults to 8h.
	TTL time.Duration
	// Secure marks cookies as HTTPS-only.
	Secure bool
}

// NewSessionCodec validates cfg and builds a codec.
func NewSessionCodec(cfg SessionConfig) (*SessionCodec, error) {
	if len(cfg.HashKey) < 32 {
		return nil, errors.New("session hash key must be at least 32 bytes")
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("session block key must be 16, 24 or 32 bytes, got %d", len(cfg.BlockKey))
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	var blockKey []byte
	if len(cfg.BlockKey) > 0 {
		blockKey = cfg.BlockKey
	}

	sc := securecookie.New(cfg.HashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(ttl / time.Second))

	return &SessionCodec{cookie: sc, ttl: ttl, secure: cfg.Secure, now: time.Now}, nil
}

// GenerateSessionKeys returns random hash and block keys, for local runs without configured keys.
func GenerateSessionKeys() (hashKey, blockKey []byte) {
	return securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32)
}

// NewSession stamps a session for subject expiring after the codec TTL.
func (c *SessionCodec) NewSession(subject, provider string, attributes map[string]interface{}) Session {
	return Session{
		Subject:    subject,
		Attributes: attributes,
		Provider:   provider,
		ExpiresAt:  c.now().Add(c.ttl).UTC(),
	}
}

// Write encodes the session into the response cookie.
func (c *SessionCodec) Write(w http.ResponseWriter, session Session) error {
	encoded, err := c.cookie.Encode(SessionCookieName, session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read decodes the session cookie of r.
func (c *SessionCodec) Read(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrNoCredentials
	}

	var session Session
	if err := c.cookie.Decode(SessionCookieName, cookie.Value, &session); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if session.Subject == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	if !c.now().Before(session.ExpiresAt) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

// Authenticate implements Authenticator over the session cookie.
func (c *SessionCodec) Authenticate(r *http.Request) (*Authentication, error) {
	session, err := c.Read(r)
	if err != nil {
		return nil, err
	}

	return &Authentication{
		Authenticated: true,
		Name:          session.Subject,
		Attributes:    session.Attributes,
		Provider:      session.Provider,
	}, nil
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, expiredCookie(r, SessionCookieName))
}

// SetRedirectURICookie remembers where to send the user once login completes.
// The URI is base64url encoded so bytes that are not valid in a cookie value survive.
func SetRedirectURICookie(w http.ResponseWriter, r *http.Request, redirectURI string) {
	http.SetCookie(w, &http.Cookie{
		Name:     redirectURICookieName,
		Value:    encodeRedirectURI(redirectURI),
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopRedirectURICookie returns and clears the remembered redirect URI.
// Only same-site absolute paths are honoured; anything else yields "".
func PopRedirectURICookie(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(redirectURICookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, expiredCookie(r, redirectURICookieName))

	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	v := string(decoded)
	if len(v) == 0 || v[0] != '/' || (len(v) > 1 && (v[1] == '/' || v[1] == '\\')) {
		return ""
	}
	return v
}

func encodeRedirectURI(redirectURI string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(redirectURI))
}

func expiredCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}
