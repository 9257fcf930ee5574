package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformlogging "github.com/zenGate-Global/hello-audit/platform/go/logging"
)

// Routes of the federated login flow.
const (
	LoginPath    = "/oauth2/authorization/" + ProviderOIDC
	CallbackPath = "/login/oauth2/code/" + ProviderOIDC
	LogoutPath   = "/logout"
)

const (
	stateCookieName = "hello_audit_oidc_state"
	nonceCookieName = "hello_audit_oidc_nonce"
	loginFlowTTL    = 10 * time.Minute
)

// LoginHandler drives the OIDC authorization-code flow and issues session cookies.
type LoginHandler struct {
	provider *OIDCProvider
	sessions *SessionCodec
	logger   *zap.Logger
}

// NewLoginHandler constructs a LoginHandler instance.
func NewLoginHandler(provider *OIDCProvider, sessions *SessionCodec, logger *zap.Logger) *LoginHandler {
	if provider == nil {
		panic("oidc provider is required")
	}
	if sessions == nil {
		panic("session codec is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &LoginHandler{provider: provider, sessions: sessions, logger: logger}
}

// Start redirects the browser to the identity provider.
func (h *LoginHandler) Start(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	nonce := uuid.NewString()

	setFlowCookie(w, r, stateCookieName, state)
	setFlowCookie(w, r, nonceCookieName, nonce)

	http.Redirect(w, r, h.provider.AuthCodeURL(state, nonce), http.StatusFound)
}

// Callback completes the login: it checks state, exchanges the code, and writes the session cookie.
func (h *LoginHandler) Callback(w http.ResponseWriter, r *http.Request) {
	logger := platformlogging.FromContextOr(r.Context(), h.logger)
	query := r.URL.Query()

	if idpErr := query.Get("error"); idpErr != "" {
		logger.Warn("login failed", zap.String("reason", idpErr), zap.String("description", query.Get("error_description")))
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || state.Value != query.Get("state") {
		logger.Warn("login failed", zap.String("reason", "state mismatch"))
		http.Error(w, "invalid login state", http.StatusBadRequest)
		return
	}
	nonce, err := r.Cookie(nonceCookieName)
	if err != nil || nonce.Value == "" {
		logger.Warn("login failed", zap.String("reason", "missing nonce"))
		http.Error(w, "invalid login state", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, expiredCookie(r, stateCookieName))
	http.SetCookie(w, expiredCookie(r, nonceCookieName))

	claims, err := h.provider.Exchange(r.Context(), query.Get("code"), nonce.Value)
	if err != nil {
		logger.Warn("login failed", zap.String("reason", "code exchange"), zap.Error(err))
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	authn, err := DefaultAuthenticationExtractor(claims)
	if err != nil {
		logger.Warn("login failed", zap.String("reason", "claims"), zap.Error(err))
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Write(w, h.sessions.NewSession(authn.Name, ProviderOIDC, authn.Attributes)); err != nil {
		logger.Error("write session", zap.Error(err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	authn.Provider = ProviderOIDC
	principal, _ := ResolvePrincipal(authn)
	logger.Info("login succeeded", zap.String("subject", principal.Subject), zap.String("display_name", principal.DisplayName))

	target := PopRedirectURICookie(w, r)
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout clears the session cookie.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

func setFlowCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(loginFlowTTL),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
