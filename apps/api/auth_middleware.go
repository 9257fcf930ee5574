package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/hello-audit/platform/go/auth"
	"github.com/zenGate-Global/hello-audit/platform/go/gcp"
)

// authSetup is everything the router and the access log need to know about callers.
type authSetup struct {
	authenticator platformauth.Authenticator
	// login is nil when the provider has no browser login flow.
	login     *platformauth.LoginHandler
	loginPath string
}

// buildAuth wires the session cookie and the bearer verifier of the configured provider.
// Sessions are always checked first so browser users keep working after a bearer-only deploy.
func buildAuth(ctx context.Context, cfg config, logger *zap.Logger) (authSetup, error) {
	sessions, err := buildSessionCodec(cfg, logger)
	if err != nil {
		return authSetup{}, err
	}

	switch cfg.AuthProvider {
	case platformauth.ProviderOIDC:
		provider, err := platformauth.NewOIDCProvider(ctx, platformauth.OIDCConfig{
			IssuerURL:    cfg.OIDCIssuerURL,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Scopes:       cfg.OIDCScopes,
		})
		if err != nil {
			return authSetup{}, err
		}
		return authSetup{
			authenticator: platformauth.Chain(
				sessions,
				platformauth.NewBearerAuthenticator(platformauth.ProviderOIDC, provider.TokenVerifier(), nil),
			),
			login:     platformauth.NewLoginHandler(provider, sessions, logger),
			loginPath: platformauth.LoginPath,
		}, nil
	case platformauth.ProviderFirebase:
		fbAuth, err := gcp.InitFirebaseAuth(ctx, cfg.FirebaseConfig)
		if err != nil {
			return authSetup{}, err
		}
		return authSetup{
			authenticator: platformauth.Chain(
				sessions,
				platformauth.NewBearerAuthenticator(platformauth.ProviderFirebase, platformauth.FirebaseTokenVerifier(fbAuth), nil),
			),
		}, nil
	case platformauth.ProviderDev:
		logger.Warn("using dev auth provider; do not use in production")
		verify := platformauth.UnsignedTokenVerifier()
		if cfg.DevJWTSecret != "" {
			verify = platformauth.HS256TokenVerifier([]byte(cfg.DevJWTSecret))
		}
		return authSetup{
			authenticator: platformauth.Chain(sessions, platformauth.NewBearerAuthenticator(platformauth.ProviderDev, verify, nil)),
		}, nil
	default:
		return authSetup{}, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
	}
}

func buildSessionCodec(cfg config, logger *zap.Logger) (*platformauth.SessionCodec, error) {
	var hashKey, blockKey []byte
	if cfg.SessionHashKey == "" {
		logger.Warn("SESSION_HASH_KEY not set; generated keys do not survive restarts")
		hashKey, blockKey = platformauth.GenerateSessionKeys()
	} else {
		var err error
		if hashKey, err = base64.StdEncoding.DecodeString(cfg.SessionHashKey); err != nil {
			return nil, fmt.Errorf("decode SESSION_HASH_KEY: %w", err)
		}
		if cfg.SessionBlockKey != "" {
			if blockKey, err = base64.StdEncoding.DecodeString(cfg.SessionBlockKey); err != nil {
				return nil, fmt.Errorf("decode SESSION_BLOCK_KEY: %w", err)
			}
		}
	}

	return platformauth.NewSessionCodec(platformauth.SessionConfig{
		HashKey:  hashKey,
		BlockKey: blockKey,
		TTL:      cfg.SessionTTL,
		Secure:   cfg.SessionCookieSecure,
	})
}
