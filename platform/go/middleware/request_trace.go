package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/hello-audit/platform/go/auth"
	platformlogging "github.com/zenGate-Global/hello-audit/platform/go/logging"
	"github.com/zenGate-Global/hello-audit/platform/go/requesttrace"
)

// RequestTrace opens the identity scope of a request. When the request carries an authenticated
// principal its display name is stored under "user" and every line written through the request
// logger is tagged with it until the scope is cleared on the way out.
// It must run after auth.Bind so the authentication result is on the context.
func RequestTrace(fallback *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var user string
			if principal, ok := platformauth.PrincipalFromContext(r.Context()); ok {
				user = principal.DisplayName
			}

			var logger *zap.Logger
			// Runs after Run has cleared the scope, panics included.
			defer func() {
				if logger != nil {
					logger.Debug("identity context cleared")
				}
			}()

			requesttrace.Run(r.Context(), user, func(ctx context.Context, scope *requesttrace.Scope) {
				logger = platformlogging.WithIdentity(platformlogging.FromContextOr(ctx, fallback), scope)
				logger.Debug("identity context bound", zap.String("actor_kind", string(scope.ActorKind())))

				next.ServeHTTP(w, r.WithContext(platformlogging.WithLogger(ctx, logger)))
			})
		})
	}
}
