// Package accesslog writes one structured line per completed HTTP transaction. It sits outside
// the router as a gorilla/handlers formatter, so it sees every response, including the ones the
// router rejects before any application middleware runs.
package accesslog

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/hello-audit/platform/go/auth"
	"github.com/zenGate-Global/hello-audit/platform/go/requesttrace"
)

// Config wires the emitter's collaborators.
type Config struct {
	Logger *zap.Logger
	// Authenticator re-derives the caller from the raw request; the router's context is gone by
	// the time a record is written.
	Authenticator platformauth.Authenticator
	Metrics       *Metrics
	IncludeUser   bool
}

// Emitter formats access-log records.
type Emitter struct {
	logger        *zap.Logger
	authenticator platformauth.Authenticator
	metrics       *Metrics
	includeUser   bool
}

// New builds an Emitter. A nil logger discards records.
func New(cfg Config) *Emitter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		logger:        logger,
		authenticator: cfg.Authenticator,
		metrics:       cfg.Metrics,
		includeUser:   cfg.IncludeUser,
	}
}

// Handler wraps next so that every completed request produces one record.
func (e *Emitter) Handler(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, e.Format)
}

// Format is a handlers.LogFormatter. It never panics: failures are counted and logged as warnings
// and the response is left untouched.
func (e *Emitter) Format(_ io.Writer, params handlers.LogFormatterParams) {
	defer func() {
		if rec := recover(); rec != nil {
			e.metrics.fail()
			e.logger.Warn("access log record dropped", zap.Any("panic", rec))
		}
	}()

	if err := e.emit(params); err != nil {
		e.metrics.fail()
		e.logger.Warn("access log record dropped", zap.Error(err))
	}
}

func (e *Emitter) emit(params handlers.LogFormatterParams) error {
	r := params.Request
	if r == nil {
		return errors.New("missing request")
	}

	user := requesttrace.NoUser
	kind := requesttrace.ActorKindAnonymous
	if principal, ok := e.resolve(r); ok {
		user = principal.DisplayName
		kind = requesttrace.ActorKindUser
	}

	fields := []zap.Field{
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("http_method", r.Method),
		zap.String("uri", params.URL.RequestURI()),
		zap.String("proto", r.Proto),
		zap.Int("status", params.StatusCode),
		zap.Int("bytes", params.Size),
		zap.Duration("duration", time.Since(params.TimeStamp)),
	}
	if e.includeUser {
		fields = append(fields, zap.String(requesttrace.UserKey, user))
	}

	e.logger.Info("http access", fields...)
	e.metrics.observe(kind)
	return nil
}

// resolve treats any authentication failure as an anonymous caller.
func (e *Emitter) resolve(r *http.Request) (platformauth.Principal, bool) {
	if e.authenticator == nil {
		return platformauth.Principal{}, false
	}
	authn, err := e.authenticator.Authenticate(r)
	if err != nil {
		return platformauth.Principal{}, false
	}
	return platformauth.ResolvePrincipal(authn)
}
