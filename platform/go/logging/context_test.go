package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextOr(t *testing.T) {
	fallback := zap.NewExample()
	require.Same(t, fallback, FromContextOr(context.Background(), fallback))
	require.NotNil(t, FromContextOr(context.Background(), nil))

	stored := zap.NewNop()
	ctx := WithLogger(context.Background(), stored)
	require.Same(t, stored, FromContextOr(ctx, fallback))
}

func TestRequestLoggerAttachesRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/test", func(w http.ResponseWriter, req *http.Request) {
		logger := FromRequest(req, nil)
		require.NotNil(t, logger)
		logger.Info("handled")
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusAccepted, resp.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	handled := entries[0].ContextMap()
	require.Equal(t, "GET", handled["http_method"])
	require.Equal(t, "/test", handled["path"])
	require.Equal(t, "192.0.2.10:5555", handled["remote_addr"])
	require.NotEmpty(t, handled["request_id"])

	completed := entries[1]
	require.Equal(t, "request completed", completed.Message)
	require.Equal(t, zapcore.InfoLevel, completed.Level)
	require.EqualValues(t, http.StatusAccepted, completed.ContextMap()["status"])
}
