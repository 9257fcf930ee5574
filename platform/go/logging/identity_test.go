package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zenGate-Global/hello-audit/platform/go/requesttrace"
)

func TestWithIdentityTagsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	scope := requesttrace.NewScope()
	scope.Set(requesttrace.UserKey, "jdoe")

	logger := WithIdentity(zap.New(core), scope).With(zap.String("component", "test"))
	logger.Info("inside request")

	scope.Clear()
	logger.Info("after cleanup")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "jdoe", entries[0].ContextMap()["user"])
	require.Equal(t, "test", entries[0].ContextMap()["component"])
	require.Equal(t, requesttrace.NoUser, entries[1].ContextMap()["user"])
}

func TestWithIdentityRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := WithIdentity(zap.New(core), requesttrace.NewScope())

	logger.Debug("dropped")
	logger.Info("kept")

	require.Equal(t, 1, logs.Len())
	require.Equal(t, requesttrace.NoUser, logs.All()[0].ContextMap()["user"])
}

func TestWithIdentityNilLogger(t *testing.T) {
	require.Nil(t, WithIdentity(nil, requesttrace.NewScope()))
}

func TestNewLoggerWritesGCPFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Component: "api-server", Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Info("suppressed")
	logger.Warn("emitted", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "WARNING", entry["severity"])
	require.Equal(t, "emitted", entry["message"])
	require.Equal(t, "api-server", entry["component"])
	require.Equal(t, "v", entry["k"])
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	require.Error(t, err)
}
