package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zenGate-Global/hello-audit/platform/go/requesttrace"
)

// WithIdentity returns a logger whose entries carry the scope's current "user" value.
// The value is read when each entry is written, so entries logged after the scope is
// cleared carry requesttrace.NoUser.
func WithIdentity(logger *zap.Logger, scope *requesttrace.Scope) *zap.Logger {
	if logger == nil {
		return nil
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &identityCore{Core: core, scope: scope}
	}))
}

type identityCore struct {
	zapcore.Core
	scope *requesttrace.Scope
}

func (c *identityCore) With(fields []zapcore.Field) zapcore.Core {
	return &identityCore{Core: c.Core.With(fields), scope: c.scope}
}

func (c *identityCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *identityCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	tagged := make([]zapcore.Field, 0, len(fields)+1)
	tagged = append(tagged, fields...)
	tagged = append(tagged, zap.String(requesttrace.UserKey, c.scope.User()))
	return c.Core.Write(ent, tagged)
}
