package requesttrace

import (
	"context"
	"sync"
)

type contextKey string

const (
	ctxScope contextKey = "HELLO_AUDIT_REQUEST_TRACE"
)

const (
	// UserKey is the scope entry holding the caller's display identity.
	UserKey = "user"
	// NoUser is rendered in place of an absent identity.
	NoUser = "-"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindAnonymous ActorKind = "anonymous"
)

// Scope is the identity context of a single request. A Scope is created per request and is
// never shared between requests; the mutex only guards goroutines fanned out by one handler.
type Scope struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewScope returns an empty Scope.
func NewScope() *Scope {
	return &Scope{entries: make(map[string]string, 1)}
}

// Set stores value under key, replacing any previous value.
func (s *Scope) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Get returns the value stored under key.
func (s *Scope) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Clear removes every entry. Safe to call on an empty or nil Scope.
func (s *Scope) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Len reports the number of entries currently held.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// User returns the identity stored under UserKey, or NoUser.
func (s *Scope) User() string {
	if v, ok := s.Get(UserKey); ok {
		return v
	}
	return NoUser
}

// ActorKind reports whether the scope carries a user identity.
func (s *Scope) ActorKind() ActorKind {
	if _, ok := s.Get(UserKey); ok {
		return ActorKindUser
	}
	return ActorKindAnonymous
}

// IntoContext stores the Scope in the provided context.
func IntoContext(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ctxScope, scope)
}

// FromContext extracts the Scope from context, returning false when not present.
func FromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	scope, ok := ctx.Value(ctxScope).(*Scope)
	return scope, ok && scope != nil
}

// UserFromContext returns the identity of the request bound to ctx, or NoUser.
func UserFromContext(ctx context.Context) string {
	scope, _ := FromContext(ctx)
	return scope.User()
}

// Within opens a fresh Scope, records user when non-empty, runs fn with the scope attached to
// ctx and clears the scope before returning. The clear also runs when fn panics; fn's error is
// returned unchanged.
func Within(ctx context.Context, user string, fn func(ctx context.Context, scope *Scope) error) error {
	var err error
	Run(ctx, user, func(ctx context.Context, scope *Scope) {
		err = fn(ctx, scope)
	})
	return err
}

// Run is Within for callers that report failures themselves, such as http.Handler chains.
func Run(ctx context.Context, user string, fn func(ctx context.Context, scope *Scope)) {
	scope := NewScope()
	if user != "" {
		scope.Set(UserKey, user)
	}
	defer scope.Clear()

	fn(IntoContext(ctx, scope), scope)
}
