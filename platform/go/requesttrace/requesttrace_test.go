package requesttrace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopeSetGetClear(t *testing.T) {
	scope := NewScope()

	_, ok := scope.Get(UserKey)
	require.False(t, ok)
	require.Equal(t, NoUser, scope.User())
	require.Equal(t, ActorKindAnonymous, scope.ActorKind())

	scope.Set(UserKey, "alice")
	scope.Set(UserKey, "bob")

	got, ok := scope.Get(UserKey)
	require.True(t, ok)
	require.Equal(t, "bob", got)
	require.Equal(t, ActorKindUser, scope.ActorKind())
	require.Equal(t, 1, scope.Len())

	scope.Clear()
	require.Equal(t, 0, scope.Len())
	require.Equal(t, NoUser, scope.User())

	scope.Clear()
	require.Equal(t, 0, scope.Len())
}

func TestNilScope(t *testing.T) {
	var scope *Scope

	require.NotPanics(t, scope.Clear)
	require.Equal(t, NoUser, scope.User())
	require.Equal(t, 0, scope.Len())
}

func TestIntoContextAndFromContext(t *testing.T) {
	scope := NewScope()
	ctx := IntoContext(context.Background(), scope)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Same(t, scope, got)
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)
	require.Equal(t, NoUser, UserFromContext(context.Background()))
}

func TestWithinBindsAndClears(t *testing.T) {
	var captured *Scope

	err := Within(context.Background(), "alice", func(ctx context.Context, scope *Scope) error {
		captured = scope
		require.Equal(t, "alice", UserFromContext(ctx))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, captured.Len())
}

func TestWithinAnonymousLeavesScopeEmpty(t *testing.T) {
	err := Within(context.Background(), "", func(ctx context.Context, scope *Scope) error {
		require.Equal(t, 0, scope.Len())
		require.Equal(t, NoUser, UserFromContext(ctx))
		return nil
	})
	require.NoError(t, err)
}

func TestWithinPropagatesErrorAfterCleanup(t *testing.T) {
	boom := errors.New("boom")
	var captured *Scope

	err := Within(context.Background(), "alice", func(_ context.Context, scope *Scope) error {
		captured = scope
		return boom
	})
	require.Same(t, boom, err)
	require.Equal(t, 0, captured.Len())
}

func TestWithinClearsOnPanic(t *testing.T) {
	var captured *Scope

	require.PanicsWithValue(t, "handler exploded", func() {
		_ = Within(context.Background(), "alice", func(_ context.Context, scope *Scope) error {
			captured = scope
			panic("handler exploded")
		})
	})
	require.Equal(t, 0, captured.Len())
}

func TestRunBindsAndClears(t *testing.T) {
	var captured *Scope

	Run(context.Background(), "alice", func(ctx context.Context, scope *Scope) {
		captured = scope
		require.Equal(t, "alice", UserFromContext(ctx))
	})
	require.Equal(t, 0, captured.Len())

	require.PanicsWithValue(t, "handler exploded", func() {
		Run(context.Background(), "bob", func(_ context.Context, scope *Scope) {
			captured = scope
			panic("handler exploded")
		})
	})
	require.Equal(t, 0, captured.Len())
}

func TestWithinClearsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var captured *Scope

	err := Within(ctx, "alice", func(ctx context.Context, scope *Scope) error {
		captured = scope
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, captured.Len())
}

func TestWithinSequentialRequestsDoNotLeak(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, Within(ctx, "alice", func(ctx context.Context, _ *Scope) error {
		require.Equal(t, "alice", UserFromContext(ctx))
		return nil
	}))

	require.NoError(t, Within(ctx, "", func(ctx context.Context, _ *Scope) error {
		require.Equal(t, NoUser, UserFromContext(ctx))
		return nil
	}))
}

func TestWithinConcurrentIsolation(t *testing.T) {
	const workers = 64

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("user-%d", i)
			errs <- Within(context.Background(), want, func(ctx context.Context, _ *Scope) error {
				for j := 0; j < 100; j++ {
					if got := UserFromContext(ctx); got != want {
						return fmt.Errorf("worker %d observed %q", i, got)
					}
				}
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
