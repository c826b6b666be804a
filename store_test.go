package session_test

import (
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ColdStart(t *testing.T) {
	store := session.NewStore(session.WithStoreLogger(quietLogger{}))

	assert.Equal(t, session.PhaseIdle, store.Phase())

	state := store.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.True(t, state.IsLoading)
	assert.Nil(t, state.User)
}

func TestStore_ResolutionLifecycle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := session.NewStore(session.WithStoreLogger(quietLogger{}))

		gen := store.BeginResolution()
		assert.Equal(t, session.PhaseResolving, store.Phase())
		assert.True(t, store.Snapshot().IsLoading)

		require.True(t, store.CompleteResolution(gen, &session.UserIdentity{ID: "u1"}))
		store.ClearLoading(gen)

		state := store.Snapshot()
		assert.Equal(t, session.PhaseAuthenticated, store.Phase())
		assert.True(t, state.IsAuthenticated)
		assert.False(t, state.IsLoading)
		require.NotNil(t, state.User)
		assert.Equal(t, "u1", state.User.ID)
	})

	t.Run("failure", func(t *testing.T) {
		store := session.NewStore(session.WithStoreLogger(quietLogger{}))

		gen := store.BeginResolution()
		require.True(t, store.CompleteResolution(gen, &session.UserIdentity{ID: "u1"}))

		gen = store.BeginResolution()
		require.True(t, store.FailResolution(gen))
		store.ClearLoading(gen)

		state := store.Snapshot()
		assert.Equal(t, session.PhaseUnauthenticated, store.Phase())
		assert.False(t, state.IsAuthenticated)
		assert.False(t, state.IsLoading)
		assert.Nil(t, state.User)
	})
}

func TestStore_StaleResolutionDiscarded(t *testing.T) {
	t.Run("newer resolution wins over stale success", func(t *testing.T) {
		store := session.NewStore(session.WithStoreLogger(quietLogger{}))

		stale := store.BeginResolution()
		current := store.BeginResolution()

		assert.False(t, store.CompleteResolution(stale, &session.UserIdentity{ID: "stale"}))
		assert.False(t, store.Snapshot().IsAuthenticated)

		require.True(t, store.CompleteResolution(current, &session.UserIdentity{ID: "current"}))
		assert.Equal(t, "current", store.Snapshot().User.ID)
	})

	t.Run("sign out beats in-flight success", func(t *testing.T) {
		store := session.NewStore(session.WithStoreLogger(quietLogger{}))

		gen := store.BeginResolution()
		store.ForceUnauthenticated("sign out")

		assert.False(t, store.CompleteResolution(gen, &session.UserIdentity{ID: "zombie"}))

		state := store.Snapshot()
		assert.False(t, state.IsAuthenticated)
		assert.Nil(t, state.User)
		assert.Equal(t, session.PhaseUnauthenticated, store.Phase())
	})

	t.Run("stale ClearLoading keeps the newer writer's flag", func(t *testing.T) {
		store := session.NewStore(session.WithStoreLogger(quietLogger{}))

		stale := store.BeginResolution()
		store.BeginResolution()

		store.ClearLoading(stale)
		assert.True(t, store.Snapshot().IsLoading)
	})
}

func TestStore_ForceUnauthenticated(t *testing.T) {
	store := session.NewStore(session.WithStoreLogger(quietLogger{}))

	gen := store.BeginResolution()
	require.True(t, store.CompleteResolution(gen, &session.UserIdentity{ID: "u1"}))

	store.ForceUnauthenticated("token refresh failed")

	state := store.Snapshot()
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Nil(t, state.User)
	assert.Equal(t, session.PhaseUnauthenticated, store.Phase())
}

func TestStore_Subscribe(t *testing.T) {
	store := session.NewStore(session.WithStoreLogger(quietLogger{}))

	var seen []session.AuthState
	sub := store.Subscribe(func(state session.AuthState) {
		seen = append(seen, state)
	})

	gen := store.BeginResolution()
	store.CompleteResolution(gen, &session.UserIdentity{ID: "u1"})
	store.ClearLoading(gen)

	require.Len(t, seen, 3)
	assert.True(t, seen[0].IsLoading)
	assert.True(t, seen[1].IsAuthenticated)
	assert.False(t, seen[2].IsLoading)
	assert.True(t, seen[2].IsAuthenticated)

	sub.Unsubscribe()
	store.ForceUnauthenticated("sign out")
	assert.Len(t, seen, 3)

	// Unsubscribe is idempotent.
	assert.NotPanics(t, sub.Unsubscribe)
}

func TestStore_GenerationAdvances(t *testing.T) {
	store := session.NewStore(session.WithStoreLogger(quietLogger{}))

	g1 := store.BeginResolution()
	g2 := store.BeginResolution()
	assert.Greater(t, g2, g1)

	before := store.Generation()
	store.ForceUnauthenticated("sign out")
	assert.Greater(t, store.Generation(), before)
}
