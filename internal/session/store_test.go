package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindify/kindify-gateway/internal/domain"
)

func TestStore_InitialState(t *testing.T) {
	s := NewStore()

	assert.Nil(t, s.CurrentUser())
	assert.False(t, s.IsLoading())
	assert.Empty(t, s.LastError())
}

func TestStore_SetUserClearsError(t *testing.T) {
	s := NewStore()
	s.SetError("Invalid email or password")
	require.Equal(t, "Invalid email or password", s.LastError())

	u := &domain.User{ID: "u-1", Role: domain.RoleDonor, Email: "donor@example.com"}
	s.SetUser(u)

	assert.Equal(t, u, s.CurrentUser())
	assert.Empty(t, s.LastError())
}

func TestStore_SubscribersSeeEveryTransition(t *testing.T) {
	s := NewStore()

	var seen []State
	cancel := s.Subscribe(func(st State) { seen = append(seen, st) })

	s.SetLoading(true)
	s.SetUser(&domain.User{ID: "u-1"})
	s.SetLoading(false)

	require.Len(t, seen, 3)
	assert.True(t, seen[0].Loading)
	assert.Nil(t, seen[0].User)
	assert.NotNil(t, seen[1].User)
	assert.False(t, seen[2].Loading)
	assert.NotNil(t, seen[2].User)

	cancel()
	s.SetError("late")
	assert.Len(t, seen, 3, "canceled subscriber must not be notified")
}

func TestStore_SubscriberMayReadBack(t *testing.T) {
	s := NewStore()

	// Listeners are notified outside the lock, so reading the store from a
	// callback must not deadlock.
	var observed *domain.User
	s.Subscribe(func(State) { observed = s.CurrentUser() })

	s.SetUser(&domain.User{ID: "u-1"})
	require.NotNil(t, observed)
	assert.Equal(t, "u-1", observed.ID)
}

func TestStore_TryBeginExcludesConcurrentOps(t *testing.T) {
	s := NewStore()

	require.True(t, s.TryBegin())
	assert.True(t, s.IsLoading())
	assert.False(t, s.TryBegin(), "second begin while in flight must fail")

	s.End()
	assert.False(t, s.IsLoading())
	assert.True(t, s.TryBegin(), "begin succeeds again after End")
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.SetUser(&domain.User{ID: "u-1"})
	s.SetError("stale error")
	s.SetLoading(true)

	s.Clear()

	assert.Nil(t, s.CurrentUser())
	assert.False(t, s.IsLoading())
	assert.Empty(t, s.LastError())
}

func TestStore_SnapshotIsConsistent(t *testing.T) {
	s := NewStore()
	s.SetUser(&domain.User{ID: "u-1"})
	s.SetLoading(true)

	snap := s.Snapshot()
	assert.Equal(t, "u-1", snap.User.ID)
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Err)
}
