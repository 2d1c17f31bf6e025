package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindify/kindify-gateway/internal/filter"
	"github.com/kindify/kindify-gateway/internal/recovery"
)

func testFactory(string) (*recovery.Machine, *filter.Applier) {
	return recovery.NewMachine(nil, recovery.DefaultLimits()), filter.NewApplier(nil)
}

func newTestRegistry(ttl time.Duration) (*Registry, *time.Time) {
	r := NewRegistry(ttl, testFactory)
	now := time.Now()
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)

	sess := r.Create()
	require.NotEmpty(t, sess.ID)
	require.NotNil(t, sess.Store)
	require.NotNil(t, sess.Recovery)
	require.NotNil(t, sess.Filter)

	got, ok := r.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetUnknownID(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)

	_, ok := r.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)

	a := r.Create()
	b := r.Create()
	require.NotEqual(t, a.ID, b.ID)

	a.SetToken("token-a")
	assert.Empty(t, b.Token())
}

func TestRegistry_GetExpiredRemovesSession(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)
	sess := r.Create()

	*now = now.Add(31 * time.Minute)

	_, ok := r.Get(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_GetRefreshesLastSeen(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)
	sess := r.Create()

	// Touch at 20 minutes, then check again at 40: still within TTL of the
	// refreshed last-seen time.
	*now = now.Add(20 * time.Minute)
	_, ok := r.Get(sess.ID)
	require.True(t, ok)

	*now = now.Add(20 * time.Minute)
	_, ok = r.Get(sess.ID)
	assert.True(t, ok)
}

func TestRegistry_Remove(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	sess := r.Create()

	r.Remove(sess.ID)

	_, ok := r.Get(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	r, now := newTestRegistry(30 * time.Minute)
	old := r.Create()

	*now = now.Add(20 * time.Minute)
	fresh := r.Create()

	*now = now.Add(15 * time.Minute)
	removed := r.Sweep()

	assert.Equal(t, 1, removed)
	_, ok := r.Get(old.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)
}
