package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialstack/sipvr/internal/core"
	"github.com/dialstack/sipvr/internal/domain"
)

func TestRosterFirstFreeSlotWins(t *testing.T) {
	r := NewRoster(5)

	a, err := r.Add(domain.Publisher{ID: 10, Display: "a"})
	require.NoError(t, err)
	b, err := r.Add(domain.Publisher{ID: 20, Display: "b"})
	require.NoError(t, err)
	c, err := r.Add(domain.Publisher{ID: 30, Display: "c"})
	require.NoError(t, err)

	assert.Equal(t, 1, a.Slot)
	assert.Equal(t, 2, b.Slot)
	assert.Equal(t, 3, c.Slot)

	// Freeing the middle slot hands it to the next arrival.
	_, ok := r.Remove(20)
	require.True(t, ok)
	d, err := r.Add(domain.Publisher{ID: 40, Display: "d"})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Slot)
}

func TestRosterCapIsEnforced(t *testing.T) {
	r := NewRoster(2)
	_, err := r.Add(domain.Publisher{ID: 1})
	require.NoError(t, err)
	_, err = r.Add(domain.Publisher{ID: 2})
	require.NoError(t, err)

	_, err = r.Add(domain.Publisher{ID: 3})
	assert.ErrorIs(t, err, core.ErrRosterFull)
	assert.Equal(t, 2, r.Len())
}

func TestRosterDuplicateRejected(t *testing.T) {
	r := NewRoster(3)
	_, err := r.Add(domain.Publisher{ID: 1})
	require.NoError(t, err)
	_, err = r.Add(domain.Publisher{ID: 1})
	assert.ErrorIs(t, err, core.ErrDuplicateFeed)
	assert.Equal(t, 1, r.Len())
}

func TestRosterRemovalIsIsolated(t *testing.T) {
	r := NewRoster(5)
	x, _ := r.Add(domain.Publisher{ID: 1, Display: "x"})
	y, _ := r.Add(domain.Publisher{ID: 2, Display: "y"})
	x.Sess = domain.NewSession("feed-1", domain.KindRoomSubscriber)
	y.Sess = domain.NewSession("feed-2", domain.KindRoomSubscriber)
	y.Sess.State = domain.StateActive

	removed, ok := r.Remove(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), removed.Pub.ID)

	// The sibling is untouched.
	still, ok := r.Get(2)
	require.True(t, ok)
	assert.Equal(t, domain.StateActive, still.Sess.State)
	assert.Equal(t, y.Slot, still.Slot)

	_, ok = r.Remove(1)
	assert.False(t, ok, "second removal is a no-op")
}

func TestRosterSnapshotAndDrain(t *testing.T) {
	r := NewRoster(3)
	r.Add(domain.Publisher{ID: 5})
	r.Add(domain.Publisher{ID: 6})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, uint64(5), snap[0].Pub.ID)
	assert.Equal(t, uint64(6), snap[1].Pub.ID)

	drained := r.Drain()
	assert.Len(t, drained, 2)
	assert.Zero(t, r.Len())

	// Slots are reusable after a drain.
	s, err := r.Add(domain.Publisher{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Slot)
}
