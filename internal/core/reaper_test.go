package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRespectsThreshold(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	reg.LeaveRoom(room.ID, room.HostID)

	// Marker is fresh, a long TTL keeps the room.
	assert.Empty(t, reg.Sweep(time.Hour))
	_, ok := reg.GetRoom(room.ID)
	assert.True(t, ok)

	// A zero TTL expires any marker.
	reaped := reg.Sweep(0)
	require.Len(t, reaped, 1)
	assert.Equal(t, room.ID, reaped[0])
	_, ok = reg.GetRoom(room.ID)
	assert.False(t, ok)
}

func TestSweepIgnoresOccupiedRooms(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	assert.Empty(t, reg.Sweep(0))
	_, ok := reg.GetRoom(room.ID)
	assert.True(t, ok)
}

func TestSweepSkipsReclaimedRoom(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	hostID := room.HostID

	reg.LeaveRoom(room.ID, hostID)
	_, cerr := reg.JoinRoom(room.ID, "Ava", hostID)
	require.Nil(t, cerr)

	assert.Empty(t, reg.Sweep(0), "reclaimed room has no marker to expire")
}

func TestReaperRun(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	reg.LeaveRoom(room.ID, room.HostID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaper := NewReaper(reg, nil, 10*time.Millisecond, 0, testLogger())
	go reaper.Run(ctx)

	require.Eventually(t, func() bool {
		_, ok := reg.GetRoom(room.ID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "reaper should delete the abandoned room")
}
