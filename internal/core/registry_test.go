package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireHostInvariant checks that a non-empty room has exactly one
// host participant and that it matches HostID.
func requireHostInvariant(t *testing.T, room Room) {
	t.Helper()

	if len(room.Participants) == 0 {
		return
	}
	hosts := 0
	for _, p := range room.Participants {
		if p.IsHost {
			hosts++
			assert.Equal(t, room.HostID, p.ID, "host flag on participant not matching HostID")
		}
	}
	assert.LessOrEqual(t, hosts, 1, "more than one host in room")
}

func TestCreateRoomValidation(t *testing.T) {
	reg := newTestRegistry(true)

	_, cerr := reg.CreateRoom("", true, 4, "Ava", "")
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeBadRequest, cerr.Code)

	_, cerr = reg.CreateRoom("Quiz Night", true, 0, "Ava", "")
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeBadRequest, cerr.Code)
}

func TestCreateRoomInitialHost(t *testing.T) {
	reg := newTestRegistry(true)

	room, cerr := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	require.Nil(t, cerr)
	require.Len(t, room.Participants, 1)

	host := room.Participants[0]
	assert.True(t, host.IsHost)
	assert.Equal(t, room.HostID, host.ID)
	assert.Equal(t, "Ava", host.Name)
	requireHostInvariant(t, room)
}

func TestCreateRoomPreCommittedIdentity(t *testing.T) {
	reg := newTestRegistry(true)

	room, cerr := reg.CreateRoom("Quiz Night", false, 4, "Ava", "ava-identity")
	require.Nil(t, cerr)
	assert.Equal(t, "ava-identity", room.HostID)
	assert.Equal(t, "ava-identity", room.Participants[0].ID)
}

func TestJoinUnknownRoom(t *testing.T) {
	reg := newTestRegistry(true)

	_, cerr := reg.JoinRoom("ghost", "Ben", "")
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeRoomNotFound, cerr.Code)
}

func TestJoinIdempotentForActiveMember(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	first, cerr := reg.JoinRoom(room.ID, "Ben", "")
	require.Nil(t, cerr)
	assert.False(t, first.Rejoined)

	again, cerr := reg.JoinRoom(room.ID, "Benny", first.Participant.ID)
	require.Nil(t, cerr)
	assert.True(t, again.Rejoined)
	assert.Equal(t, first.Participant.ID, again.Participant.ID)
	assert.Equal(t, "Benny", again.Participant.Name, "display name refreshed on rejoin")
	assert.Len(t, again.Room.Participants, 2, "rejoin must not append a duplicate")
}

func TestJoinCapacity(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Tiny", true, 2, "Ava", "")

	ben, cerr := reg.JoinRoom(room.ID, "Ben", "")
	require.Nil(t, cerr)

	_, cerr = reg.JoinRoom(room.ID, "Cal", "")
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeRoomFull, cerr.Code)

	got, ok := reg.GetRoom(room.ID)
	require.True(t, ok)
	assert.Len(t, got.Participants, 2, "failed join must not change the room")

	// Reconnection of an existing member never fails on capacity.
	res, cerr := reg.JoinRoom(room.ID, "Ben", ben.Participant.ID)
	require.Nil(t, cerr)
	assert.True(t, res.Rejoined)
	assert.Len(t, res.Room.Participants, 2)
}

func TestJoinWithClientMintedIdentity(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	res, cerr := reg.JoinRoom(room.ID, "Ben", "ben-identity")
	require.Nil(t, cerr)
	assert.False(t, res.Rejoined)
	assert.Equal(t, "ben-identity", res.Participant.ID)
	assert.False(t, res.Participant.IsHost)
}

func TestHostContinuityAcrossEmptiness(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	hostID := room.HostID

	res, cerr := reg.LeaveRoom(room.ID, hostID)
	require.Nil(t, cerr)
	assert.False(t, res.Deleted)
	assert.Empty(t, res.Room.Participants)

	got, ok := reg.GetRoom(room.ID)
	require.True(t, ok, "room must survive its host leaving")
	assert.Empty(t, got.Participants)
	assert.Equal(t, hostID, got.HostID)
	assert.Equal(t, "Quiz Night", got.Name)
	assert.True(t, got.Public)
	assert.Equal(t, 4, got.MaxParticipants)

	_, marked := reg.EmptySince(room.ID)
	assert.True(t, marked, "empty-room marker must be recorded")
}

func TestHostReturnClearsMarker(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	hostID := room.HostID

	_, cerr := reg.LeaveRoom(room.ID, hostID)
	require.Nil(t, cerr)

	res, cerr := reg.JoinRoom(room.ID, "Ava", hostID)
	require.Nil(t, cerr)
	assert.True(t, res.Participant.IsHost)
	assert.True(t, res.Rejoined)
	require.Len(t, res.Room.Participants, 1)
	assert.Equal(t, "Ava", res.Room.Participants[0].Name)
	requireHostInvariant(t, res.Room)

	_, marked := reg.EmptySince(room.ID)
	assert.False(t, marked, "marker must be cleared on return")
}

func TestHostSuccessionByJoinOrder(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	hostID := room.HostID

	ben, _ := reg.JoinRoom(room.ID, "Ben", "")
	cal, _ := reg.JoinRoom(room.ID, "Cal", "")

	res, cerr := reg.LeaveRoom(room.ID, hostID)
	require.Nil(t, cerr)
	require.NotNil(t, res.NewHost)
	assert.Equal(t, ben.Participant.ID, res.NewHost.ID, "earliest-joined member must be promoted")
	assert.Equal(t, ben.Participant.ID, res.Room.HostID)
	requireHostInvariant(t, res.Room)

	_, stillThere := res.Room.Participant(cal.Participant.ID)
	assert.True(t, stillThere)
	_, gone := res.Room.Participant(hostID)
	assert.False(t, gone)
}

func TestLeaveUnknownParticipant(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	_, cerr := reg.LeaveRoom(room.ID, "nobody")
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeParticipantNotFound, cerr.Code)

	_, cerr = reg.LeaveRoom("ghost", "nobody")
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeRoomNotFound, cerr.Code)
}

// A participant who joined a host-abandoned room under a fresh
// identity is not the remembered host; whether the room survives them
// leaving is policy.
func TestNonHostLastLeaverRetained(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	reg.LeaveRoom(room.ID, room.HostID)

	ben, cerr := reg.JoinRoom(room.ID, "Ben", "ben-identity")
	require.Nil(t, cerr)
	assert.False(t, ben.Participant.IsHost)

	res, cerr := reg.LeaveRoom(room.ID, ben.Participant.ID)
	require.Nil(t, cerr)
	assert.False(t, res.Deleted)

	_, ok := reg.GetRoom(room.ID)
	assert.True(t, ok)
	_, marked := reg.EmptySince(room.ID)
	assert.True(t, marked)
}

func TestNonHostLastLeaverDeletesWhenNotRetained(t *testing.T) {
	reg := newTestRegistry(false)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	reg.LeaveRoom(room.ID, room.HostID)

	ben, cerr := reg.JoinRoom(room.ID, "Ben", "ben-identity")
	require.Nil(t, cerr)

	res, cerr := reg.LeaveRoom(room.ID, ben.Participant.ID)
	require.Nil(t, cerr)
	assert.True(t, res.Deleted)

	_, ok := reg.GetRoom(room.ID)
	assert.False(t, ok)
}

func TestHostLastLeaverAlwaysRetained(t *testing.T) {
	reg := newTestRegistry(false)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	res, cerr := reg.LeaveRoom(room.ID, room.HostID)
	require.Nil(t, cerr)
	assert.False(t, res.Deleted, "host departure must never delete the room")

	_, ok := reg.GetRoom(room.ID)
	assert.True(t, ok)
}

func TestTransferHost(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	hostID := room.HostID
	ben, _ := reg.JoinRoom(room.ID, "Ben", "")

	updated, cerr := reg.TransferHost(room.ID, ben.Participant.ID)
	require.Nil(t, cerr)
	assert.Equal(t, ben.Participant.ID, updated.HostID)
	requireHostInvariant(t, updated)

	old, _ := updated.Participant(hostID)
	assert.False(t, old.IsHost)
	target, _ := updated.Participant(ben.Participant.ID)
	assert.True(t, target.IsHost)

	_, cerr = reg.TransferHost(room.ID, "nobody")
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeParticipantNotFound, cerr.Code)
}

func TestUpdateRoomPartial(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	name := "Trivia Tuesday"
	updated, cerr := reg.UpdateRoom(room.ID, RoomUpdate{Name: &name})
	require.Nil(t, cerr)
	assert.Equal(t, "Trivia Tuesday", updated.Name)
	assert.True(t, updated.Public, "omitted fields unchanged")

	private := false
	updated, cerr = reg.UpdateRoom(room.ID, RoomUpdate{Public: &private})
	require.Nil(t, cerr)
	assert.Equal(t, "Trivia Tuesday", updated.Name)
	assert.False(t, updated.Public)

	empty := ""
	_, cerr = reg.UpdateRoom(room.ID, RoomUpdate{Name: &empty})
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeBadRequest, cerr.Code)
}

func TestItemLifecycle(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	item, cerr := reg.AddItem(room.ID, "Capital of France", []byte(`{"options":["Paris","Lyon"]}`))
	require.Nil(t, cerr)
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.Started)

	started, cerr := reg.StartItem(room.ID, item.ID)
	require.Nil(t, cerr)
	assert.True(t, started.Started)

	got, _ := reg.GetRoom(room.ID)
	assert.Equal(t, item.ID, got.CurrentItemID)

	require.Nil(t, reg.RemoveItem(room.ID, item.ID))
	got, _ = reg.GetRoom(room.ID)
	assert.Empty(t, got.Items)
	assert.Empty(t, got.CurrentItemID, "removing the current item clears it")

	cerr = reg.RemoveItem(room.ID, item.ID)
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeItemNotFound, cerr.Code)
}

func TestJudgeAnswer(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	ben, _ := reg.JoinRoom(room.ID, "Ben", "")

	p, cerr := reg.JudgeAnswer(room.ID, ben.Participant.ID, true, 3)
	require.Nil(t, cerr)
	assert.Equal(t, 3, p.Score)

	p, cerr = reg.JudgeAnswer(room.ID, ben.Participant.ID, false, 3)
	require.Nil(t, cerr)
	assert.Equal(t, 3, p.Score, "incorrect answers award nothing")

	_, cerr = reg.JudgeAnswer(room.ID, "nobody", true, 1)
	require.NotNil(t, cerr)
	assert.Equal(t, ErrCodeParticipantNotFound, cerr.Code)
}

func TestListPublicRooms(t *testing.T) {
	reg := newTestRegistry(true)
	pub, _ := reg.CreateRoom("Open", true, 4, "Ava", "")
	reg.CreateRoom("Hidden", false, 4, "Ben", "")

	rooms := reg.ListPublicRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, pub.ID, rooms[0].ID)
}

func TestSnapshotsDoNotAliasRegistryState(t *testing.T) {
	reg := newTestRegistry(true)
	room, _ := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")

	room.Participants[0].Name = "Mallory"
	room.Name = "Hijacked"

	got, _ := reg.GetRoom(room.ID)
	assert.Equal(t, "Quiz Night", got.Name)
	assert.Equal(t, "Ava", got.Participants[0].Name)
}

// Scenario from the room lifecycle design: create, a member joins,
// the host drops; the room survives under the promoted member.
func TestScenarioHostDropWithMemberPresent(t *testing.T) {
	reg := newTestRegistry(true)

	room, cerr := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	require.Nil(t, cerr)

	ben, cerr := reg.JoinRoom(room.ID, "Ben", "")
	require.Nil(t, cerr)

	_, cerr = reg.LeaveRoom(room.ID, room.HostID)
	require.Nil(t, cerr)

	got, ok := reg.GetRoom(room.ID)
	require.True(t, ok)
	assert.Equal(t, ben.Participant.ID, got.HostID)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "Ben", got.Participants[0].Name)
	assert.True(t, got.Participants[0].IsHost)
}

// Scenario: host drops alone and reclaims the room with the original
// identity.
func TestScenarioHostDropAndReclaim(t *testing.T) {
	reg := newTestRegistry(true)

	room, cerr := reg.CreateRoom("Quiz Night", true, 4, "Ava", "")
	require.Nil(t, cerr)
	hostID := room.HostID

	_, cerr = reg.LeaveRoom(room.ID, hostID)
	require.Nil(t, cerr)

	got, ok := reg.GetRoom(room.ID)
	require.True(t, ok)
	assert.Empty(t, got.Participants)

	res, cerr := reg.JoinRoom(room.ID, "Ava", hostID)
	require.Nil(t, cerr)
	assert.True(t, res.Participant.IsHost)
	require.Len(t, res.Room.Participants, 1)
	assert.Equal(t, "Ava", res.Room.Participants[0].Name)
}
