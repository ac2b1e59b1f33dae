package core

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistryConfig controls registry-level policies.
type RegistryConfig struct {
	// RetainWhenLastLeaves keeps a room alive (with an empty-room
	// marker) when the last leaver was not the remembered host. When
	// false such rooms are deleted synchronously. Rooms whose host is
	// the last leaver are always retained so the host can return.
	RetainWhenLastLeaves bool
}

// Registry is the authoritative map of live rooms. All mutations on a
// given room are serialized by that room's own mutex; the registry
// mutex only guards the map itself. Callers never see the locks:
// every operation is atomic and returns snapshots.
type Registry struct {
	cfg RegistryConfig
	log *zerolog.Logger

	mu    sync.RWMutex
	rooms map[string]*roomState
}

// roomState pairs a room with its lock and empty-room marker.
// emptiedAt is zero while the room is occupied.
type roomState struct {
	mu        sync.Mutex
	room      Room
	emptiedAt time.Time
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg RegistryConfig, logger *zerolog.Logger) *Registry {
	return &Registry{
		cfg:   cfg,
		log:   logger,
		rooms: make(map[string]*roomState),
	}
}

// JoinResult is the outcome of a successful JoinRoom. Rejoined is true
// when the identity already belonged to the room (active member or
// returning host), in which case no user-joined broadcast is due.
type JoinResult struct {
	Room        Room
	Participant Participant
	Rejoined    bool
}

// LeaveResult is the outcome of a successful LeaveRoom. Room is the
// post-leave snapshot; Deleted reports that the room was removed under
// the RetainWhenLastLeaves=false policy.
type LeaveResult struct {
	Room    Room
	Left    Participant
	NewHost *Participant
	Deleted bool
}

// RoomUpdate is a partial update; nil fields are left unchanged.
type RoomUpdate struct {
	Name   *string
	Public *bool
}

// CreateRoom registers a new room with the creator as its sole host
// participant. hostID may be supplied to pre-commit an identity minted
// before the room existed; when empty a fresh one is generated.
func (reg *Registry) CreateRoom(name string, public bool, maxParticipants int, hostName, hostID string) (Room, *CoreError) {
	if name == "" {
		return Room{}, coreError(ErrCodeBadRequest, "room name is required")
	}
	if maxParticipants < 1 {
		return Room{}, coreError(ErrCodeBadRequest, "max participants must be at least 1")
	}
	if hostID == "" {
		hostID = uuid.NewString()
	}
	if hostName == "" {
		hostName = hostID
	}

	now := time.Now()
	room := Room{
		ID:              uuid.NewString(),
		Name:            name,
		Public:          public,
		MaxParticipants: maxParticipants,
		HostID:          hostID,
		Participants: []Participant{{
			ID:       hostID,
			Name:     hostName,
			IsHost:   true,
			JoinedAt: now,
		}},
		CreatedAt: now,
	}

	reg.mu.Lock()
	reg.rooms[room.ID] = &roomState{room: room}
	reg.mu.Unlock()

	reg.log.Info().
		Str("room_id", room.ID).
		Str("room_name", name).
		Str("host_id", hostID).
		Int("max_participants", maxParticipants).
		Msg("room created")

	return room.clone(), nil
}

// JoinRoom admits a participant, resolving reconnections. Outcomes, in
// priority order:
//
//  1. no identity supplied: brand-new participant, generated identity;
//  2. identity already an active member: idempotent rejoin, display
//     name refreshed, no second entry appended;
//  3. identity equals the room's remembered host while the room is
//     empty: the returning host, readmitted with the host flag and the
//     empty-room marker cleared;
//  4. any other supplied identity: new participant under that identity.
//
// The capacity check applies to outcomes 1 and 4 only; rejoins never
// grow the room so they are admitted even at full occupancy.
func (reg *Registry) JoinRoom(roomID, displayName, participantID string) (JoinResult, *CoreError) {
	st, ok := reg.state(roomID)
	if !ok {
		return JoinResult{}, coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	room := &st.room

	if participantID != "" {
		if i := room.participantIndex(participantID); i >= 0 {
			if displayName != "" && room.Participants[i].Name != displayName {
				room.Participants[i].Name = displayName
			}
			st.emptiedAt = time.Time{}
			return JoinResult{Room: room.clone(), Participant: room.Participants[i], Rejoined: true}, nil
		}
		if participantID == room.HostID && len(room.Participants) == 0 {
			if displayName == "" {
				displayName = participantID
			}
			p := Participant{
				ID:       participantID,
				Name:     displayName,
				IsHost:   true,
				JoinedAt: time.Now(),
			}
			room.Participants = append(room.Participants, p)
			st.emptiedAt = time.Time{}
			reg.log.Info().Str("room_id", roomID).Str("participant_id", participantID).Msg("host returned to empty room")
			return JoinResult{Room: room.clone(), Participant: p, Rejoined: true}, nil
		}
	}

	if len(room.Participants) >= room.MaxParticipants {
		return JoinResult{}, coreError(ErrCodeRoomFull, "room is full")
	}

	if participantID == "" {
		participantID = uuid.NewString()
	}
	if displayName == "" {
		displayName = participantID
	}
	p := Participant{
		ID:       participantID,
		Name:     displayName,
		JoinedAt: time.Now(),
	}
	room.Participants = append(room.Participants, p)
	st.emptiedAt = time.Time{}

	reg.log.Info().
		Str("room_id", roomID).
		Str("participant_id", participantID).
		Str("display_name", displayName).
		Msg("participant joined")

	return JoinResult{Room: room.clone(), Participant: p}, nil
}

// LeaveRoom removes a participant. When the departing host leaves
// others behind, the earliest-joined remaining participant is promoted
// (participant order is join order, so succession is deterministic).
// When the room empties it is retained with an empty-room marker so
// the host can reclaim it; deletion is the reaper's job, except under
// the RetainWhenLastLeaves=false policy for a non-host last leaver.
func (reg *Registry) LeaveRoom(roomID, participantID string) (LeaveResult, *CoreError) {
	st, ok := reg.state(roomID)
	if !ok {
		return LeaveResult{}, coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	room := &st.room

	i := room.participantIndex(participantID)
	if i < 0 {
		st.mu.Unlock()
		return LeaveResult{}, coreError(ErrCodeParticipantNotFound, "participant not found")
	}

	left := room.Participants[i]
	room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)

	res := LeaveResult{Left: left}

	switch {
	case len(room.Participants) == 0:
		if left.IsHost || left.ID == room.HostID || reg.cfg.RetainWhenLastLeaves {
			st.emptiedAt = time.Now()
			reg.log.Info().Str("room_id", roomID).Str("participant_id", participantID).Msg("room emptied, retained for return")
		} else {
			res.Deleted = true
		}
	case left.IsHost:
		room.Participants[0].IsHost = true
		room.HostID = room.Participants[0].ID
		p := room.Participants[0]
		res.NewHost = &p
		reg.log.Info().
			Str("room_id", roomID).
			Str("old_host", left.ID).
			Str("new_host", p.ID).
			Msg("host left, promoted successor")
	}

	res.Room = room.clone()
	st.mu.Unlock()

	if res.Deleted {
		reg.remove(roomID, st)
		reg.log.Info().Str("room_id", roomID).Msg("room deleted, last participant left")
	}

	return res, nil
}

// TransferHost moves the host flag to another active participant.
func (reg *Registry) TransferHost(roomID, newHostID string) (Room, *CoreError) {
	st, ok := reg.state(roomID)
	if !ok {
		return Room{}, coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	room := &st.room
	i := room.participantIndex(newHostID)
	if i < 0 {
		return Room{}, coreError(ErrCodeParticipantNotFound, "target participant not found")
	}

	for j := range room.Participants {
		room.Participants[j].IsHost = j == i
	}
	room.HostID = newHostID

	reg.log.Info().Str("room_id", roomID).Str("new_host", newHostID).Msg("host transferred")
	return room.clone(), nil
}

// UpdateRoom applies a partial settings update.
func (reg *Registry) UpdateRoom(roomID string, upd RoomUpdate) (Room, *CoreError) {
	st, ok := reg.state(roomID)
	if !ok {
		return Room{}, coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if upd.Name != nil {
		if *upd.Name == "" {
			return Room{}, coreError(ErrCodeBadRequest, "room name is required")
		}
		st.room.Name = *upd.Name
	}
	if upd.Public != nil {
		st.room.Public = *upd.Public
	}
	return st.room.clone(), nil
}

// AddItem attaches a content item to the room.
func (reg *Registry) AddItem(roomID, title string, payload json.RawMessage) (QuizItem, *CoreError) {
	st, ok := reg.state(roomID)
	if !ok {
		return QuizItem{}, coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	item := QuizItem{
		ID:      uuid.NewString(),
		Title:   title,
		Payload: payload,
	}
	st.room.Items = append(st.room.Items, item)
	return item, nil
}

// RemoveItem detaches a content item from the room.
func (reg *Registry) RemoveItem(roomID, itemID string) *CoreError {
	st, ok := reg.state(roomID)
	if !ok {
		return coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	room := &st.room
	i := room.itemIndex(itemID)
	if i < 0 {
		return coreError(ErrCodeItemNotFound, "item not found")
	}
	room.Items = append(room.Items[:i], room.Items[i+1:]...)
	if room.CurrentItemID == itemID {
		room.CurrentItemID = ""
	}
	return nil
}

// StartItem marks an item as the one currently running.
func (reg *Registry) StartItem(roomID, itemID string) (QuizItem, *CoreError) {
	st, ok := reg.state(roomID)
	if !ok {
		return QuizItem{}, coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	room := &st.room
	i := room.itemIndex(itemID)
	if i < 0 {
		return QuizItem{}, coreError(ErrCodeItemNotFound, "item not found")
	}
	room.Items[i].Started = true
	room.CurrentItemID = itemID
	return room.Items[i], nil
}

// JudgeAnswer records the host's verdict on a participant's answer,
// awarding points on a correct one. Returns the updated participant.
func (reg *Registry) JudgeAnswer(roomID, participantID string, correct bool, points int) (Participant, *CoreError) {
	st, ok := reg.state(roomID)
	if !ok {
		return Participant{}, coreError(ErrCodeRoomNotFound, "room not found")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	room := &st.room
	i := room.participantIndex(participantID)
	if i < 0 {
		return Participant{}, coreError(ErrCodeParticipantNotFound, "participant not found")
	}
	if correct {
		room.Participants[i].Score += points
	}
	return room.Participants[i], nil
}

// GetRoom returns a snapshot of the room, if it exists.
func (reg *Registry) GetRoom(roomID string) (Room, bool) {
	st, ok := reg.state(roomID)
	if !ok {
		return Room{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.room.clone(), true
}

// GetParticipant returns the participant as currently recorded. The
// hub re-reads host status through this on every privileged request.
func (reg *Registry) GetParticipant(roomID, participantID string) (Participant, bool) {
	st, ok := reg.state(roomID)
	if !ok {
		return Participant{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.room.Participant(participantID)
}

// ListPublicRooms returns point-in-time snapshots of all public rooms.
func (reg *Registry) ListPublicRooms() []Room {
	reg.mu.RLock()
	states := make([]*roomState, 0, len(reg.rooms))
	for _, st := range reg.rooms {
		states = append(states, st)
	}
	reg.mu.RUnlock()

	out := make([]Room, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		if st.room.Public {
			out = append(out, st.room.clone())
		}
		st.mu.Unlock()
	}
	return out
}

// RoomCount reports how many rooms are registered.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// EmptySince reports the empty-room marker for a room; ok is false
// when the room is unknown or currently occupied.
func (reg *Registry) EmptySince(roomID string) (time.Time, bool) {
	st, ok := reg.state(roomID)
	if !ok {
		return time.Time{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.emptiedAt.IsZero() {
		return time.Time{}, false
	}
	return st.emptiedAt, true
}

// Sweep deletes every room whose empty-room marker is older than ttl
// and returns the ids removed. Called by the reaper; exposed for
// deterministic tests.
func (reg *Registry) Sweep(ttl time.Duration) []string {
	cutoff := time.Now().Add(-ttl)

	reg.mu.RLock()
	candidates := make(map[string]*roomState, len(reg.rooms))
	for id, st := range reg.rooms {
		candidates[id] = st
	}
	reg.mu.RUnlock()

	var reaped []string
	for id, st := range candidates {
		st.mu.Lock()
		expired := !st.emptiedAt.IsZero() && st.emptiedAt.Before(cutoff)
		st.mu.Unlock()
		if expired {
			reg.remove(id, st)
			reaped = append(reaped, id)
		}
	}
	return reaped
}

// remove deletes a room from the map, re-checking identity so a sweep
// never removes a room that was replaced concurrently.
func (reg *Registry) remove(roomID string, st *roomState) {
	reg.mu.Lock()
	if cur, ok := reg.rooms[roomID]; ok && cur == st {
		delete(reg.rooms, roomID)
	}
	reg.mu.Unlock()
}

func (reg *Registry) state(roomID string) (*roomState, bool) {
	reg.mu.RLock()
	st, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	return st, ok
}
