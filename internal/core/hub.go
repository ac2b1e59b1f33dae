package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Hub routes client commands to the registry and fans resulting events
// out to room members. Each registered client gets one pump goroutine
// draining its command channel, so commands from a single connection
// are processed in order while different connections interleave freely.
//
// Every room-addressed step (registry commit, subscription change,
// event enqueue) runs under that room's sequencer, so all subscribers
// observe one room's mutation history in commit order.
type Hub struct {
	registry   *Registry
	defaultMax int
	log        *zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	subs    map[string]map[*Client]struct{} // room id -> subscribed clients

	seqMu sync.Mutex
	seqs  map[string]*roomSequencer
}

// roomSequencer serializes commit plus fan-out for one room. refs
// counts goroutines holding or waiting on the lock so an entry is only
// pruned once nobody can still be using it.
type roomSequencer struct {
	mu   sync.Mutex
	refs int
}

// NewHub builds a hub on top of a registry. defaultMax is the room
// capacity applied when a create request omits one.
func NewHub(registry *Registry, defaultMax int, logger *zerolog.Logger) *Hub {
	return &Hub{
		registry:   registry,
		defaultMax: defaultMax,
		log:        logger,
		clients:    make(map[*Client]struct{}),
		subs:       make(map[string]map[*Client]struct{}),
		seqs:       make(map[string]*roomSequencer),
	}
}

// Run blocks until the context is cancelled, then disconnects every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.RLock()
	remaining := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		remaining = append(remaining, c)
	}
	h.mu.RUnlock()

	for _, c := range remaining {
		h.UnregisterClient(c)
	}
}

// RegisterClient admits a client and starts its command pump.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.pump(c)
}

// UnregisterClient signals the client's pump to perform the implicit
// leave and exit. Safe to call once per registered client; repeated
// calls are ignored.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		close(c.quit)
	}
}

// pump owns the client's session fields. It drains commands until the
// client is unregistered, then runs disconnect cleanup and closes the
// event channel so the transport's write loop terminates.
func (h *Hub) pump(c *Client) {
	defer close(c.Events)
	for {
		select {
		case <-c.quit:
			h.leaveCurrent(c)
			return
		case cmd := <-c.Commands:
			h.dispatch(c, cmd)
		}
	}
}

// dispatch handles one command. A panic inside a handler is contained
// here: it is logged and surfaced to the offending client only, never
// to other connections.
func (h *Hub) dispatch(c *Client, cmd *Command) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().
				Interface("panic", r).
				Str("client_id", c.ID).
				Int("command_kind", int(cmd.Kind)).
				Msg("recovered from handler panic")
			h.sendError(c, coreError(ErrCodeInternal, "internal error"))
		}
	}()

	switch cmd.Kind {
	case CommandCreateRoom:
		h.handleCreateRoom(c, cmd.Create)
	case CommandJoinRoom:
		h.handleJoinRoom(c, cmd.Join)
	case CommandLeaveRoom:
		h.handleLeaveRoom(c)
	case CommandListRooms:
		h.send(c, &Event{Kind: EventRoomList, Rooms: h.registry.ListPublicRooms()})
	case CommandTransferHost:
		h.handleTransferHost(c, cmd.Transfer)
	case CommandUpdateRoom:
		h.handleUpdateRoom(c, cmd.Update)
	case CommandAddItem:
		h.handleAddItem(c, cmd.Item)
	case CommandRemoveItem:
		h.handleRemoveItem(c, cmd.Item)
	case CommandStartItem:
		h.handleStartItem(c, cmd.Item)
	case CommandSubmitAnswer:
		h.handleSubmitAnswer(c, cmd.Answer)
	case CommandJudge:
		h.handleJudge(c, cmd.Judge)
	default:
		h.sendError(c, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

// handleCreateRoom validates and commits the new room before touching
// the requester's current membership: a rejected create leaves the
// requester exactly where they were.
func (h *Hub) handleCreateRoom(c *Client, cmd *CreateRoomCommand) {
	max := cmd.MaxParticipants
	if max == 0 {
		max = h.defaultMax
	}
	name := cmd.DisplayName
	if name == "" {
		name = c.Name
	}
	hostID := cmd.HostID
	if hostID == "" {
		hostID = c.UserID
	}

	room, cerr := h.registry.CreateRoom(cmd.Name, cmd.Public, max, name, hostID)
	if cerr != nil {
		h.sendError(c, cerr)
		return
	}

	h.leaveCurrent(c)

	seq := h.lockRoom(room.ID)
	h.subscribe(room.ID, c)
	// Re-read under the sequencer: the room id is already listed, so a
	// join may have committed between creation and our subscription.
	if snap, ok := h.registry.GetRoom(room.ID); ok {
		room = snap
	}
	host, _ := room.Participant(room.HostID)
	c.UserID = host.ID
	c.Name = host.Name
	c.RoomID = room.ID
	h.send(c, &Event{Kind: EventRoomCreated, Room: &room})
	h.send(c, &Event{Kind: EventRoomJoined, Room: &room, Participant: &host})
	h.unlockRoom(room.ID, seq)
}

// handleJoinRoom admits the requester into the target room first; the
// implicit leave from the previous room happens only after the new
// admission succeeded, so a NotFound or Full join disturbs nothing.
func (h *Hub) handleJoinRoom(c *Client, cmd *JoinRoomCommand) {
	pid := cmd.ParticipantID
	if pid == "" {
		pid = c.UserID
	}
	name := cmd.DisplayName
	if name == "" {
		name = c.Name
	}

	prevRoom, prevUser := c.RoomID, c.UserID

	seq := h.lockRoom(cmd.RoomID)
	res, cerr := h.registry.JoinRoom(cmd.RoomID, name, pid)
	if cerr != nil {
		h.unlockRoom(cmd.RoomID, seq)
		h.sendError(c, cerr)
		return
	}

	h.subscribe(res.Room.ID, c)
	c.UserID = res.Participant.ID
	c.Name = res.Participant.Name
	c.RoomID = res.Room.ID
	h.send(c, &Event{Kind: EventRoomJoined, Room: &res.Room, Participant: &res.Participant})
	if !res.Rejoined {
		h.broadcastOthers(res.Room.ID, c, &Event{Kind: EventUserJoined, Participant: &res.Participant})
	}
	h.unlockRoom(cmd.RoomID, seq)

	if prevRoom != "" && prevRoom != res.Room.ID {
		h.leaveFrom(c, prevRoom, prevUser)
	}
}

// handleLeaveRoom is idempotent: leaving while not in a room still
// yields a room-left confirmation.
func (h *Hub) handleLeaveRoom(c *Client) {
	h.leaveCurrent(c)
	h.send(c, &Event{Kind: EventRoomLeft})
}

// leaveCurrent removes the client from its current room, notifying the
// remaining members. Used by explicit leave and disconnect cleanup.
func (h *Hub) leaveCurrent(c *Client) {
	if c.RoomID == "" {
		return
	}
	roomID := c.RoomID
	c.RoomID = ""
	h.leaveFrom(c, roomID, c.UserID)
}

// leaveFrom withdraws an identity from a room. The session fields are
// the caller's business; this only updates registry, subscription, and
// the remaining members.
func (h *Hub) leaveFrom(c *Client, roomID, userID string) {
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	h.unsubscribe(roomID, c)

	res, cerr := h.registry.LeaveRoom(roomID, userID)
	if cerr != nil {
		// Room already reaped or identity never admitted; cleanup is
		// best-effort.
		h.log.Debug().Str("room_id", roomID).Str("user_id", userID).Str("code", cerr.Code).Msg("leave skipped")
		return
	}

	if len(res.Room.Participants) > 0 {
		h.broadcast(roomID, &Event{Kind: EventUserLeft, UserID: res.Left.ID})
		if res.NewHost != nil {
			h.broadcast(roomID, &Event{Kind: EventHostTransferred, UserID: res.NewHost.ID, Participant: res.NewHost})
		}
	}
}

func (h *Hub) handleTransferHost(c *Client, cmd *TransferHostCommand) {
	if c.RoomID == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "not in a room"))
		return
	}
	roomID := c.RoomID
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	if cerr := h.requireHost(c); cerr != nil {
		h.sendError(c, cerr)
		return
	}

	room, cerr := h.registry.TransferHost(roomID, cmd.TargetID)
	if cerr != nil {
		h.sendError(c, cerr)
		return
	}

	target, _ := room.Participant(cmd.TargetID)
	h.broadcast(room.ID, &Event{Kind: EventHostTransferred, UserID: cmd.TargetID, Participant: &target})
}

func (h *Hub) handleUpdateRoom(c *Client, upd *RoomUpdate) {
	if c.RoomID == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "not in a room"))
		return
	}
	roomID := c.RoomID
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	if cerr := h.requireHost(c); cerr != nil {
		h.sendError(c, cerr)
		return
	}

	room, cerr := h.registry.UpdateRoom(roomID, *upd)
	if cerr != nil {
		h.sendError(c, cerr)
		return
	}

	h.broadcast(room.ID, &Event{Kind: EventRoomUpdated, Room: &room})
}

func (h *Hub) handleAddItem(c *Client, cmd *ItemCommand) {
	if c.RoomID == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "not in a room"))
		return
	}
	roomID := c.RoomID
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	if cerr := h.requireHost(c); cerr != nil {
		h.sendError(c, cerr)
		return
	}

	item, cerr := h.registry.AddItem(roomID, cmd.Title, cmd.Payload)
	if cerr != nil {
		h.sendError(c, cerr)
		return
	}

	h.broadcast(roomID, &Event{Kind: EventItemAdded, Item: &item})
}

func (h *Hub) handleRemoveItem(c *Client, cmd *ItemCommand) {
	if c.RoomID == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "not in a room"))
		return
	}
	roomID := c.RoomID
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	if cerr := h.requireHost(c); cerr != nil {
		h.sendError(c, cerr)
		return
	}

	if cerr := h.registry.RemoveItem(roomID, cmd.ItemID); cerr != nil {
		h.sendError(c, cerr)
		return
	}

	h.broadcast(roomID, &Event{Kind: EventItemRemoved, Item: &QuizItem{ID: cmd.ItemID}})
}

func (h *Hub) handleStartItem(c *Client, cmd *ItemCommand) {
	if c.RoomID == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "not in a room"))
		return
	}
	roomID := c.RoomID
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	if cerr := h.requireHost(c); cerr != nil {
		h.sendError(c, cerr)
		return
	}

	item, cerr := h.registry.StartItem(roomID, cmd.ItemID)
	if cerr != nil {
		h.sendError(c, cerr)
		return
	}

	h.broadcast(roomID, &Event{Kind: EventItemStarted, Item: &item})
}

func (h *Hub) handleSubmitAnswer(c *Client, cmd *AnswerCommand) {
	if c.RoomID == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "not in a room"))
		return
	}
	roomID := c.RoomID
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	if _, ok := h.registry.GetParticipant(roomID, c.UserID); !ok {
		h.sendError(c, coreError(ErrCodeParticipantNotFound, "participant not found"))
		return
	}

	h.broadcast(roomID, &Event{Kind: EventAnswerSubmitted, UserID: c.UserID, Answer: cmd})
}

func (h *Hub) handleJudge(c *Client, cmd *JudgeCommand) {
	if c.RoomID == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "not in a room"))
		return
	}
	roomID := c.RoomID
	seq := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, seq)

	if cerr := h.requireHost(c); cerr != nil {
		h.sendError(c, cerr)
		return
	}

	// An omitted score awards one point; an explicit zero awards none.
	points := 1
	if cmd.Points != nil {
		points = *cmd.Points
	}

	p, cerr := h.registry.JudgeAnswer(roomID, cmd.TargetID, cmd.Correct, points)
	if cerr != nil {
		h.sendError(c, cerr)
		return
	}

	h.broadcast(roomID, &Event{Kind: EventJudged, Participant: &p, Correct: cmd.Correct})
}

// requireHost re-reads host status from the registry on every call;
// host privilege can move between two requests from the same client.
func (h *Hub) requireHost(c *Client) *CoreError {
	if c.RoomID == "" {
		return coreError(ErrCodeBadRequest, "not in a room")
	}
	p, ok := h.registry.GetParticipant(c.RoomID, c.UserID)
	if !ok || !p.IsHost {
		return coreError(ErrCodeForbidden, "host privilege required")
	}
	return nil
}

// lockRoom enters the room's serialized section. Registry commits and
// the event enqueues they cause must both happen inside it; that is
// what makes every subscriber see the room's history in commit order.
func (h *Hub) lockRoom(roomID string) *roomSequencer {
	h.seqMu.Lock()
	s := h.seqs[roomID]
	if s == nil {
		s = &roomSequencer{}
		h.seqs[roomID] = s
	}
	s.refs++
	h.seqMu.Unlock()

	s.mu.Lock()
	return s
}

// unlockRoom leaves the serialized section and prunes the sequencer
// once the room is gone and nobody else holds or awaits it.
func (h *Hub) unlockRoom(roomID string, s *roomSequencer) {
	s.mu.Unlock()

	h.seqMu.Lock()
	s.refs--
	if s.refs == 0 {
		if _, ok := h.registry.GetRoom(roomID); !ok {
			delete(h.seqs, roomID)
		}
	}
	h.seqMu.Unlock()
}

// dropSequencers releases ordering state for reaped rooms. Entries
// with active holders are left alone; those holders prune on unlock.
func (h *Hub) dropSequencers(roomIDs []string) {
	h.seqMu.Lock()
	for _, id := range roomIDs {
		if s := h.seqs[id]; s != nil && s.refs == 0 {
			delete(h.seqs, id)
		}
	}
	h.seqMu.Unlock()
}

func (h *Hub) subscribe(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[roomID]
	if !ok {
		set = make(map[*Client]struct{})
		h.subs[roomID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unsubscribe(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[roomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, roomID)
		}
	}
}

// broadcast delivers an event to every connection subscribed to the
// room, including the requester's. Callers hold the room's sequencer.
func (h *Hub) broadcast(roomID string, ev *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[roomID] {
		h.deliver(c, ev)
	}
}

// broadcastOthers delivers to every subscriber except one.
func (h *Hub) broadcastOthers(roomID string, except *Client, ev *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[roomID] {
		if c == except {
			continue
		}
		h.deliver(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	h.deliver(c, ev)
}

func (h *Hub) sendError(c *Client, cerr *CoreError) {
	h.deliver(c, &Event{Kind: EventError, Error: cerr})
}

// deliver is non-blocking: a slow consumer drops events rather than
// stalling the sender's pump.
func (h *Hub) deliver(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("client_id", c.ID).Int("event_kind", int(ev.Kind)).Msg("dropping event for slow consumer")
	}
}
