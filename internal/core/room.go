package core

import (
	"encoding/json"
	"time"
)

// Participant is an identity-bearing member of a room. The ID is the
// logical identity that survives reconnects; it is not tied to any
// single connection.
type Participant struct {
	ID       string
	Name     string
	IsHost   bool
	Score    int
	JoinedAt time.Time
}

// QuizItem is a piece of content attached to a room. Payload is opaque
// to this layer; the host-side client interprets it.
type QuizItem struct {
	ID      string
	Title   string
	Payload json.RawMessage
	Started bool
}

// Room is the aggregate managed by the registry. Participants are kept
// in join order; host succession relies on that order. HostID remembers
// whose room it is even while Participants is empty.
type Room struct {
	ID              string
	Name            string
	Public          bool
	MaxParticipants int
	HostID          string
	Participants    []Participant
	Items           []QuizItem
	CurrentItemID   string
	CreatedAt       time.Time
}

// Participant returns the member with the given identity, if present.
func (r *Room) Participant(id string) (Participant, bool) {
	if i := r.participantIndex(id); i >= 0 {
		return r.Participants[i], true
	}
	return Participant{}, false
}

// Item returns the attached item with the given id, if present.
func (r *Room) Item(id string) (QuizItem, bool) {
	if i := r.itemIndex(id); i >= 0 {
		return r.Items[i], true
	}
	return QuizItem{}, false
}

func (r *Room) participantIndex(id string) int {
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) itemIndex(id string) int {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// clone returns a deep copy so registry snapshots never alias state
// guarded by the per-room lock.
func (r *Room) clone() Room {
	out := *r
	out.Participants = make([]Participant, len(r.Participants))
	copy(out.Participants, r.Participants)
	out.Items = make([]QuizItem, len(r.Items))
	copy(out.Items, r.Items)
	return out
}
