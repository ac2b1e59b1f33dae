package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomCreated confirms room creation to the requester.
	EventRoomCreated EventKind = iota
	// EventRoomJoined confirms a join to the requester.
	EventRoomJoined
	// EventRoomLeft confirms a leave to the requester.
	EventRoomLeft
	// EventRoomList delivers the public-room listing.
	EventRoomList
	// EventRoomUpdated notifies members about changed room settings.
	EventRoomUpdated
	// EventUserJoined notifies members about a new participant.
	EventUserJoined
	// EventUserLeft notifies members that a participant left.
	EventUserLeft
	// EventHostTransferred notifies members about the new host.
	EventHostTransferred
	// EventItemAdded notifies members about an attached quiz item.
	EventItemAdded
	// EventItemRemoved notifies members about a detached quiz item.
	EventItemRemoved
	// EventItemStarted notifies members that an item was launched.
	EventItemStarted
	// EventAnswerSubmitted relays a participant's answer to the room.
	EventAnswerSubmitted
	// EventJudged notifies members about a scored verdict.
	EventJudged
	// EventError notifies the requester about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// Fields are populated per kind; Room and Participant carry registry
// snapshots, never live state.
type Event struct {
	Kind EventKind

	Room        *Room
	Rooms       []Room
	Participant *Participant
	UserID      string
	Item        *QuizItem
	Answer      *AnswerCommand
	Correct     bool
	Error       *CoreError
}
