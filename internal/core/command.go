package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandCreateRoom creates a room with the requester as host.
	CommandCreateRoom CommandKind = iota
	// CommandJoinRoom admits the requester into a room.
	CommandJoinRoom
	// CommandLeaveRoom removes the requester from its current room.
	CommandLeaveRoom
	// CommandListRooms returns the public-room listing.
	CommandListRooms
	// CommandTransferHost hands host privilege to another participant.
	CommandTransferHost
	// CommandUpdateRoom changes room settings (host only).
	CommandUpdateRoom
	// CommandAddItem attaches a quiz item (host only).
	CommandAddItem
	// CommandRemoveItem detaches a quiz item (host only).
	CommandRemoveItem
	// CommandStartItem launches a quiz item (host only).
	CommandStartItem
	// CommandSubmitAnswer relays an answer to the room.
	CommandSubmitAnswer
	// CommandJudge records the host's verdict on an answer (host only).
	CommandJudge
)

// Command represents an action requested by a client. Exactly the
// payload for its kind is set; the rest stay nil.
type Command struct {
	Kind CommandKind

	Create   *CreateRoomCommand
	Join     *JoinRoomCommand
	Update   *RoomUpdate
	Transfer *TransferHostCommand
	Item     *ItemCommand
	Answer   *AnswerCommand
	Judge    *JudgeCommand
}

// CreateRoomCommand carries create-room parameters. MaxParticipants
// of zero means "use the server default"; HostID pre-commits the
// creator's identity when one was minted before the room existed.
type CreateRoomCommand struct {
	Name            string
	Public          bool
	MaxParticipants int
	DisplayName     string
	HostID          string
}

// JoinRoomCommand carries join-room parameters. ParticipantID is the
// optional pre-existing identity used for reconnection.
type JoinRoomCommand struct {
	RoomID        string
	ParticipantID string
	DisplayName   string
}

// TransferHostCommand names the participant to promote.
type TransferHostCommand struct {
	TargetID string
}

// ItemCommand covers add/remove/start of quiz items. Title and
// Payload are only used by add.
type ItemCommand struct {
	ItemID  string
	Title   string
	Payload json.RawMessage
}

// AnswerCommand is a participant's answer to a started item.
type AnswerCommand struct {
	ItemID string
	Answer string
}

// JudgeCommand is the host's verdict on a participant's answer. A nil
// Points means the request omitted the score and 1 is awarded; an
// explicit zero awards nothing.
type JudgeCommand struct {
	TargetID string
	Correct  bool
	Points   *int
}
