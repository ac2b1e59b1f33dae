package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello        = "hello"
	InboundTypeCreateRoom   = "create_room"
	InboundTypeJoinRoom     = "join_room"
	InboundTypeLeaveRoom    = "leave_room"
	InboundTypeListRooms    = "list_rooms"
	InboundTypeTransferHost = "transfer_host"
	InboundTypeUpdateRoom   = "update_room"
	InboundTypeItemAdd      = "item_add"
	InboundTypeItemRemove   = "item_remove"
	InboundTypeItemStart    = "item_start"
	InboundTypeAnswer       = "answer"
	InboundTypeJudge        = "judge"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// HelloData is sent first by the client to claim an identity and a
// display name. Both are optional; an absent identity is minted
// server-side on the first join.
type HelloData struct {
	Identity string `json:"identity,omitempty"`
	Name     string `json:"name,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// CreateRoomData requests a new room with the sender as host.
type CreateRoomData struct {
	Name            string `json:"name"`
	Public          bool   `json:"public"`
	MaxParticipants int    `json:"max_participants,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	Identity        string `json:"identity,omitempty"`
}

// JoinRoomData requests to join (or reconnect to) a room.
type JoinRoomData struct {
	RoomID      string `json:"room_id"`
	Identity    string `json:"identity,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// TransferHostData hands host privilege to another participant.
type TransferHostData struct {
	Target string `json:"target"`
}

// UpdateRoomData is a partial room-settings update.
type UpdateRoomData struct {
	Name   *string `json:"name,omitempty"`
	Public *bool   `json:"public,omitempty"`
}

// ItemAddData attaches a quiz item to the room.
type ItemAddData struct {
	Title   string          `json:"title"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ItemRefData names an already-attached quiz item.
type ItemRefData struct {
	ItemID string `json:"item_id"`
}

// AnswerData submits an answer to a started item.
type AnswerData struct {
	ItemID string `json:"item_id"`
	Answer string `json:"answer"`
}

// JudgeData is the host's verdict on a participant's answer. Score is
// the points to award on a correct answer; omitted means 1.
type JudgeData struct {
	Target  string `json:"target"`
	Correct bool   `json:"correct"`
	Score   *int   `json:"score,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Outbound event names.
const (
	EventNameRoomCreated     = "room_created"
	EventNameRoomJoined      = "room_joined"
	EventNameRoomLeft        = "room_left"
	EventNameRoomList        = "room_list"
	EventNameRoomUpdated     = "room_updated"
	EventNameUserJoined      = "user_joined"
	EventNameUserLeft        = "user_left"
	EventNameHostTransferred = "host_transferred"
	EventNameItemAdded       = "item_added"
	EventNameItemRemoved     = "item_removed"
	EventNameItemStarted     = "item_started"
	EventNameAnswer          = "answer_submitted"
	EventNameJudged          = "judged"
)

// Participant is the wire view of a room member.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
	Score  int    `json:"score"`
}

// Item is the wire view of a quiz item.
type Item struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Started bool            `json:"started"`
}

// Room is the wire view of a room snapshot.
type Room struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Public          bool          `json:"public"`
	MaxParticipants int           `json:"max_participants"`
	HostID          string        `json:"host_id"`
	Participants    []Participant `json:"participants"`
	Items           []Item        `json:"items"`
	CurrentItemID   string        `json:"current_item_id,omitempty"`
	CreatedAt       int64         `json:"created_at"`
}

// EventRoomJoined confirms a join to the requester.
type EventRoomJoined struct {
	Room        Room        `json:"room"`
	Participant Participant `json:"participant"`
}

// EventRoomList delivers the public-room listing.
type EventRoomList struct {
	Rooms []Room `json:"rooms"`
}

// EventUserLeft notifies that a participant left a room.
type EventUserLeft struct {
	Identity string `json:"identity"`
}

// EventHostTransferred notifies about the new host.
type EventHostTransferred struct {
	Identity string `json:"identity"`
}

// EventAnswer relays a submitted answer to the room.
type EventAnswer struct {
	Identity string `json:"identity"`
	ItemID   string `json:"item_id"`
	Answer   string `json:"answer"`
}

// EventJudged reports a scored verdict.
type EventJudged struct {
	Identity string `json:"identity"`
	Correct  bool   `json:"correct"`
	Score    int    `json:"score"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
