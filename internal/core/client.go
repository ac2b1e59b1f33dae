package core

// Client is one connected participant as seen by the hub. UserID and
// Name are the claimed identity from the hello handshake; RoomID is
// the currently-joined room. The session fields are owned by the
// client's pump goroutine and never shared.
type Client struct {
	ID     string // connection id, unique per socket
	UserID string // logical identity, survives reconnects
	Name   string
	RoomID string

	Commands chan *Command
	Events   chan *Event

	quit chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, userID, name string) *Client {
	if name == "" {
		name = userID
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
		quit:     make(chan struct{}),
	}
}
