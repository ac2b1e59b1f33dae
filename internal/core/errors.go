package core

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound        = "room_not_found"
	ErrCodeParticipantNotFound = "participant_not_found"
	ErrCodeItemNotFound        = "item_not_found"
	ErrCodeRoomFull            = "room_full"
	ErrCodeForbidden           = "forbidden"
	ErrCodeBadRequest          = "bad_request"
	ErrCodeInternal            = "internal"
)

// CoreError wraps a code and human-readable message. Registry
// operations return it instead of panicking; the hub is the single
// place that turns it into an outbound error event.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
