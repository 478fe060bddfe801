package core

import "errors"

// Error codes for relay errors.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotParticipant = "not_participant"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeInternal       = "internal"
)

var (
	ErrNotParticipant = errors.New("not a participant of this room")
	ErrMissingRoom    = errors.New("room id is required")
)

// CoreError wraps a code and human-readable message.
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
