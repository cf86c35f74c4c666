package core

import "errors"

// Error codes surfaced to clients in error frames and join acks.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeUnauthorizedAccess = "UNAUTHORIZED_ROOM_ACCESS"
	ErrCodeInternal           = "INTERNAL_SERVER_ERROR"
)

// ErrRelayClosed is returned on broadcast before the relay is bound or
// after shutdown.
var ErrRelayClosed = errors.New("relay not bound")

// CoreError wraps a code and human-readable message. The message is the
// client-facing text; it never discloses whether a room exists.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// NewCoreError builds a client-surfaceable domain error.
func NewCoreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrUnauthorizedRoom is the generic membership denial. One message for
// both "no such room" and "not a member".
func ErrUnauthorizedRoom() *CoreError {
	return NewCoreError(ErrCodeUnauthorizedAccess, "You are not a member of this chat")
}

// ErrInternal is the fail-closed rejection used when the membership
// authority itself cannot be consulted.
func ErrInternal() *CoreError {
	return NewCoreError(ErrCodeInternal, "Internal server error")
}
