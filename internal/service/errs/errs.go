// Package errs holds the error taxonomy shared by the service layer.
package errs

import "errors"

// Kind classifies a domain error so transports can map it to a status code.
type Kind int

const (
	// KindInternal marks unexpected failures.
	KindInternal Kind = iota
	// KindNotFound means the entity is absent or the caller cannot see it.
	KindNotFound
	// KindForbidden means the caller is not allowed to perform the action.
	KindForbidden
	// KindNotAcceptable means the action is refused for the caller, e.g. deleting another's message.
	KindNotAcceptable
	// KindBlocked means a block relation exists between the two profiles.
	KindBlocked
	// KindAlreadyExists means the entity is a duplicate.
	KindAlreadyExists
	// KindValidation means the input was rejected.
	KindValidation
	// KindInvalidInput means a request field is malformed or out of range.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindNotAcceptable:
		return "not_acceptable"
	case KindBlocked:
		return "blocked"
	case KindAlreadyExists:
		return "already_exists"
	case KindValidation:
		return "validation_error"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// Error wraps a kind and human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New returns a new domain error. Declare them as package-level sentinels.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
