package approval

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of a gate operation.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindSendFailed    Kind = "send_failed"
	KindStorageFailed Kind = "storage_failed"
	KindInvalidInput  Kind = "invalid_input"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrSendFailed    = &Error{Kind: KindSendFailed}
	ErrStorageFailed = &Error{Kind: KindStorageFailed}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
)

// Error is returned by every operation in this package.
type Error struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	switch e.Kind {
	case KindNotFound:
		msg = "pending message not found"
	case KindSendFailed:
		msg = "send failed"
	case KindStorageFailed:
		msg = "pending store update failed"
	case KindInvalidInput:
		msg = "invalid input"
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
