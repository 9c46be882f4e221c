package alarm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies scheduler failures.
type ErrorKind string

const (
	// KindInvalidArgument marks a command with out-of-range fields.
	KindInvalidArgument ErrorKind = "InvalidArgument"
	// KindDuplicateID marks a Start for an id that is already pending.
	KindDuplicateID ErrorKind = "DuplicateId"
	// KindNotFound marks a command addressing an id that is not pending.
	KindNotFound ErrorKind = "NotFound"
	// KindParseError marks a line that is not a command.
	KindParseError ErrorKind = "ParseError"
	// KindResourceExhausted marks a command rejected for lack of capacity.
	KindResourceExhausted ErrorKind = "ResourceExhausted"
	// KindInternal marks a broken store invariant. It is fatal.
	KindInternal ErrorKind = "InternalInvariantViolation"
)

// Error is a classified scheduler error.
type Error struct {
	// Kind is a machine-readable error class.
	Kind ErrorKind
	// Description is a human-readable one-line diagnostic.
	Description string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Description
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind associated with err, or KindInternal if err
// isn't a classified error. It returns an empty kind for a nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}

	return KindInternal
}

// IsFatal reports whether err must stop the scheduler.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) == KindInternal
}
