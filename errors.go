package seengo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIdentifier is returned when an empty identifier is passed
	// to Add or arrives inside an import payload position that requires
	// one. No mutation occurs.
	ErrEmptyIdentifier = errors.New("identifier must be a non-empty string")

	// ErrClosed is returned when an operation is submitted after Close.
	ErrClosed = errors.New("store is closed")
)

// ErrInvalidSnapshot indicates an import payload that is neither a
// seengo export document nor a bare identifier array.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidSnapshot struct {
	Reason string
	cause  error
}

func (e *ErrInvalidSnapshot) Error() string {
	return fmt.Sprintf("invalid snapshot: %s", e.Reason)
}

func (e *ErrInvalidSnapshot) Unwrap() error { return e.cause }

// ErrImportTooLarge indicates an import payload above the configured
// identifier cap. No mutation occurs.
type ErrImportTooLarge struct {
	Count int
	Limit int
}

func (e *ErrImportTooLarge) Error() string {
	return fmt.Sprintf("import payload too large: %d identifiers (limit %d)", e.Count, e.Limit)
}
