package snapshot

import (
	"errors"
	"fmt"
)

// Sentinel errors for snapshot operations.
var (
	// ErrMalformedArchive covers unreadable containers, missing entries and
	// records that fail to parse or validate. Nothing has been written when
	// it is returned.
	ErrMalformedArchive = errors.New("malformed archive")

	// ErrDanglingReference means a required foreign key in the archive names
	// a record that is not in the archive.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrSelectionMismatch means an event's selected date was proposed for a
	// different event or through a proposal the event is not linked to.
	ErrSelectionMismatch = errors.New("selected proposal date does not belong to event")
)

// DanglingRefError wraps ErrDanglingReference with the offending record.
type DanglingRefError struct {
	Entry    string // archive entry holding the record, e.g. "votes"
	ID       int    // old ID of the record
	Field    string // JSON field holding the reference
	TargetID int    // old ID that failed to resolve
}

func (e *DanglingRefError) Error() string {
	return fmt.Sprintf("%s %d: %s %d not found in archive", e.Entry, e.ID, e.Field, e.TargetID)
}

func (e *DanglingRefError) Unwrap() error { return ErrDanglingReference }

// malformed wraps ErrMalformedArchive with context.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedArchive, fmt.Sprintf(format, args...))
}
