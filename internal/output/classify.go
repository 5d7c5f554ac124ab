package output

import (
	"errors"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/snapshot"
)

// Classify maps a store or snapshot error to its ErrorCode.
func Classify(err error) ErrorCode {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, db.ErrConflict):
		return ErrConflict
	case errors.Is(err, db.ErrDateNotInEvent):
		return ErrValidation
	case errors.Is(err, snapshot.ErrMalformedArchive),
		errors.Is(err, snapshot.ErrDanglingReference),
		errors.Is(err, snapshot.ErrSelectionMismatch):
		return ErrArchive
	default:
		return ErrGeneral
	}
}
