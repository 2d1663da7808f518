package booking

import "github.com/iliyamo/sportbnb/internal/apperr"

// Failure kinds returned by the checker and the manager.  They are the
// apperr sentinels, re-exported so callers of this package can test with
// errors.Is without importing apperr.
var (
	ErrNotFound      = apperr.ErrNotFound
	ErrUnavailable   = apperr.ErrUnavailable
	ErrConflict      = apperr.ErrConflict
	ErrForbidden     = apperr.ErrForbidden
	ErrInvalidStatus = apperr.ErrInvalidStatus
	ErrValidation    = apperr.ErrValidation
)
