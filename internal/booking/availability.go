package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/model"
)

// RangeSource is the read side of the store used by the Checker.
// GetEquipment returns sql.ErrNoRows when the id does not resolve.
// ActiveRanges returns the date ranges of the equipment's pending and
// confirmed bookings in any order.
type RangeSource interface {
	GetEquipment(ctx context.Context, id uint64) (model.Equipment, error)
	ActiveRanges(ctx context.Context, equipmentID uint64) ([]DateRange, error)
}

// Checker answers availability questions without modifying anything.
type Checker struct {
	src RangeSource
}

func NewChecker(src RangeSource) *Checker { return &Checker{src: src} }

// IsAvailable reports whether the equipment can be booked for the
// inclusive range [dateFrom, dateTo].  Equipment whose availability flag
// is cleared is never available.  Unknown equipment yields ErrNotFound and
// an inverted range yields ErrValidation.
func (c *Checker) IsAvailable(ctx context.Context, equipmentID uint64, dateFrom, dateTo time.Time) (bool, error) {
	r, err := NewDateRange(dateFrom, dateTo)
	if err != nil {
		return false, err
	}
	eq, err := c.src.GetEquipment(ctx, equipmentID)
	if err != nil {
		return false, equipmentErr(equipmentID, err)
	}
	if !eq.Available {
		return false, nil
	}
	ranges, err := c.src.ActiveRanges(ctx, equipmentID)
	if err != nil {
		return false, fmt.Errorf("load active bookings: %w", err)
	}
	return !AnyOverlap(ranges, r), nil
}

func equipmentErr(id uint64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("equipment %d not found", id)
	}
	return fmt.Errorf("load equipment %d: %w", id, err)
}
