package booking

import (
	"strings"
	"time"

	"github.com/iliyamo/sportbnb/internal/apperr"
)

// DateLayout is the wire and storage format of booking dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days.  From and To are
// UTC midnights; To is never before From.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange truncates both ends to their UTC calendar day and rejects
// ranges that end before they start.
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: day(from), To: day(to)}
	if r.To.Before(r.From) {
		return DateRange{}, apperr.Validation("date_to %s is before date_from %s",
			r.To.Format(DateLayout), r.From.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a DateRange.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := time.Parse(DateLayout, strings.TrimSpace(from))
	if err != nil {
		return DateRange{}, apperr.Validation("invalid date_from %q, use YYYY-MM-DD", from)
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(to))
	if err != nil {
		return DateRange{}, apperr.Validation("invalid date_to %q, use YYYY-MM-DD", to)
	}
	return NewDateRange(f, t)
}

// Days is the number of rented days, counting both endpoints.
func (r DateRange) Days() int64 {
	return Days(r.From, r.To)
}

// Overlaps reports whether r and o share at least one calendar day.
// Boundaries are inclusive on both sides: a range ending on day X
// overlaps a range starting on day X.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.From.After(o.To) && !r.To.Before(o.From)
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}

// AnyOverlap reports whether r overlaps any of the existing ranges.
func AnyOverlap(existing []DateRange, r DateRange) bool {
	for _, e := range existing {
		if r.Overlaps(e) {
			return true
		}
	}
	return false
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
