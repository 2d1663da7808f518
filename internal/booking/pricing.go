package booking

import (
	"math"
	"time"

	"github.com/iliyamo/sportbnb/internal/apperr"
)

const secondsPerDay = 24 * 60 * 60

// Days returns the whole number of days from dateFrom to dateTo plus one,
// so a single-day booking counts as one day.  Both arguments are reduced
// to their UTC calendar day first.  The difference is taken in Unix
// seconds since a time.Duration cannot span more than about 292 years.
func Days(dateFrom, dateTo time.Time) int64 {
	return (day(dateTo).Unix()-day(dateFrom).Unix())/secondsPerDay + 1
}

// ComputeTotal prices an inclusive date range at pricePerDayCents per day.
// Ranges ending before they start cost nothing; callers validate ranges
// with NewDateRange before pricing them.  Totals beyond int64 saturate
// at math.MaxInt64; PriceRange reports them as a validation error.
func ComputeTotal(pricePerDayCents int64, dateFrom, dateTo time.Time) int64 {
	days := Days(dateFrom, dateTo)
	if days < 1 || pricePerDayCents <= 0 {
		return 0
	}
	if days > math.MaxInt64/pricePerDayCents {
		return math.MaxInt64
	}
	return pricePerDayCents * days
}

// PriceRange prices r and rejects totals that do not fit in int64 cents.
func PriceRange(pricePerDayCents int64, r DateRange) (int64, error) {
	days := r.Days()
	if pricePerDayCents > 0 && days > math.MaxInt64/pricePerDayCents {
		return 0, apperr.Validation("%d days at %d cents per day exceeds the maximum total", days, pricePerDayCents)
	}
	return ComputeTotal(pricePerDayCents, r.From, r.To), nil
}

// Quote is the price breakdown returned before a booking is made.
type Quote struct {
	EquipmentID      uint64 `json:"equipment_id"`
	DateFrom         string `json:"date_from"`
	DateTo           string `json:"date_to"`
	Days             int64  `json:"days"`
	PricePerDayCents int64  `json:"price_per_day_cents"`
	TotalCents       int64  `json:"total_cents"`
}
