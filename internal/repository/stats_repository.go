package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/sportbnb/internal/model"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Users            int64                         `json:"users"`
	Equipment        int64                         `json:"equipment"`
	Bookings         int64                         `json:"bookings"`
	BookingsByStatus map[model.BookingStatus]int64 `json:"bookings_by_status"`
	RevenueCents     int64                         `json:"revenue_cents"`
}

// StatsRepo computes platform-wide aggregates.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Collect gathers the counters.  Revenue only counts completed bookings.
func (r *StatsRepo) Collect(ctx context.Context) (Stats, error) {
	s := Stats{BookingsByStatus: map[model.BookingStatus]int64{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM users),
		        (SELECT COUNT(*) FROM equipment),
		        (SELECT COALESCE(SUM(total_price_cents), 0) FROM bookings WHERE status = 'completed')`).
		Scan(&s.Users, &s.Equipment, &s.RevenueCents)
	if err != nil {
		return Stats{}, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM bookings GROUP BY status")
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return Stats{}, err
		}
		s.BookingsByStatus[model.BookingStatus(status)] = n
		s.Bookings += n
	}
	return s, rows.Err()
}
