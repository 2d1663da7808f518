package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/sportbnb/internal/model"
)

// ReviewRepo persists guest reviews.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review.  A second review of the same booking yields
// ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (booking_id, equipment_id, author_id, rating, comment) VALUES (?,?,?,?,?)",
		rv.BookingID, rv.EquipmentID, rv.AuthorID, rv.Rating, rv.Comment)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM reviews WHERE id = ?", rv.ID).Scan(&rv.CreatedAt)
}

// ListByEquipment returns the reviews of an item, newest first.
func (r *ReviewRepo) ListByEquipment(ctx context.Context, equipmentID uint64, limit, offset int) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, equipment_id, author_id, rating, comment, created_at
		   FROM reviews WHERE equipment_id = ?
		  ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		equipmentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var (
			rv       model.Review
			authorID sql.NullInt64
			comment  sql.NullString
		)
		if err := rows.Scan(&rv.ID, &rv.BookingID, &rv.EquipmentID, &authorID, &rv.Rating, &comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		rv.AuthorID = uint64(authorID.Int64)
		rv.Comment = comment.String
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Summary returns the average rating and review count of an item.  An
// item without reviews has a zero summary.
func (r *ReviewRepo) Summary(ctx context.Context, equipmentID uint64) (model.RatingSummary, error) {
	var (
		s   model.RatingSummary
		avg sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(*) FROM reviews WHERE equipment_id = ?", equipmentID).
		Scan(&avg, &s.Count)
	s.Average = avg.Float64
	return s, err
}
