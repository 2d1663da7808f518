package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/iliyamo/sportbnb/internal/booking"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/notify"
)

// BookingRepo is the MySQL booking.Store.  Availability checks inside
// WithTx run under a row lock on the equipment, which serializes
// concurrent bookings of the same item.
type BookingRepo struct {
	db        *sql.DB
	equipment *EquipmentRepo
	users     *UserRepo
}

func NewBookingRepo(db *sql.DB, equipment *EquipmentRepo, users *UserRepo) *BookingRepo {
	return &BookingRepo{db: db, equipment: equipment, users: users}
}

var _ booking.Store = (*BookingRepo)(nil)

var bookingColumns = []any{
	"id", "equipment_id", "guest_id", "host_id", "date_from", "date_to",
	"total_price_cents", "status", "notes", "created_at", "updated_at",
}

const bookingSelect = `SELECT id, equipment_id, guest_id, host_id, date_from, date_to,
       total_price_cents, status, notes, created_at, updated_at
  FROM bookings`

// activeRangesQuery selects the ranges that block availability.
const activeRangesQuery = `SELECT date_from, date_to FROM bookings
 WHERE equipment_id = ? AND status IN ('pending','confirmed')`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var (
		b               model.Booking
		guestID, hostID sql.NullInt64
		notes           sql.NullString
		status          string
	)
	err := row.Scan(&b.ID, &b.EquipmentID, &guestID, &hostID, &b.DateFrom, &b.DateTo,
		&b.TotalPriceCents, &status, &notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.GuestID = uint64(guestID.Int64)
	b.HostID = uint64(hostID.Int64)
	b.Notes = notes.String
	b.Status = model.BookingStatus(status)
	return b, nil
}

func activeRanges(ctx context.Context, q querier, equipmentID uint64) ([]booking.DateRange, error) {
	rows, err := q.QueryContext(ctx, activeRangesQuery, equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []booking.DateRange
	for rows.Next() {
		var r booking.DateRange
		if err := rows.Scan(&r.From, &r.To); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetEquipment implements booking.RangeSource.
func (r *BookingRepo) GetEquipment(ctx context.Context, id uint64) (model.Equipment, error) {
	return r.equipment.GetByID(ctx, id)
}

// ActiveRanges implements booking.RangeSource.
func (r *BookingRepo) ActiveRanges(ctx context.Context, equipmentID uint64) ([]booking.DateRange, error) {
	return activeRanges(ctx, r.db, equipmentID)
}

// WithTx runs fn in a transaction, committing when it returns nil.
func (r *BookingRepo) WithTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// GetBooking loads one booking.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, bookingSelect+" WHERE id = ?", id))
}

// listBookingsSQL renders the ListBookings query for f.
func listBookingsSQL(f booking.ListFilter) (string, []any, error) {
	var conds []exp.Expression
	if f.GuestID != 0 {
		conds = append(conds, goqu.C("guest_id").Eq(f.GuestID))
	}
	if f.HostID != 0 {
		conds = append(conds, goqu.C("host_id").Eq(f.HostID))
	}
	if f.Status != "" {
		conds = append(conds, goqu.C("status").Eq(string(f.Status)))
	}
	return dialect.From("bookings").Prepared(true).
		Select(bookingColumns...).
		Where(conds...).
		Order(goqu.C("date_from").Desc(), goqu.C("id").Desc()).
		Limit(uint(f.Limit)).
		Offset(uint(f.Offset)).
		ToSQL()
}

// ListBookings lists bookings newest first.
func (r *BookingRepo) ListBookings(ctx context.Context, f booking.ListFilter) ([]model.Booking, error) {
	q, args, err := listBookingsSQL(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Contacts implements booking.Store.
func (r *BookingRepo) Contacts(ctx context.Context, ids ...uint64) (map[uint64]notify.Contact, error) {
	return r.users.Contacts(ctx, ids...)
}

// bookingTx implements booking.Tx on a *sql.Tx.
type bookingTx struct {
	tx *sql.Tx
}

func (t *bookingTx) LockEquipment(ctx context.Context, id uint64) (model.Equipment, error) {
	return scanEquipment(t.tx.QueryRowContext(ctx, equipmentSelect+" WHERE id = ? FOR UPDATE", id))
}

func (t *bookingTx) ActiveRanges(ctx context.Context, equipmentID uint64) ([]booking.DateRange, error) {
	return activeRanges(ctx, t.tx, equipmentID)
}

func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO bookings (equipment_id, guest_id, host_id, date_from, date_to, total_price_cents, status, notes)
		 VALUES (?,?,?,?,?,?,?,?)`,
		b.EquipmentID, b.GuestID, b.HostID,
		b.DateFrom.Format(booking.DateLayout), b.DateTo.Format(booking.DateLayout),
		b.TotalPriceCents, string(b.Status), b.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// read back defaults (timestamps) inside the same transaction
	got, err := scanBooking(t.tx.QueryRowContext(ctx, bookingSelect+" WHERE id = ?", id))
	if err != nil {
		return err
	}
	*b = got
	return nil
}

func (t *bookingTx) LockBooking(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(t.tx.QueryRowContext(ctx, bookingSelect+" WHERE id = ? FOR UPDATE", id))
}

func (t *bookingTx) SetStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	res, err := t.tx.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
