package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/sportbnb/internal/model"
)

// MessageRepo persists direct messages.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageSelect = `SELECT id, sender_id, receiver_id, booking_id, body, is_read, created_at FROM messages`

func scanMessage(row interface{ Scan(...any) error }) (model.Message, error) {
	var (
		m                    model.Message
		sender, receiver, bk sql.NullInt64
	)
	if err := row.Scan(&m.ID, &sender, &receiver, &bk, &m.Body, &m.IsRead, &m.CreatedAt); err != nil {
		return model.Message{}, err
	}
	m.SenderID = uint64(sender.Int64)
	m.ReceiverID = uint64(receiver.Int64)
	if bk.Valid {
		id := uint64(bk.Int64)
		m.BookingID = &id
	}
	return m, nil
}

// Create stores a message.  A receiver or booking that does not exist
// yields sql.ErrNoRows.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, booking_id, body) VALUES (?,?,?,?)",
		m.SenderID, m.ReceiverID, m.BookingID, m.Body)
	if err != nil {
		if isMissingParent(err) {
			return sql.ErrNoRows
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = got
	return nil
}

// GetByID loads one message.
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (model.Message, error) {
	return scanMessage(r.db.QueryRowContext(ctx, messageSelect+" WHERE id = ?", id))
}

// Inbox lists messages sent or received by userID, newest first.
func (r *MessageRepo) Inbox(ctx context.Context, userID uint64, unreadOnly bool, limit, offset int) ([]model.Message, error) {
	q := messageSelect + " WHERE (receiver_id = ? OR sender_id = ?)"
	args := []any{userID, userID}
	if unreadOnly {
		q = messageSelect + " WHERE receiver_id = ? AND is_read = FALSE"
		args = []any{userID}
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flags a message as read.  Only the receiver may do so; for
// anyone else the message is reported as missing.
func (r *MessageRepo) MarkRead(ctx context.Context, id, receiverID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE messages SET is_read = TRUE WHERE id = ? AND receiver_id = ?", id, receiverID)
	if err != nil {
		return err
	}
	return expectRow(ctx, r.db, res, "SELECT 1 FROM messages WHERE id = ? AND receiver_id = ?", id, receiverID)
}
