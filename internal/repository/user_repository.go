package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/notify"
	"github.com/iliyamo/sportbnb/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser is the input of Create.  Password is plain text and hashed here.
type NewUser struct {
	Email    string
	Password string
	FullName string
	Phone    *string
	Role     string
	Lang     string
}

const userColumns = "id,email,password_hash,full_name,phone,role,lang,is_active,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &phone, &u.Role, &u.Lang, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if phone.Valid {
		p := phone.String
		u.Phone = &p
	}
	return u, err
}

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return 0, err
	}
	if in.Lang == "" {
		in.Lang = "it"
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, phone, role, lang) VALUES (?,?,?,?,?,?)",
		email, hash, strings.TrimSpace(in.FullName), in.Phone, in.Role, in.Lang)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns users newest first.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetActive enables or disables login for a user.  It returns
// sql.ErrNoRows when the user does not exist.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	return expectRow(ctx, r.DB, res, "SELECT 1 FROM users WHERE id=?", id)
}

// Contacts loads notification contacts for the given users.  Unknown ids
// and zero ids are left out of the result.
func (r *UserRepo) Contacts(ctx context.Context, ids ...uint64) (map[uint64]notify.Contact, error) {
	out := map[uint64]notify.Contact{}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			args = append(args, id)
		}
	}
	if len(args) == 0 {
		return out, nil
	}
	q := "SELECT id, email, full_name, lang FROM users WHERE id IN (?" + strings.Repeat(",?", len(args)-1) + ")"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c notify.Contact
		if err := rows.Scan(&c.UserID, &c.Email, &c.Name, &c.Lang); err != nil {
			return nil, err
		}
		out[c.UserID] = c
	}
	return out, rows.Err()
}

// expectRow turns a zero-row UPDATE into sql.ErrNoRows, unless the row
// exists and the update simply changed nothing.
func expectRow(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, res sql.Result, existsQuery string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	return q.QueryRowContext(ctx, existsQuery, args...).Scan(&one)
}
