package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
    RoleGuest = "GUEST"
    RoleHost  = "HOST"
    RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  Hosts list equipment, guests book it and admins
// may act on any booking.  Any user may book equipment they do not
// own, so RoleHost does not exclude acting as a guest.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name used in notifications.
//  Phone        – optional contact number.
//  Role         – GUEST, HOST or ADMIN.
//  Lang         – preferred language for emails (it, en).
//  IsActive     – whether the account may log in.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    FullName     string    // users.full_name
    Phone        *string   // users.phone (nullable)
    Role         string    // users.role
    Lang         string    // users.lang
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is not stored; only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
