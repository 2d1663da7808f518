// Package repository implements the MySQL persistence of users, tokens,
// equipment, bookings, reviews and messages.  Lookups of a single row
// return sql.ErrNoRows when nothing matches; the layers above translate
// that into their own not-found errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write violates a unique key, such as a
// second review for the same booking.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is the users.email flavour of ErrConflict.
var ErrEmailExists = errors.New("email already exists")

const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
)

// isDuplicate reports whether err is a MySQL duplicate-key error.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

// isMissingParent reports whether err is a foreign-key violation on insert.
func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errNoReferencedRow
}
