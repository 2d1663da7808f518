package booking

import (
	"strings"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/model"
)

// transitions is the booking state machine.  States absent as keys, or
// mapped to nothing, are terminal.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusRejected, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCancelled, model.StatusCompleted},
	model.StatusRejected:  {},
	model.StatusCancelled: {},
	model.StatusCompleted: {},
}

// ParseStatus accepts one of the five persisted status tokens
// (case-insensitive) and rejects everything else with ErrInvalidStatus.
func ParseStatus(s string) (model.BookingStatus, error) {
	st := model.BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", apperr.InvalidStatus("unknown booking status %q", s)
	}
	return st, nil
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to model.BookingStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.BookingStatus) bool {
	return len(transitions[s]) == 0
}

// IsActive reports whether a booking in status s blocks its dates.
func IsActive(s model.BookingStatus) bool {
	return s == model.StatusPending || s == model.StatusConfirmed
}

// Requestor is the user asking for a status change.
type Requestor struct {
	UserID uint64
	Role   string
}

// Policy holds deployment-dependent authorization switches.
type Policy struct {
	// HostCanComplete lets the equipment host mark bookings completed.
	// Admins always can.
	HostCanComplete bool
}

// authorize applies the status authorization matrix:
//
//	confirmed, rejected  host, admin
//	cancelled            host, guest, admin
//	completed            admin (host when HostCanComplete)
//	pending              admin
func (p Policy) authorize(b model.Booking, who Requestor, target model.BookingStatus) error {
	isAdmin := who.Role == model.RoleAdmin
	isHost := b.HostID != 0 && b.HostID == who.UserID
	isGuest := b.GuestID != 0 && b.GuestID == who.UserID

	var ok bool
	switch target {
	case model.StatusConfirmed, model.StatusRejected:
		ok = isHost || isAdmin
	case model.StatusCancelled:
		ok = isHost || isGuest || isAdmin
	case model.StatusCompleted:
		ok = isAdmin || (p.HostCanComplete && isHost)
	case model.StatusPending:
		ok = isAdmin
	}
	if !ok {
		return apperr.Forbidden("user %d may not set booking %d to %s", who.UserID, b.ID, target)
	}
	return nil
}
