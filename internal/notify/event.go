// Package notify carries booking and messaging notifications from the
// request path to the mail worker.  The request path only publishes
// events; rendering and delivery happen in cmd/worker.  Delivery is
// best-effort and at-most-once: nothing in this package retries a
// failed publish, and callers log and drop dispatch errors.
package notify

import (
	"context"
	"time"
)

// Kind names a notification event.  The value doubles as the i18n key
// prefix used by the worker when rendering emails.
type Kind string

const (
	BookingCreated   Kind = "booking.created"
	BookingCancelled Kind = "booking.cancelled"
	BookingConfirmed Kind = "booking.confirmed"
	BookingRejected  Kind = "booking.rejected"
	MessageReceived  Kind = "message.received"
)

// Contact identifies a recipient.  Lang selects the email language.
type Contact struct {
	UserID uint64 `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Lang   string `json:"lang"`
}

// Event is the payload published for every notification.  Booking
// events fill Guest, Host and the booking fields; message events fill
// Sender, Receiver and Excerpt.
type Event struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	BookingID      uint64    `json:"booking_id,omitempty"`
	Guest          *Contact  `json:"guest,omitempty"`
	Host           *Contact  `json:"host,omitempty"`
	EquipmentTitle string    `json:"equipment_title,omitempty"`
	DateFrom       string    `json:"date_from,omitempty"`
	DateTo         string    `json:"date_to,omitempty"`
	AmountCents    int64     `json:"amount_cents,omitempty"`
	Sender         *Contact  `json:"sender,omitempty"`
	Receiver       *Contact  `json:"receiver,omitempty"`
	Excerpt        string    `json:"excerpt,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Dispatcher publishes events.  Implementations must not block for
// longer than the supplied context allows.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

// Recipient pairs a contact with the role it plays in the event, which
// selects the email template ("guest", "host" or "receiver").
type Recipient struct {
	Contact Contact
	Role    string
}

// Recipients lists who should be emailed for ev.  Created and cancelled
// bookings go to both parties; confirmations and rejections only to the
// guest; messages to the receiver.  Contacts without an email address
// are skipped.
func Recipients(ev Event) []Recipient {
	var out []Recipient
	add := func(c *Contact, role string) {
		if c != nil && c.Email != "" {
			out = append(out, Recipient{Contact: *c, Role: role})
		}
	}
	switch ev.Kind {
	case BookingCreated, BookingCancelled:
		add(ev.Guest, "guest")
		add(ev.Host, "host")
	case BookingConfirmed, BookingRejected:
		add(ev.Guest, "guest")
	case MessageReceived:
		add(ev.Receiver, "receiver")
	}
	return out
}
