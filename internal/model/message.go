package model

import "time"

// Message is a direct message between two users, optionally attached
// to a booking they both take part in.
type Message struct {
    ID         uint64    `json:"id"`
    SenderID   uint64    `json:"sender_id"`
    ReceiverID uint64    `json:"receiver_id"`
    BookingID  *uint64   `json:"booking_id,omitempty"`
    Body       string    `json:"body"`
    IsRead     bool      `json:"is_read"`
    CreatedAt  time.Time `json:"created_at"`
}
