package model

import "time"

// Review is a guest's rating of a completed booking.  There is at most
// one review per booking (reviews.booking_id is unique).
type Review struct {
    ID          uint64    `json:"id"`
    BookingID   uint64    `json:"booking_id"`
    EquipmentID uint64    `json:"equipment_id"`
    AuthorID    uint64    `json:"author_id"`
    Rating      int       `json:"rating"`
    Comment     string    `json:"comment,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}

// RatingSummary aggregates the reviews of one equipment item.
type RatingSummary struct {
    Average float64 `json:"avg_rating"`
    Count   int64   `json:"review_count"`
}
