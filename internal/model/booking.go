package model

import "time"

// BookingStatus is the persisted status token of a booking.  The string
// values are stored verbatim in bookings.status.
type BookingStatus string

const (
    StatusPending   BookingStatus = "pending"
    StatusConfirmed BookingStatus = "confirmed"
    StatusRejected  BookingStatus = "rejected"
    StatusCancelled BookingStatus = "cancelled"
    StatusCompleted BookingStatus = "completed"
)

// ActiveStatuses are the statuses that count against availability.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

// Booking records a guest's rental of one equipment item for an
// inclusive range of calendar days.  HostID is copied from the
// equipment at creation time.  GuestID and HostID are zero when the
// referenced user has since been deleted.
//
// Fields:
//  DateFrom, DateTo – first and last rented day (UTC midnight).
//  TotalPriceCents  – price per day times number of days, in cents.
type Booking struct {
    ID              uint64        `json:"id"`
    EquipmentID     uint64        `json:"equipment_id"`
    GuestID         uint64        `json:"guest_id"`
    HostID          uint64        `json:"host_id"`
    DateFrom        time.Time     `json:"date_from"`
    DateTo          time.Time     `json:"date_to"`
    TotalPriceCents int64         `json:"total_price_cents"`
    Status          BookingStatus `json:"status"`
    Notes           string        `json:"notes,omitempty"`
    CreatedAt       time.Time     `json:"created_at"`
    UpdatedAt       time.Time     `json:"updated_at"`
}
