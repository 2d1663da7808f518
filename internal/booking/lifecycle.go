// Package booking implements the rental core: the availability checker,
// the pricing calculator and the booking lifecycle state machine.  The
// package is storage-agnostic; internal/repository provides the MySQL
// Store and tests use in-memory fakes.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/notify"
)

// Tx is the set of store operations executed inside one transaction.
// LockEquipment and LockBooking take row locks that are held until the
// transaction ends, and return sql.ErrNoRows for unknown ids.  SetStatus
// returns sql.ErrNoRows when no row was updated.
type Tx interface {
	LockEquipment(ctx context.Context, id uint64) (model.Equipment, error)
	ActiveRanges(ctx context.Context, equipmentID uint64) ([]DateRange, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	LockBooking(ctx context.Context, id uint64) (model.Booking, error)
	SetStatus(ctx context.Context, id uint64, status model.BookingStatus) error
}

// ListFilter selects bookings for listing.  Exactly one of GuestID and
// HostID is normally set; Status is optional.
type ListFilter struct {
	GuestID uint64
	HostID  uint64
	Status  model.BookingStatus
	Limit   int
	Offset  int
}

// Store is everything the Manager needs from persistence.  WithTx runs fn
// in a transaction, committing when fn returns nil and rolling back
// otherwise.
type Store interface {
	RangeSource
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	ListBookings(ctx context.Context, f ListFilter) ([]model.Booking, error)
	Contacts(ctx context.Context, userIDs ...uint64) (map[uint64]notify.Contact, error)
}

// CreateRequest carries the input of Manager.Create.
type CreateRequest struct {
	EquipmentID uint64
	GuestID     uint64
	DateFrom    time.Time
	DateTo      time.Time
	Notes       string
}

// Manager orchestrates booking creation and status transitions.
type Manager struct {
	store         Store
	dispatcher    notify.Dispatcher
	policy        Policy
	log           zerolog.Logger
	notifyTimeout time.Duration

	inflight sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

func WithPolicy(p Policy) Option { return func(m *Manager) { m.policy = p } }

func WithLogger(l zerolog.Logger) Option { return func(m *Manager) { m.log = l } }

func WithNotifyTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.notifyTimeout = d
		}
	}
}

// NewManager wires a Manager.  A nil dispatcher disables notifications.
func NewManager(store Store, d notify.Dispatcher, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		dispatcher:    d,
		log:           zerolog.Nop(),
		notifyTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create books equipment for a guest.  The equipment row is locked for
// the duration of the overlap check and the insert, so two concurrent
// requests for overlapping dates cannot both succeed.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (model.Booking, error) {
	r, err := NewDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return model.Booking{}, err
	}
	if req.GuestID == 0 {
		return model.Booking{}, apperr.Validation("guest is required")
	}

	var (
		out model.Booking
		eq  model.Equipment
	)
	err = m.store.WithTx(ctx, func(tx Tx) error {
		var err error
		eq, err = tx.LockEquipment(ctx, req.EquipmentID)
		if err != nil {
			return equipmentErr(req.EquipmentID, err)
		}
		if !eq.Available {
			return apperr.Unavailable("equipment %d is not available for booking", eq.ID)
		}
		if eq.HostID == 0 {
			return apperr.Unavailable("equipment %d has no host", eq.ID)
		}
		if eq.HostID == req.GuestID {
			return apperr.Validation("you cannot book your own equipment")
		}
		ranges, err := tx.ActiveRanges(ctx, eq.ID)
		if err != nil {
			return fmt.Errorf("load active bookings: %w", err)
		}
		if AnyOverlap(ranges, r) {
			return apperr.Conflict("equipment %d is already booked within %s", eq.ID, r)
		}
		total, err := PriceRange(eq.PricePerDayCents, r)
		if err != nil {
			return err
		}
		out = model.Booking{
			EquipmentID:     eq.ID,
			GuestID:         req.GuestID,
			HostID:          eq.HostID,
			DateFrom:        r.From,
			DateTo:          r.To,
			TotalPriceCents: total,
			Status:          model.StatusPending,
			Notes:           req.Notes,
		}
		return tx.InsertBooking(ctx, &out)
	})
	if err != nil {
		return model.Booking{}, err
	}

	m.log.Info().
		Uint64("booking_id", out.ID).
		Uint64("equipment_id", out.EquipmentID).
		Uint64("guest_id", out.GuestID).
		Str("range", r.String()).
		Int64("total_cents", out.TotalPriceCents).
		Msg("booking created")
	m.notify(notify.BookingCreated, out, eq.Title)
	return out, nil
}

// UpdateStatus moves a booking to newStatus on behalf of who.  The
// status token is validated first, then the requestor's authorization
// for that target, then the transition itself.
func (m *Manager) UpdateStatus(ctx context.Context, bookingID uint64, who Requestor, newStatus string) (model.Booking, error) {
	target, err := ParseStatus(newStatus)
	if err != nil {
		return model.Booking{}, err
	}

	var out model.Booking
	err = m.store.WithTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return bookingErr(bookingID, err)
		}
		if err := m.policy.authorize(b, who, target); err != nil {
			return err
		}
		if !CanTransition(b.Status, target) {
			return apperr.InvalidStatus("booking %d cannot move from %s to %s", b.ID, b.Status, target)
		}
		if err := tx.SetStatus(ctx, b.ID, target); err != nil {
			return bookingErr(b.ID, err)
		}
		b.Status = target
		out = b
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	m.log.Info().
		Uint64("booking_id", out.ID).
		Uint64("requestor_id", who.UserID).
		Str("status", string(out.Status)).
		Msg("booking status changed")

	switch target {
	case model.StatusCancelled:
		m.notify(notify.BookingCancelled, out, "")
	case model.StatusConfirmed:
		m.notify(notify.BookingConfirmed, out, "")
	case model.StatusRejected:
		m.notify(notify.BookingRejected, out, "")
	}
	return out, nil
}

// Cancel is UpdateStatus with the cancelled target.
func (m *Manager) Cancel(ctx context.Context, bookingID uint64, who Requestor) (model.Booking, error) {
	return m.UpdateStatus(ctx, bookingID, who, string(model.StatusCancelled))
}

// Quote prices a prospective booking without persisting anything.  It
// fails the same way Create would: ErrUnavailable for disabled
// equipment and ErrConflict for overlapping dates.
func (m *Manager) Quote(ctx context.Context, equipmentID uint64, dateFrom, dateTo time.Time) (Quote, error) {
	r, err := NewDateRange(dateFrom, dateTo)
	if err != nil {
		return Quote{}, err
	}
	eq, err := m.store.GetEquipment(ctx, equipmentID)
	if err != nil {
		return Quote{}, equipmentErr(equipmentID, err)
	}
	if !eq.Available {
		return Quote{}, apperr.Unavailable("equipment %d is not available for booking", eq.ID)
	}
	ranges, err := m.store.ActiveRanges(ctx, eq.ID)
	if err != nil {
		return Quote{}, fmt.Errorf("load active bookings: %w", err)
	}
	if AnyOverlap(ranges, r) {
		return Quote{}, apperr.Conflict("equipment %d is already booked within %s", eq.ID, r)
	}
	total, err := PriceRange(eq.PricePerDayCents, r)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		EquipmentID:      eq.ID,
		DateFrom:         r.From.Format(DateLayout),
		DateTo:           r.To.Format(DateLayout),
		Days:             r.Days(),
		PricePerDayCents: eq.PricePerDayCents,
		TotalCents:       total,
	}, nil
}

// Get returns a booking visible to who: its guest, its host or an admin.
func (m *Manager) Get(ctx context.Context, bookingID uint64, who Requestor) (model.Booking, error) {
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, bookingErr(bookingID, err)
	}
	if who.Role != model.RoleAdmin && b.GuestID != who.UserID && b.HostID != who.UserID {
		return model.Booking{}, apperr.Forbidden("booking %d belongs to other users", bookingID)
	}
	return b, nil
}

// List returns bookings matching f.
func (m *Manager) List(ctx context.Context, f ListFilter) ([]model.Booking, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return m.store.ListBookings(ctx, f)
}

// Wait blocks until notifications already handed to goroutines have
// finished.  The server calls it on shutdown.
func (m *Manager) Wait() { m.inflight.Wait() }

// notify dispatches an event for b in the background.  It never reports
// failure to the caller: the booking is already committed.
func (m *Manager) notify(kind notify.Kind, b model.Booking, title string) {
	if m.dispatcher == nil {
		return
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.notifyTimeout)
		defer cancel()

		ev, err := m.buildEvent(ctx, kind, b, title)
		if err != nil {
			m.log.Warn().Err(err).Uint64("booking_id", b.ID).Str("kind", string(kind)).Msg("notification skipped")
			return
		}
		if err := m.dispatcher.Dispatch(ctx, ev); err != nil {
			m.log.Warn().Err(err).Uint64("booking_id", b.ID).Str("kind", string(kind)).Msg("notification dispatch failed")
		}
	}()
}

func (m *Manager) buildEvent(ctx context.Context, kind notify.Kind, b model.Booking, title string) (notify.Event, error) {
	if title == "" {
		eq, err := m.store.GetEquipment(ctx, b.EquipmentID)
		if err != nil {
			return notify.Event{}, fmt.Errorf("load equipment: %w", err)
		}
		title = eq.Title
	}
	contacts, err := m.store.Contacts(ctx, b.GuestID, b.HostID)
	if err != nil {
		return notify.Event{}, fmt.Errorf("load contacts: %w", err)
	}
	ev := notify.Event{
		ID:             uuid.NewString(),
		Kind:           kind,
		BookingID:      b.ID,
		EquipmentTitle: title,
		DateFrom:       b.DateFrom.Format(DateLayout),
		DateTo:         b.DateTo.Format(DateLayout),
		AmountCents:    b.TotalPriceCents,
		OccurredAt:     time.Now().UTC(),
	}
	if c, ok := contacts[b.GuestID]; ok {
		ev.Guest = &c
	}
	if c, ok := contacts[b.HostID]; ok {
		ev.Host = &c
	}
	return ev, nil
}

func bookingErr(id uint64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("booking %d not found", id)
	}
	return fmt.Errorf("booking %d: %w", id, err)
}
