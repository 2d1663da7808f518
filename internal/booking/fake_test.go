package booking

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/notify"
)

// memStore is an in-memory Store.  WithTx serializes transactions on a
// single mutex and works on a copy of the bookings, which is discarded
// when fn fails.
type memStore struct {
	mu        sync.Mutex
	equipment map[uint64]model.Equipment
	bookings  map[uint64]model.Booking
	contacts  map[uint64]notify.Contact
	nextID    uint64

	contactsErr error
}

func newMemStore() *memStore {
	return &memStore{
		equipment: map[uint64]model.Equipment{},
		bookings:  map[uint64]model.Booking{},
		contacts:  map[uint64]notify.Contact{},
	}
}

func (s *memStore) addEquipment(e model.Equipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipment[e.ID] = e
}

func (s *memStore) addBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	} else if b.ID > s.nextID {
		s.nextID = b.ID
	}
	s.bookings[b.ID] = b
}

func (s *memStore) addContact(c notify.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[c.UserID] = c
}

func (s *memStore) booking(id uint64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *memStore) GetEquipment(_ context.Context, id uint64) (model.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.equipment[id]
	if !ok {
		return model.Equipment{}, sql.ErrNoRows
	}
	return e, nil
}

func (s *memStore) ActiveRanges(_ context.Context, equipmentID uint64) ([]DateRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return activeRanges(s.bookings, equipmentID), nil
}

func activeRanges(bookings map[uint64]model.Booking, equipmentID uint64) []DateRange {
	var out []DateRange
	for _, b := range bookings {
		if b.EquipmentID == equipmentID && IsActive(b.Status) {
			out = append(out, DateRange{From: b.DateFrom, To: b.DateTo})
		}
	}
	return out
}

func (s *memStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := make(map[uint64]model.Booking, len(s.bookings))
	for k, v := range s.bookings {
		staged[k] = v
	}
	tx := &memTx{s: s, bookings: staged, nextID: s.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	s.bookings = staged
	s.nextID = tx.nextID
	return nil
}

func (s *memStore) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, sql.ErrNoRows
	}
	return b, nil
}

func (s *memStore) ListBookings(_ context.Context, f ListFilter) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if f.GuestID != 0 && b.GuestID != f.GuestID {
			continue
		}
		if f.HostID != 0 && b.HostID != f.HostID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Contacts(_ context.Context, ids ...uint64) (map[uint64]notify.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contactsErr != nil {
		return nil, s.contactsErr
	}
	out := map[uint64]notify.Contact{}
	for _, id := range ids {
		if c, ok := s.contacts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type memTx struct {
	s        *memStore
	bookings map[uint64]model.Booking
	nextID   uint64
}

func (t *memTx) LockEquipment(_ context.Context, id uint64) (model.Equipment, error) {
	e, ok := t.s.equipment[id]
	if !ok {
		return model.Equipment{}, sql.ErrNoRows
	}
	return e, nil
}

func (t *memTx) ActiveRanges(_ context.Context, equipmentID uint64) ([]DateRange, error) {
	return activeRanges(t.bookings, equipmentID), nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	t.nextID++
	b.ID = t.nextID
	t.bookings[b.ID] = *b
	return nil
}

func (t *memTx) LockBooking(_ context.Context, id uint64) (model.Booking, error) {
	b, ok := t.bookings[id]
	if !ok {
		return model.Booking{}, sql.ErrNoRows
	}
	return b, nil
}

func (t *memTx) SetStatus(_ context.Context, id uint64, status model.BookingStatus) error {
	b, ok := t.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	t.bookings[id] = b
	return nil
}

// recorder is a Dispatcher that keeps every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recorder) Dispatch(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

var errBoom = errors.New("boom")
