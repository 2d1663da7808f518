package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/notify"
)

const (
	hostID  uint64 = 10
	guestID uint64 = 20
	otherID uint64 = 30
	adminID uint64 = 99
)

var (
	host  = Requestor{UserID: hostID, Role: model.RoleHost}
	guest = Requestor{UserID: guestID, Role: model.RoleGuest}
	other = Requestor{UserID: otherID, Role: model.RoleGuest}
	admin = Requestor{UserID: adminID, Role: model.RoleAdmin}
)

func fixture(t *testing.T, opts ...Option) (*Manager, *memStore, *recorder) {
	t.Helper()
	s := newMemStore()
	s.addEquipment(model.Equipment{ID: 1, HostID: hostID, Title: "Kitesurf board", PricePerDayCents: 2500, Available: true})
	s.addEquipment(model.Equipment{ID: 2, HostID: hostID, Title: "Retired skis", PricePerDayCents: 1000, Available: false})
	s.addEquipment(model.Equipment{ID: 3, HostID: 0, Title: "Orphan kayak", PricePerDayCents: 1000, Available: true})
	s.addContact(notify.Contact{UserID: hostID, Name: "Hana Host", Email: "host@example.com", Lang: "it"})
	s.addContact(notify.Contact{UserID: guestID, Name: "Gio Guest", Email: "guest@example.com", Lang: "en"})
	rec := &recorder{}
	return NewManager(s, rec, opts...), s, rec
}

func create(m *Manager, from, to string) (model.Booking, error) {
	return m.Create(context.Background(), CreateRequest{
		EquipmentID: 1, GuestID: guestID, DateFrom: d(from), DateTo: d(to), Notes: "pick up at 9",
	})
}

func TestCreatePricesAndPersists(t *testing.T) {
	m, s, rec := fixture(t)

	b, err := create(m, "2024-06-01", "2024-06-03")
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, int64(7500), b.TotalPriceCents)
	assert.Equal(t, hostID, b.HostID)
	stored, ok := s.booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, b, stored)

	events := rec.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, notify.BookingCreated, ev.Kind)
	assert.Equal(t, "Kitesurf board", ev.EquipmentTitle)
	assert.Equal(t, "2024-06-01", ev.DateFrom)
	assert.Equal(t, "2024-06-03", ev.DateTo)
	assert.Equal(t, int64(7500), ev.AmountCents)
	assert.NotEmpty(t, ev.ID)
	require.NotNil(t, ev.Guest)
	require.NotNil(t, ev.Host)
	assert.Len(t, notify.Recipients(ev), 2)
}

func TestCreateConflictOnSharedBoundaryDay(t *testing.T) {
	m, s, rec := fixture(t)
	s.addBooking(model.Booking{EquipmentID: 1, GuestID: otherID, HostID: hostID,
		DateFrom: d("2024-06-01"), DateTo: d("2024-06-05"), Status: model.StatusConfirmed})

	_, err := create(m, "2024-06-05", "2024-06-07")
	m.Wait()
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, 1, s.count())
	assert.Empty(t, rec.all())

	_, err = create(m, "2024-06-06", "2024-06-07")
	assert.NoError(t, err)
}

func TestCreateIgnoresInactiveBookings(t *testing.T) {
	m, s, _ := fixture(t)
	for _, st := range []model.BookingStatus{model.StatusCancelled, model.StatusRejected, model.StatusCompleted} {
		s.addBooking(model.Booking{EquipmentID: 1, GuestID: otherID, HostID: hostID,
			DateFrom: d("2024-06-01"), DateTo: d("2024-06-05"), Status: st})
	}
	_, err := create(m, "2024-06-02", "2024-06-03")
	assert.NoError(t, err)
	m.Wait()
}

func TestCreateFailures(t *testing.T) {
	m, _, rec := fixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"unknown equipment", CreateRequest{EquipmentID: 404, GuestID: guestID, DateFrom: d("2024-06-01"), DateTo: d("2024-06-02")}, ErrNotFound},
		{"disabled equipment", CreateRequest{EquipmentID: 2, GuestID: guestID, DateFrom: d("2024-06-01"), DateTo: d("2024-06-02")}, ErrUnavailable},
		{"no host", CreateRequest{EquipmentID: 3, GuestID: guestID, DateFrom: d("2024-06-01"), DateTo: d("2024-06-02")}, ErrUnavailable},
		{"inverted range", CreateRequest{EquipmentID: 1, GuestID: guestID, DateFrom: d("2024-06-03"), DateTo: d("2024-06-01")}, ErrValidation},
		{"own equipment", CreateRequest{EquipmentID: 1, GuestID: hostID, DateFrom: d("2024-06-01"), DateTo: d("2024-06-02")}, ErrValidation},
		{"no guest", CreateRequest{EquipmentID: 1, DateFrom: d("2024-06-01"), DateTo: d("2024-06-02")}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Create(ctx, tc.req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	m.Wait()
	assert.Empty(t, rec.all())
}

func TestCreateConcurrentSameSlot(t *testing.T) {
	m, s, _ := fixture(t)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := create(m, "2024-07-01", "2024-07-03")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	m.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, s.count())
}

func TestCreateSucceedsWhenDispatchFails(t *testing.T) {
	m, s, rec := fixture(t)
	rec.err = errBoom
	s.contactsErr = nil

	b, err := create(m, "2024-06-01", "2024-06-01")
	require.NoError(t, err)
	m.Wait()
	_, ok := s.booking(b.ID)
	assert.True(t, ok)
	assert.Len(t, rec.all(), 1)
}

func TestCreateSkipsNotificationWhenContactsFail(t *testing.T) {
	m, s, rec := fixture(t)
	s.contactsErr = errBoom

	_, err := create(m, "2024-06-01", "2024-06-01")
	require.NoError(t, err)
	m.Wait()
	assert.Empty(t, rec.all())
}

func TestGuestCancelsOwnPending(t *testing.T) {
	m, s, rec := fixture(t)
	b, err := create(m, "2024-06-01", "2024-06-03")
	require.NoError(t, err)
	m.Wait()

	got, err := m.Cancel(context.Background(), b.ID, guest)
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, model.StatusCancelled, got.Status)
	stored, _ := s.booking(b.ID)
	assert.Equal(t, model.StatusCancelled, stored.Status)

	events := rec.all()
	require.Len(t, events, 2)
	cancelled := events[1]
	assert.Equal(t, notify.BookingCancelled, cancelled.Kind)
	assert.Equal(t, "Kitesurf board", cancelled.EquipmentTitle)
	recipients := notify.Recipients(cancelled)
	require.Len(t, recipients, 2)
	assert.Equal(t, "guest@example.com", recipients[0].Contact.Email)
	assert.Equal(t, "host@example.com", recipients[1].Contact.Email)

	// the freed slot can be booked again
	_, err = create(m, "2024-06-02", "2024-06-02")
	assert.NoError(t, err)
	m.Wait()
}

func TestNonOwnerCannotConfirm(t *testing.T) {
	m, s, _ := fixture(t)
	s.addBooking(model.Booking{ID: 5, EquipmentID: 1, GuestID: guestID, HostID: hostID,
		DateFrom: d("2024-06-01"), DateTo: d("2024-06-02"), Status: model.StatusPending})

	for _, who := range []Requestor{other, guest} {
		_, err := m.UpdateStatus(context.Background(), 5, who, "confirmed")
		assert.True(t, errors.Is(err, ErrForbidden), "requestor %d: %v", who.UserID, err)
	}
	stored, _ := s.booking(5)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestUpdateStatusMatrix(t *testing.T) {
	cases := []struct {
		name   string
		policy Policy
		from   model.BookingStatus
		who    Requestor
		target string
		want   error
	}{
		{"host confirms", Policy{}, model.StatusPending, host, "confirmed", nil},
		{"host rejects", Policy{}, model.StatusPending, host, "rejected", nil},
		{"admin confirms", Policy{}, model.StatusPending, admin, "CONFIRMED", nil},
		{"guest cancels confirmed", Policy{}, model.StatusConfirmed, guest, "cancelled", nil},
		{"host cancels confirmed", Policy{}, model.StatusConfirmed, host, "cancelled", nil},
		{"stranger cancels", Policy{}, model.StatusPending, other, "cancelled", ErrForbidden},
		{"guest confirms", Policy{}, model.StatusPending, guest, "confirmed", ErrForbidden},
		{"admin completes", Policy{}, model.StatusConfirmed, admin, "completed", nil},
		{"host completes by default", Policy{}, model.StatusConfirmed, host, "completed", ErrForbidden},
		{"host completes when allowed", Policy{HostCanComplete: true}, model.StatusConfirmed, host, "completed", nil},
		{"guest completes", Policy{HostCanComplete: true}, model.StatusConfirmed, guest, "completed", ErrForbidden},
		{"pending cannot complete", Policy{}, model.StatusPending, admin, "completed", ErrInvalidStatus},
		{"confirmed back to pending by host", Policy{}, model.StatusConfirmed, host, "pending", ErrForbidden},
		{"confirmed back to pending by admin", Policy{}, model.StatusConfirmed, admin, "pending", ErrInvalidStatus},
		{"out of cancelled", Policy{}, model.StatusCancelled, admin, "confirmed", ErrInvalidStatus},
		{"out of rejected", Policy{}, model.StatusRejected, host, "cancelled", ErrInvalidStatus},
		{"out of completed", Policy{}, model.StatusCompleted, guest, "cancelled", ErrInvalidStatus},
		{"unknown token", Policy{}, model.StatusPending, admin, "archived", ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, s, _ := fixture(t, WithPolicy(tc.policy))
			s.addBooking(model.Booking{ID: 7, EquipmentID: 1, GuestID: guestID, HostID: hostID,
				DateFrom: d("2024-06-01"), DateTo: d("2024-06-02"), Status: tc.from})

			got, err := m.UpdateStatus(context.Background(), 7, tc.who, tc.target)
			m.Wait()
			stored, _ := s.booking(7)
			if tc.want != nil {
				assert.True(t, errors.Is(err, tc.want), "got %v", err)
				assert.Equal(t, tc.from, stored.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, got.Status, stored.Status)
			assert.NotEqual(t, tc.from, stored.Status)
		})
	}
}

func TestUpdateStatusUnknownBooking(t *testing.T) {
	m, _, _ := fixture(t)
	_, err := m.UpdateStatus(context.Background(), 404, admin, "confirmed")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConfirmNotifiesGuestOnly(t *testing.T) {
	m, s, rec := fixture(t)
	s.addBooking(model.Booking{ID: 8, EquipmentID: 1, GuestID: guestID, HostID: hostID,
		DateFrom: d("2024-06-01"), DateTo: d("2024-06-02"), Status: model.StatusPending, TotalPriceCents: 5000})

	_, err := m.UpdateStatus(context.Background(), 8, host, "confirmed")
	require.NoError(t, err)
	m.Wait()

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, notify.BookingConfirmed, events[0].Kind)
	recipients := notify.Recipients(events[0])
	require.Len(t, recipients, 1)
	assert.Equal(t, "guest", recipients[0].Role)
}

func TestQuote(t *testing.T) {
	m, s, _ := fixture(t)
	ctx := context.Background()

	q, err := m.Quote(ctx, 1, d("2024-06-01"), d("2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, Quote{EquipmentID: 1, DateFrom: "2024-06-01", DateTo: "2024-06-03",
		Days: 3, PricePerDayCents: 2500, TotalCents: 7500}, q)

	_, err = m.Quote(ctx, 2, d("2024-06-01"), d("2024-06-03"))
	assert.True(t, errors.Is(err, ErrUnavailable))

	s.addBooking(model.Booking{EquipmentID: 1, GuestID: otherID, HostID: hostID,
		DateFrom: d("2024-06-03"), DateTo: d("2024-06-04"), Status: model.StatusPending})
	_, err = m.Quote(ctx, 1, d("2024-06-01"), d("2024-06-03"))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 1, s.count())
}

func TestCheckerIsAvailable(t *testing.T) {
	_, s, _ := fixture(t)
	s.addBooking(model.Booking{EquipmentID: 1, GuestID: otherID, HostID: hostID,
		DateFrom: d("2024-06-01"), DateTo: d("2024-06-05"), Status: model.StatusConfirmed})
	c := NewChecker(s)
	ctx := context.Background()

	ok, err := c.IsAvailable(ctx, 1, d("2024-06-05"), d("2024-06-07"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.IsAvailable(ctx, 1, d("2024-06-06"), d("2024-06-07"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsAvailable(ctx, 2, d("2024-06-06"), d("2024-06-07"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.IsAvailable(ctx, 404, d("2024-06-06"), d("2024-06-07"))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.IsAvailable(ctx, 1, d("2024-06-07"), d("2024-06-06"))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestGetVisibility(t *testing.T) {
	m, s, _ := fixture(t)
	s.addBooking(model.Booking{ID: 4, EquipmentID: 1, GuestID: guestID, HostID: hostID,
		DateFrom: d("2024-06-01"), DateTo: d("2024-06-02"), Status: model.StatusPending})
	ctx := context.Background()

	for _, who := range []Requestor{guest, host, admin} {
		_, err := m.Get(ctx, 4, who)
		assert.NoError(t, err)
	}
	_, err := m.Get(ctx, 4, other)
	assert.True(t, errors.Is(err, ErrForbidden))
	_, err = m.Get(ctx, 40, admin)
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := m.List(ctx, ListFilter{HostID: hostID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
