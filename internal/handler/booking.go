package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/booking"
	"github.com/iliyamo/sportbnb/internal/model"
)

// BookingManager is implemented by booking.Manager.
type BookingManager interface {
	Create(ctx context.Context, req booking.CreateRequest) (model.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uint64, who booking.Requestor, newStatus string) (model.Booking, error)
	Cancel(ctx context.Context, bookingID uint64, who booking.Requestor) (model.Booking, error)
	Quote(ctx context.Context, equipmentID uint64, dateFrom, dateTo time.Time) (booking.Quote, error)
	Get(ctx context.Context, bookingID uint64, who booking.Requestor) (model.Booking, error)
	List(ctx context.Context, f booking.ListFilter) ([]model.Booking, error)
}

type BookingHandler struct {
	Bookings BookingManager
}

func NewBookingHandler(m BookingManager) *BookingHandler { return &BookingHandler{Bookings: m} }

type bookingReq struct {
	EquipmentID uint64 `json:"equipment_id" validate:"required"`
	DateFrom    string `json:"date_from" validate:"required"`
	DateTo      string `json:"date_to" validate:"required"`
	Notes       string `json:"notes" validate:"max=1000"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// bookingView adds decimal amounts to a booking for display.
type bookingView struct {
	model.Booking
	DateFrom   string  `json:"date_from"`
	DateTo     string  `json:"date_to"`
	TotalPrice float64 `json:"total_price"`
}

func viewOf(b model.Booking) bookingView {
	return bookingView{
		Booking:    b,
		DateFrom:   b.DateFrom.Format(booking.DateLayout),
		DateTo:     b.DateTo.Format(booking.DateLayout),
		TotalPrice: model.AmountFromCents(b.TotalPriceCents),
	}
}

// Create books equipment for the caller.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	r, err := booking.ParseDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Create(ctx, booking.CreateRequest{
		EquipmentID: req.EquipmentID,
		GuestID:     requestor(c).UserID,
		DateFrom:    r.From,
		DateTo:      r.To,
		Notes:       req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, viewOf(b))
}

// Quote prices a prospective booking.  It is public.
func (h *BookingHandler) Quote(c echo.Context) error {
	var req bookingReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	r, err := booking.ParseDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	q, err := h.Bookings.Quote(ctx, req.EquipmentID, r.From, r.To)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"quote":         q,
		"price_per_day": model.AmountFromCents(q.PricePerDayCents),
		"total":         model.AmountFromCents(q.TotalCents),
	})
}

// List returns the caller's bookings as guest, or as host with ?as=host.
// ?status narrows by status.
func (h *BookingHandler) List(c echo.Context) error {
	who := requestor(c)
	f := booking.ListFilter{GuestID: who.UserID}
	if c.QueryParam("as") == "host" {
		f = booking.ListFilter{HostID: who.UserID}
	}
	if s := c.QueryParam("status"); s != "" {
		st, err := booking.ParseStatus(s)
		if err != nil {
			return writeError(c, err)
		}
		f.Status = st
	}
	f.Limit, f.Offset = paging(c)

	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Bookings.List(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]bookingView, 0, len(list))
	for _, b := range list {
		out = append(out, viewOf(b))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one booking visible to the caller.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, id, requestor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(b))
}

// UpdateStatus moves a booking to the posted status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req statusReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.UpdateStatus(ctx, id, requestor(c), req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(b))
}

// Cancel cancels a booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Cancel(ctx, id, requestor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(b))
}
