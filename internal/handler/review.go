package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/model"
)

// Reviews is implemented by service.ReviewService.
type Reviews interface {
	Create(ctx context.Context, authorID, bookingID uint64, rating int, comment string) (model.Review, error)
	List(ctx context.Context, equipmentID uint64, limit, offset int) ([]model.Review, error)
}

type ReviewHandler struct {
	Reviews Reviews
}

func NewReviewHandler(r Reviews) *ReviewHandler { return &ReviewHandler{Reviews: r} }

type reviewReq struct {
	BookingID uint64 `json:"booking_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// Create posts a review of a completed booking.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req reviewReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Reviews.Create(ctx, requestor(c).UserID, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// ListForEquipment returns the reviews of one listing.
func (h *ReviewHandler) ListForEquipment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	limit, offset := paging(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Reviews.List(ctx, id, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
