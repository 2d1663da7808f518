package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/repository"
)

// BookingReader loads bookings by id.
type BookingReader interface {
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
}

// ReviewStore persists reviews.
type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	ListByEquipment(ctx context.Context, equipmentID uint64, limit, offset int) ([]model.Review, error)
}

type ReviewService struct {
	bookings BookingReader
	reviews  ReviewStore
	cache    Invalidator
	log      zerolog.Logger
}

func NewReviewService(bookings BookingReader, reviews ReviewStore, cache Invalidator, log zerolog.Logger) *ReviewService {
	return &ReviewService{bookings: bookings, reviews: reviews, cache: cache, log: log}
}

// Create records the guest's review of a completed booking.  Each
// booking can be reviewed once.
func (s *ReviewService) Create(ctx context.Context, authorID, bookingID uint64, rating int, comment string) (model.Review, error) {
	if rating < 1 || rating > 5 {
		return model.Review{}, apperr.Validation("rating must be between 1 and 5")
	}
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Review{}, notFound("booking", bookingID, err)
	}
	if b.GuestID == 0 || b.GuestID != authorID {
		return model.Review{}, apperr.Forbidden("only the guest of booking %d can review it", bookingID)
	}
	if b.Status != model.StatusCompleted {
		return model.Review{}, apperr.Validation("booking %d is not completed", bookingID)
	}
	r := model.Review{
		BookingID:   b.ID,
		EquipmentID: b.EquipmentID,
		AuthorID:    authorID,
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
	}
	if err := s.reviews.Create(ctx, &r); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Review{}, apperr.Conflict("booking %d already has a review", bookingID)
		}
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, CatalogTag); err != nil {
			s.log.Warn().Err(err).Uint64("booking_id", bookingID).Msg("cache invalidation failed")
		}
	}
	return r, nil
}

// List returns the reviews of an item, newest first.
func (s *ReviewService) List(ctx context.Context, equipmentID uint64, limit, offset int) ([]model.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.reviews.ListByEquipment(ctx, equipmentID, limit, offset)
}
