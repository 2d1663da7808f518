// Package service holds the application logic around the booking core:
// the equipment catalog, reviews, messages and the admin dashboard.
// Services take narrow store interfaces and report failures as apperr
// kinds so the HTTP layer can map them to status codes.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/booking"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/repository"
)

// CatalogTag is the cache tag of every public equipment read.
const CatalogTag = "equipment"

// EquipmentStore is the persistence needed by EquipmentService.
type EquipmentStore interface {
	Create(ctx context.Context, e *model.Equipment) error
	GetByID(ctx context.Context, id uint64) (model.Equipment, error)
	GetWithImages(ctx context.Context, id uint64) (model.Equipment, error)
	AddImage(ctx context.Context, equipmentID uint64, url string) (model.EquipmentImage, error)
	Update(ctx context.Context, id uint64, p repository.EquipmentPatch) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, f repository.EquipmentFilter) ([]model.Equipment, int64, error)
}

// RatingSource returns review aggregates.
type RatingSource interface {
	Summary(ctx context.Context, equipmentID uint64) (model.RatingSummary, error)
}

// Invalidator drops cached responses carrying any of the tags.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// EquipmentView is a listing as shown on its detail page.
type EquipmentView struct {
	model.Equipment
	model.RatingSummary
}

// EquipmentPage is one page of search results.
type EquipmentPage struct {
	Items  []model.Equipment `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// NewEquipment is the input of EquipmentService.Create.
type NewEquipment struct {
	Title            string
	Description      string
	Category         string
	Sport            string
	City             string
	PricePerDayCents int64
	Lat, Lon         *float64
}

type EquipmentService struct {
	store   EquipmentStore
	ratings RatingSource
	cache   Invalidator
	log     zerolog.Logger
}

// NewEquipmentService wires the catalog.  cache may be nil.
func NewEquipmentService(store EquipmentStore, ratings RatingSource, cache Invalidator, log zerolog.Logger) *EquipmentService {
	return &EquipmentService{store: store, ratings: ratings, cache: cache, log: log}
}

// Create lists a new item owned by who.  Only hosts and admins list
// equipment; new listings are available immediately.
func (s *EquipmentService) Create(ctx context.Context, who booking.Requestor, in NewEquipment) (model.Equipment, error) {
	if who.Role != model.RoleHost && who.Role != model.RoleAdmin {
		return model.Equipment{}, apperr.Forbidden("only hosts can list equipment")
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return model.Equipment{}, apperr.Validation("title is required")
	}
	if in.PricePerDayCents < 0 {
		return model.Equipment{}, apperr.Validation("price must not be negative")
	}
	e := model.Equipment{
		HostID:           who.UserID,
		Title:            in.Title,
		Description:      strings.TrimSpace(in.Description),
		Category:         strings.TrimSpace(in.Category),
		Sport:            strings.TrimSpace(in.Sport),
		City:             strings.TrimSpace(in.City),
		PricePerDayCents: in.PricePerDayCents,
		Available:        true,
		Lat:              in.Lat,
		Lon:              in.Lon,
	}
	if err := s.store.Create(ctx, &e); err != nil {
		return model.Equipment{}, fmt.Errorf("create equipment: %w", err)
	}
	s.invalidate(ctx)
	s.log.Info().Uint64("equipment_id", e.ID).Uint64("host_id", e.HostID).Msg("equipment listed")
	return s.store.GetByID(ctx, e.ID)
}

// Get returns a listing with its images and rating summary.
func (s *EquipmentService) Get(ctx context.Context, id uint64) (EquipmentView, error) {
	e, err := s.store.GetWithImages(ctx, id)
	if err != nil {
		return EquipmentView{}, notFound("equipment", id, err)
	}
	v := EquipmentView{Equipment: e}
	if s.ratings != nil {
		v.RatingSummary, err = s.ratings.Summary(ctx, id)
		if err != nil {
			return EquipmentView{}, fmt.Errorf("rating summary: %w", err)
		}
	}
	return v, nil
}

// Search returns one page of listings.  Limit defaults to 20, max 100.
func (s *EquipmentService) Search(ctx context.Context, f repository.EquipmentFilter) (EquipmentPage, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.MinPriceCents > 0 && f.MaxPriceCents > 0 && f.MinPriceCents > f.MaxPriceCents {
		return EquipmentPage{}, apperr.Validation("min_price must not exceed max_price")
	}
	items, total, err := s.store.Search(ctx, f)
	if err != nil {
		return EquipmentPage{}, fmt.Errorf("search equipment: %w", err)
	}
	return EquipmentPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Update applies a partial update on behalf of the owner or an admin.
func (s *EquipmentService) Update(ctx context.Context, who booking.Requestor, id uint64, p repository.EquipmentPatch) (model.Equipment, error) {
	if p.Empty() {
		return model.Equipment{}, apperr.Validation("nothing to update")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return model.Equipment{}, apperr.Validation("title must not be empty")
	}
	if p.PricePerDayCents != nil && *p.PricePerDayCents < 0 {
		return model.Equipment{}, apperr.Validation("price must not be negative")
	}
	if _, err := s.owned(ctx, who, id); err != nil {
		return model.Equipment{}, err
	}
	if err := s.store.Update(ctx, id, p); err != nil {
		return model.Equipment{}, notFound("equipment", id, err)
	}
	s.invalidate(ctx)
	return s.store.GetByID(ctx, id)
}

// Disable hides a listing from booking without deleting its history.
func (s *EquipmentService) Disable(ctx context.Context, who booking.Requestor, id uint64) error {
	off := false
	_, err := s.Update(ctx, who, id, repository.EquipmentPatch{Available: &off})
	return err
}

// Delete removes a listing and everything attached to it.  Admin only.
func (s *EquipmentService) Delete(ctx context.Context, who booking.Requestor, id uint64) error {
	if who.Role != model.RoleAdmin {
		return apperr.Forbidden("only admins can delete equipment")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return notFound("equipment", id, err)
	}
	s.invalidate(ctx)
	s.log.Warn().Uint64("equipment_id", id).Uint64("admin_id", who.UserID).Msg("equipment deleted")
	return nil
}

// AddImage appends a picture to a listing.
func (s *EquipmentService) AddImage(ctx context.Context, who booking.Requestor, id uint64, url string) (model.EquipmentImage, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.EquipmentImage{}, apperr.Validation("url is required")
	}
	if _, err := s.owned(ctx, who, id); err != nil {
		return model.EquipmentImage{}, err
	}
	img, err := s.store.AddImage(ctx, id, url)
	if err != nil {
		return model.EquipmentImage{}, notFound("equipment", id, err)
	}
	s.invalidate(ctx)
	return img, nil
}

// owned loads a listing and checks that who may modify it.
func (s *EquipmentService) owned(ctx context.Context, who booking.Requestor, id uint64) (model.Equipment, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Equipment{}, notFound("equipment", id, err)
	}
	if who.Role != model.RoleAdmin && (e.HostID == 0 || e.HostID != who.UserID) {
		return model.Equipment{}, apperr.Forbidden("equipment %d belongs to another host", id)
	}
	return e, nil
}

func (s *EquipmentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, CatalogTag); err != nil {
		s.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}

// notFound maps sql.ErrNoRows to a not-found error for the named entity
// and wraps everything else.
func notFound(entity string, id uint64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s %d not found", entity, id)
	}
	return fmt.Errorf("%s %d: %w", entity, id, err)
}
