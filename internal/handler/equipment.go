package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/booking"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/repository"
	"github.com/iliyamo/sportbnb/internal/service"
)

// EquipmentCatalog is implemented by service.EquipmentService.
type EquipmentCatalog interface {
	Create(ctx context.Context, who booking.Requestor, in service.NewEquipment) (model.Equipment, error)
	Get(ctx context.Context, id uint64) (service.EquipmentView, error)
	Search(ctx context.Context, f repository.EquipmentFilter) (service.EquipmentPage, error)
	Update(ctx context.Context, who booking.Requestor, id uint64, p repository.EquipmentPatch) (model.Equipment, error)
	Disable(ctx context.Context, who booking.Requestor, id uint64) error
	Delete(ctx context.Context, who booking.Requestor, id uint64) error
	AddImage(ctx context.Context, who booking.Requestor, id uint64, url string) (model.EquipmentImage, error)
}

// AvailabilityChecker is implemented by booking.Checker.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, equipmentID uint64, dateFrom, dateTo time.Time) (bool, error)
}

type EquipmentHandler struct {
	Catalog EquipmentCatalog
	Checker AvailabilityChecker
}

func NewEquipmentHandler(catalog EquipmentCatalog, availability AvailabilityChecker) *EquipmentHandler {
	return &EquipmentHandler{Catalog: catalog, Checker: availability}
}

type createEquipmentReq struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Category    string   `json:"category" validate:"max=64"`
	Sport       string   `json:"sport" validate:"max=64"`
	City        string   `json:"city" validate:"max=128"`
	PricePerDay float64  `json:"price_per_day" validate:"gte=0"`
	Lat         *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon         *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
}

// patchEquipmentReq lists every field a PATCH may carry.  Keys outside
// this set are rejected rather than ignored.
type patchEquipmentReq struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Category    *string  `json:"category" validate:"omitempty,max=64"`
	Sport       *string  `json:"sport" validate:"omitempty,max=64"`
	City        *string  `json:"city" validate:"omitempty,max=128"`
	PricePerDay *float64 `json:"price_per_day" validate:"omitempty,gte=0"`
	Available   *bool    `json:"available"`
	Lat         *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon         *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
}

func (r patchEquipmentReq) patch() repository.EquipmentPatch {
	p := repository.EquipmentPatch{
		Title: r.Title, Description: r.Description, Category: r.Category,
		Sport: r.Sport, City: r.City, Available: r.Available, Lat: r.Lat, Lon: r.Lon,
	}
	if r.PricePerDay != nil {
		cents := model.CentsFromAmount(*r.PricePerDay)
		p.PricePerDayCents = &cents
	}
	return p
}

type imageReq struct {
	URL string `json:"url" validate:"required,url,max=512"`
}

// Create lists new equipment for the caller.
func (h *EquipmentHandler) Create(c echo.Context) error {
	var req createEquipmentReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Catalog.Create(ctx, requestor(c), service.NewEquipment{
		Title: req.Title, Description: req.Description, Category: req.Category,
		Sport: req.Sport, City: req.City, PricePerDayCents: model.CentsFromAmount(req.PricePerDay),
		Lat: req.Lat, Lon: req.Lon,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// Get returns one listing with images and rating.
func (h *EquipmentHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Catalog.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Search lists equipment matching the query string.
func (h *EquipmentHandler) Search(c echo.Context) error {
	f, err := searchFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Catalog.Search(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// searchFilter reads q, category, sport, city, min_price, max_price,
// available, host_id, bbox (minLat,minLon,maxLat,maxLon), limit, offset.
func searchFilter(c echo.Context) (repository.EquipmentFilter, error) {
	f := repository.EquipmentFilter{
		Text:     c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Sport:    c.QueryParam("sport"),
		City:     c.QueryParam("city"),
	}
	f.Limit, f.Offset = paging(c)
	for name, dst := range map[string]*int64{"min_price": &f.MinPriceCents, "max_price": &f.MaxPriceCents} {
		if v := c.QueryParam(name); v != "" {
			amount, err := strconv.ParseFloat(v, 64)
			if err != nil || amount < 0 {
				return f, apperr.Validation("invalid %s", name)
			}
			*dst = model.CentsFromAmount(amount)
		}
	}
	if v := c.QueryParam("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.Validation("invalid available")
		}
		f.OnlyAvailable = b
	}
	if v := c.QueryParam("host_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, apperr.Validation("invalid host_id")
		}
		f.HostID = id
	}
	if v := c.QueryParam("bbox"); v != "" {
		parts := strings.Split(v, ",")
		if len(parts) != 4 {
			return f, apperr.Validation("bbox must be minLat,minLon,maxLat,maxLon")
		}
		var nums [4]float64
		for i, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return f, apperr.Validation("bbox must be minLat,minLon,maxLat,maxLon")
			}
			nums[i] = n
		}
		f.MinLat, f.MinLon, f.MaxLat, f.MaxLon = nums[0], nums[1], nums[2], nums[3]
	}
	return f, nil
}

// Update applies a partial update.  Unknown JSON keys yield 400.
func (h *EquipmentHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req patchEquipmentReq
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return badRequest(c, "invalid body: "+err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Catalog.Update(ctx, requestor(c), id, req.patch())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Delete disables a listing; admins may pass ?hard=true to remove it.
func (h *EquipmentHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	hard, _ := strconv.ParseBool(c.QueryParam("hard"))
	ctx, cancel := reqCtx(c)
	defer cancel()
	if hard {
		err = h.Catalog.Delete(ctx, requestor(c), id)
	} else {
		err = h.Catalog.Disable(ctx, requestor(c), id)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddImage attaches a picture URL to a listing.
func (h *EquipmentHandler) AddImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req imageReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	img, err := h.Catalog.AddImage(ctx, requestor(c), id, req.URL)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, img)
}

// Availability answers whether the item is free for ?from..?to.
func (h *EquipmentHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	r, err := booking.ParseDateRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Checker.IsAvailable(ctx, id, r.From, r.To)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"equipment_id": id,
		"date_from":    r.From.Format(booking.DateLayout),
		"date_to":      r.To.Format(booking.DateLayout),
		"days":         r.Days(),
		"available":    ok,
	})
}
