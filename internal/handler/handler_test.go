package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/booking"
	"github.com/iliyamo/sportbnb/internal/config"
	"github.com/iliyamo/sportbnb/internal/middleware"
	"github.com/iliyamo/sportbnb/internal/model"
	"github.com/iliyamo/sportbnb/internal/repository"
	"github.com/iliyamo/sportbnb/internal/service"
	"github.com/iliyamo/sportbnb/internal/utils"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = middleware.NewValidator()
	return e
}

// as authenticates every request of a test server as the given user.
func as(uid uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserID, uid)
			c.Set(middleware.CtxRole, role)
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

// ---- bookings ----

type bookingStub struct {
	created booking.CreateRequest
	filter  booking.ListFilter
	status  string
	err     error
	calls   int
	booking model.Booking
	quote   booking.Quote
	lastWho booking.Requestor
	lastID  uint64
}

func (s *bookingStub) Create(_ context.Context, req booking.CreateRequest) (model.Booking, error) {
	s.calls++
	s.created = req
	if s.err != nil {
		return model.Booking{}, s.err
	}
	b := s.booking
	b.EquipmentID, b.GuestID, b.DateFrom, b.DateTo = req.EquipmentID, req.GuestID, req.DateFrom, req.DateTo
	return b, nil
}

func (s *bookingStub) UpdateStatus(_ context.Context, id uint64, who booking.Requestor, st string) (model.Booking, error) {
	s.calls++
	s.lastID, s.lastWho, s.status = id, who, st
	return s.booking, s.err
}

func (s *bookingStub) Cancel(_ context.Context, id uint64, who booking.Requestor) (model.Booking, error) {
	s.calls++
	s.lastID, s.lastWho = id, who
	return s.booking, s.err
}

func (s *bookingStub) Quote(context.Context, uint64, time.Time, time.Time) (booking.Quote, error) {
	s.calls++
	return s.quote, s.err
}

func (s *bookingStub) Get(_ context.Context, id uint64, who booking.Requestor) (model.Booking, error) {
	s.calls++
	s.lastID, s.lastWho = id, who
	return s.booking, s.err
}

func (s *bookingStub) List(_ context.Context, f booking.ListFilter) ([]model.Booking, error) {
	s.calls++
	s.filter = f
	return []model.Booking{s.booking}, s.err
}

func bookingServer(stub *bookingStub) *echo.Echo {
	e := newEcho()
	h := NewBookingHandler(stub)
	g := e.Group("/v1", as(7, model.RoleGuest))
	g.POST("/bookings", h.Create)
	g.GET("/bookings", h.List)
	g.GET("/bookings/:id", h.Get)
	g.PATCH("/bookings/:id", h.UpdateStatus)
	g.DELETE("/bookings/:id", h.Cancel)
	e.POST("/v1/bookings/quote", h.Quote)
	return e
}

const validBooking = `{"equipment_id":3,"date_from":"2025-07-01","date_to":"2025-07-03"}`

func TestBookingCreateMapsFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		token  string
	}{
		{"unavailable", apperr.Unavailable("equipment 3 is not available"), http.StatusUnprocessableEntity, "unavailable"},
		{"overlap", apperr.Conflict("dates already booked"), http.StatusConflict, "conflict"},
		{"missing", apperr.NotFound("equipment 3 not found"), http.StatusNotFound, "not_found"},
		{"forbidden", apperr.Forbidden("own equipment"), http.StatusForbidden, "forbidden"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(bookingServer(&bookingStub{err: tc.err}), http.MethodPost, "/v1/bookings", validBooking)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.token, decode(t, rec)["error"])
		})
	}
}

func TestBookingCreateInternalErrorHidesCause(t *testing.T) {
	rec := do(bookingServer(&bookingStub{err: errors.New("dial tcp 10.0.0.3:3306")}), http.MethodPost, "/v1/bookings", validBooking)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestBookingCreateUsesCallerAsGuest(t *testing.T) {
	stub := &bookingStub{booking: model.Booking{ID: 11, TotalPriceCents: 4550, Status: model.StatusPending}}
	rec := do(bookingServer(stub), http.MethodPost, "/v1/bookings", validBooking)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, uint64(7), stub.created.GuestID)
	assert.Equal(t, uint64(3), stub.created.EquipmentID)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), stub.created.DateFrom)

	body := decode(t, rec)
	assert.Equal(t, "2025-07-01", body["date_from"])
	assert.Equal(t, "2025-07-03", body["date_to"])
	assert.Equal(t, 45.5, body["total_price"])
	assert.Equal(t, "pending", body["status"])
}

func TestBookingCreateRejectsBadInput(t *testing.T) {
	for name, body := range map[string]string{
		"no equipment":   `{"date_from":"2025-07-01","date_to":"2025-07-03"}`,
		"bad date":       `{"equipment_id":3,"date_from":"01/07/2025","date_to":"2025-07-03"}`,
		"reversed range": `{"equipment_id":3,"date_from":"2025-07-05","date_to":"2025-07-03"}`,
		"not json":       `{"equipment_id":`,
	} {
		t.Run(name, func(t *testing.T) {
			stub := &bookingStub{}
			rec := do(bookingServer(stub), http.MethodPost, "/v1/bookings", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", decode(t, rec)["error"])
			assert.Zero(t, stub.calls)
		})
	}
}

func TestBookingListFilters(t *testing.T) {
	stub := &bookingStub{}
	rec := do(bookingServer(stub), http.MethodGet, "/v1/bookings?as=host&status=Confirmed&limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.ListFilter{HostID: 7, Status: model.StatusConfirmed, Limit: 5, Offset: 10}, stub.filter)

	rec = do(bookingServer(stub), http.MethodGet, "/v1/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.ListFilter{GuestID: 7}, stub.filter)
}

func TestBookingListUnknownStatus(t *testing.T) {
	stub := &bookingStub{}
	rec := do(bookingServer(stub), http.MethodGet, "/v1/bookings?status=archived", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decode(t, rec)["error"])
	assert.Zero(t, stub.calls)
}

func TestBookingUpdateStatusPassesRequestor(t *testing.T) {
	stub := &bookingStub{booking: model.Booking{ID: 4, Status: model.StatusConfirmed}}
	rec := do(bookingServer(stub), http.MethodPatch, "/v1/bookings/4", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(4), stub.lastID)
	assert.Equal(t, booking.Requestor{UserID: 7, Role: model.RoleGuest}, stub.lastWho)
	assert.Equal(t, "confirmed", stub.status)

	rec = do(bookingServer(stub), http.MethodPatch, "/v1/bookings/abc", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingQuote(t *testing.T) {
	stub := &bookingStub{quote: booking.Quote{EquipmentID: 3, Days: 3, PricePerDayCents: 1250, TotalCents: 3750}}
	rec := do(bookingServer(stub), http.MethodPost, "/v1/bookings/quote", validBooking)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, 12.5, body["price_per_day"])
	assert.Equal(t, 37.5, body["total"])
}

// ---- equipment ----

type catalogStub struct {
	patch    repository.EquipmentPatch
	filter   repository.EquipmentFilter
	created  service.NewEquipment
	deleted  bool
	disabled bool
	calls    int
	err      error
}

func (s *catalogStub) Create(_ context.Context, _ booking.Requestor, in service.NewEquipment) (model.Equipment, error) {
	s.calls++
	s.created = in
	return model.Equipment{ID: 1, Title: in.Title, PricePerDayCents: in.PricePerDayCents}, s.err
}

func (s *catalogStub) Get(_ context.Context, id uint64) (service.EquipmentView, error) {
	s.calls++
	return service.EquipmentView{Equipment: model.Equipment{ID: id}}, s.err
}

func (s *catalogStub) Search(_ context.Context, f repository.EquipmentFilter) (service.EquipmentPage, error) {
	s.calls++
	s.filter = f
	return service.EquipmentPage{Items: []model.Equipment{}, Limit: 20}, s.err
}

func (s *catalogStub) Update(_ context.Context, _ booking.Requestor, id uint64, p repository.EquipmentPatch) (model.Equipment, error) {
	s.calls++
	s.patch = p
	return model.Equipment{ID: id}, s.err
}

func (s *catalogStub) Disable(context.Context, booking.Requestor, uint64) error {
	s.calls++
	s.disabled = true
	return s.err
}

func (s *catalogStub) Delete(context.Context, booking.Requestor, uint64) error {
	s.calls++
	s.deleted = true
	return s.err
}

func (s *catalogStub) AddImage(_ context.Context, _ booking.Requestor, id uint64, url string) (model.EquipmentImage, error) {
	s.calls++
	return model.EquipmentImage{ID: 1, EquipmentID: id, URL: url}, s.err
}

type availabilityStub struct {
	ok   bool
	from time.Time
	to   time.Time
}

func (s *availabilityStub) IsAvailable(_ context.Context, _ uint64, from, to time.Time) (bool, error) {
	s.from, s.to = from, to
	return s.ok, nil
}

func equipmentServer(cat *catalogStub, av *availabilityStub) *echo.Echo {
	e := newEcho()
	h := NewEquipmentHandler(cat, av)
	e.GET("/v1/equipment", h.Search)
	e.GET("/v1/equipment/:id", h.Get)
	e.GET("/v1/equipment/:id/availability", h.Availability)
	g := e.Group("/v1", as(5, model.RoleHost))
	g.POST("/equipment", h.Create)
	g.PATCH("/equipment/:id", h.Update)
	g.DELETE("/equipment/:id", h.Delete)
	g.POST("/equipment/:id/images", h.AddImage)
	return e
}

func TestEquipmentCreateConvertsPrice(t *testing.T) {
	cat := &catalogStub{}
	rec := do(equipmentServer(cat, nil), http.MethodPost, "/v1/equipment", `{"title":"Kayak","price_per_day":19.99}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1999), cat.created.PricePerDayCents)

	rec = do(equipmentServer(cat, nil), http.MethodPost, "/v1/equipment", `{"title":"Kayak","price_per_day":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEquipmentUpdateRejectsUnknownFields(t *testing.T) {
	cat := &catalogStub{}
	rec := do(equipmentServer(cat, nil), http.MethodPatch, "/v1/equipment/9", `{"title":"Bike","colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "colour")
	assert.Zero(t, cat.calls)
}

func TestEquipmentUpdateBuildsPatch(t *testing.T) {
	cat := &catalogStub{}
	rec := do(equipmentServer(cat, nil), http.MethodPatch, "/v1/equipment/9", `{"price_per_day":12.5,"available":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, cat.patch.PricePerDayCents)
	assert.Equal(t, int64(1250), *cat.patch.PricePerDayCents)
	require.NotNil(t, cat.patch.Available)
	assert.False(t, *cat.patch.Available)
	assert.Nil(t, cat.patch.Title)
}

func TestEquipmentUpdateForbidden(t *testing.T) {
	cat := &catalogStub{err: apperr.Forbidden("equipment 9 belongs to another host")}
	rec := do(equipmentServer(cat, nil), http.MethodPatch, "/v1/equipment/9", `{"title":"Bike"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "equipment 9 belongs to another host", decode(t, rec)["message"])
}

func TestEquipmentSearchParsesQuery(t *testing.T) {
	cat := &catalogStub{}
	rec := do(equipmentServer(cat, nil), http.MethodGet,
		"/v1/equipment?q=ball&sport=tennis&min_price=10&max_price=25.5&available=true&bbox=45,9,46,10&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, repository.EquipmentFilter{
		Text: "ball", Sport: "tennis",
		MinPriceCents: 1000, MaxPriceCents: 2550,
		OnlyAvailable: true,
		MinLat:        45, MinLon: 9, MaxLat: 46, MaxLon: 10,
		Limit: 5,
	}, cat.filter)
}

func TestEquipmentSearchRejectsBadParams(t *testing.T) {
	for _, q := range []string{"bbox=1,2,3", "min_price=-4", "available=maybe", "host_id=x"} {
		t.Run(q, func(t *testing.T) {
			cat := &catalogStub{}
			rec := do(equipmentServer(cat, nil), http.MethodGet, "/v1/equipment?"+q, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, cat.calls)
		})
	}
}

func TestEquipmentDeleteSoftAndHard(t *testing.T) {
	cat := &catalogStub{}
	rec := do(equipmentServer(cat, nil), http.MethodDelete, "/v1/equipment/9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, cat.disabled)
	assert.False(t, cat.deleted)

	cat = &catalogStub{}
	rec = do(equipmentServer(cat, nil), http.MethodDelete, "/v1/equipment/9?hard=true", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, cat.deleted)
}

func TestEquipmentAddImageValidatesURL(t *testing.T) {
	cat := &catalogStub{}
	rec := do(equipmentServer(cat, nil), http.MethodPost, "/v1/equipment/9/images", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, cat.calls)

	rec = do(equipmentServer(cat, nil), http.MethodPost, "/v1/equipment/9/images", `{"url":"https://cdn.example.com/k.jpg"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEquipmentAvailability(t *testing.T) {
	av := &availabilityStub{ok: true}
	rec := do(equipmentServer(&catalogStub{}, av), http.MethodGet, "/v1/equipment/3/availability?from=2025-07-01&to=2025-07-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, float64(1), body["days"])
	assert.Equal(t, av.from, av.to)

	rec = do(equipmentServer(&catalogStub{}, av), http.MethodGet, "/v1/equipment/3/availability?from=2025-07-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- auth ----

type userFake struct {
	byEmail map[string]model.User
	nextID  uint64
}

func (f *userFake) Create(_ context.Context, in repository.NewUser, cost int) (uint64, error) {
	email := strings.ToLower(in.Email)
	if _, ok := f.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return 0, err
	}
	f.nextID++
	f.byEmail[email] = model.User{ID: f.nextID, Email: email, PasswordHash: hash, FullName: in.FullName, Role: in.Role, Lang: in.Lang, IsActive: true}
	return f.nextID, nil
}

func (f *userFake) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *userFake) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

type tokenFake struct {
	owners  map[string]uint64
	revoked map[uint64]bool
}

func (f *tokenFake) StoreRefresh(_ context.Context, uid uint64, hash string, _ time.Time) error {
	f.owners[hash] = uid
	return nil
}

func (f *tokenFake) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	uid, ok := f.owners[hash]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return uid, nil
}

func (f *tokenFake) RevokeByHash(_ context.Context, hash string) error {
	delete(f.owners, hash)
	return nil
}

func (f *tokenFake) RevokeAllForUser(_ context.Context, uid uint64) error {
	f.revoked[uid] = true
	return nil
}

const testSecret = "handler-test-secret"

func authServer() (*echo.Echo, *userFake, *tokenFake) {
	users := &userFake{byEmail: map[string]model.User{}}
	tokens := &tokenFake{owners: map[string]uint64{}, revoked: map[uint64]bool{}}
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	h := NewAuthHandler(cfg, users, tokens, zerolog.Nop())

	e := newEcho()
	e.Use(middleware.Language())
	e.POST("/v1/auth/register", h.Register)
	e.POST("/v1/auth/login", h.Login)
	e.POST("/v1/auth/refresh", h.Refresh)
	e.POST("/v1/auth/logout", h.Logout)
	e.GET("/v1/me", h.Me, middleware.JWTAuth(testSecret))
	return e, users, tokens
}

func TestRegisterIssuesTokens(t *testing.T) {
	e, users, _ := authServer()
	rec := do(e, http.MethodPost, "/v1/auth/register",
		`{"email":"Ada@Example.com","password":"longenough","full_name":"Ada","role":"admin","lang":"en"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	u := users.byEmail["ada@example.com"]
	assert.Equal(t, model.RoleGuest, u.Role, "admin is never self-assigned")
	assert.Equal(t, "en", u.Lang)

	body := decode(t, rec)
	access := body["access"].(map[string]any)["token"].(string)
	claims, err := utils.ParseAccessToken(testSecret, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, model.RoleGuest, claims.Role)
}

func TestRegisterRejections(t *testing.T) {
	e, _, _ := authServer()
	rec := do(e, http.MethodPost, "/v1/auth/register", `{"email":"a@b.co","password":"short","full_name":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/v1/auth/register", `{"email":"not-an-email","password":"longenough","full_name":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/v1/auth/register", `{"email":"a@b.co","password":"longenough","full_name":"A","role":"host"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(e, http.MethodPost, "/v1/auth/register", `{"email":"A@b.co","password":"longenough","full_name":"B"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	e, users, _ := authServer()
	require.Equal(t, http.StatusCreated,
		do(e, http.MethodPost, "/v1/auth/register", `{"email":"g@x.io","password":"longenough","full_name":"G"}`).Code)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/login", `{"email":"g@x.io","password":"wrong-one"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/login", `{"email":"nobody@x.io","password":"longenough"}`).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/v1/auth/login", `{"email":"G@x.io","password":"longenough"}`).Code)

	u := users.byEmail["g@x.io"]
	u.IsActive = false
	users.byEmail["g@x.io"] = u
	rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"g@x.io","password":"longenough"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	e, _, tokens := authServer()
	rec := do(e, http.MethodPost, "/v1/auth/register", `{"email":"r@x.io","password":"longenough","full_name":"R"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	raw := decode(t, rec)["refresh"].(map[string]any)["token"].(string)

	rec = do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+raw+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, stillValid := tokens.owners[utils.HashRefreshRaw(raw)]
	assert.False(t, stillValid)

	rec = do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+raw+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresToken(t *testing.T) {
	e, _, _ := authServer()
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/me", "").Code)

	rec := do(e, http.MethodPost, "/v1/auth/register", `{"email":"m@x.io","password":"longenough","full_name":"M"}`)
	access := decode(t, rec)["access"].(map[string]any)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	out := httptest.NewRecorder()
	e.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())
	assert.Contains(t, out.Body.String(), "m@x.io")
}

// ---- admin, messages, health ----

type adminStub struct {
	adminID, userID uint64
	active          bool
	calls           int
}

func (s *adminStub) Dashboard(context.Context) (repository.Stats, error) {
	return repository.Stats{Users: 3}, nil
}

func (s *adminStub) Users(context.Context, int, int) ([]service.UserSummary, error) {
	return nil, nil
}

func (s *adminStub) SetActive(_ context.Context, adminID, userID uint64, active bool) error {
	s.calls++
	s.adminID, s.userID, s.active = adminID, userID, active
	return nil
}

func TestAdminUpdateUser(t *testing.T) {
	stub := &adminStub{}
	e := newEcho()
	e.PATCH("/v1/admin/users/:id", NewAdminHandler(stub).UpdateUser, as(1, model.RoleAdmin))

	rec := do(e, http.MethodPatch, "/v1/admin/users/8", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, stub.calls)

	rec = do(e, http.MethodPatch, "/v1/admin/users/8", `{"is_active":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(1), stub.adminID)
	assert.Equal(t, uint64(8), stub.userID)
	assert.False(t, stub.active)
}

type messagesStub struct {
	sent   service.SendMessage
	unread bool
	err    error
}

func (s *messagesStub) Send(_ context.Context, in service.SendMessage) (model.Message, error) {
	s.sent = in
	return model.Message{ID: 1, SenderID: in.SenderID, ReceiverID: in.ReceiverID, Body: in.Body}, s.err
}

func (s *messagesStub) Inbox(_ context.Context, _ uint64, unread bool, _, _ int) ([]model.Message, error) {
	s.unread = unread
	return []model.Message{}, s.err
}

func (s *messagesStub) MarkRead(context.Context, uint64, uint64) error { return s.err }

func TestMessages(t *testing.T) {
	stub := &messagesStub{}
	h := NewMessageHandler(stub)
	e := newEcho()
	g := e.Group("/v1", as(2, model.RoleGuest))
	g.POST("/messages", h.Send)
	g.GET("/messages", h.Inbox)
	g.POST("/messages/:id/read", h.MarkRead)

	rec := do(e, http.MethodPost, "/v1/messages", `{"receiver_id":5,"booking_id":9,"body":"Is the helmet included?"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(2), stub.sent.SenderID)
	require.NotNil(t, stub.sent.BookingID)
	assert.Equal(t, uint64(9), *stub.sent.BookingID)

	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/messages?unread=true", "").Code)
	assert.True(t, stub.unread)

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/messages/3/read", "").Code)
	stub.err = apperr.NotFound("message 3 not found")
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/v1/messages/3/read", "").Code)
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(context.Context) error { return p.err }

func TestReady(t *testing.T) {
	e := newEcho()
	e.GET("/readyz", Ready(pingerStub{}))
	e.GET("/down", Ready(pingerStub{err: errors.New("refused")}))
	e.GET("/healthz", Health)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
	assert.Equal(t, "ok", do(e, http.MethodGet, "/healthz", "").Body.String())
}
