package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/handler"
	"github.com/iliyamo/sportbnb/internal/middleware"
	"github.com/iliyamo/sportbnb/internal/model"
)

// anyRole admits every authenticated account.
var anyRole = []string{model.RoleGuest, model.RoleHost, model.RoleAdmin}

// RegisterRoutes registers the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers authentication routes.  Token exchange lives
// under /v1/auth and needs no session; /v1/me requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token or a bearer token, so it sits
	// outside the JWT group.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(anyRole...))
}

// RegisterPublic registers the catalog browse endpoints and the price
// quote.  cache wraps the reads whose responses are shared by every
// caller; availability is computed live.
func RegisterPublic(e *echo.Echo, eq *handler.EquipmentHandler, rv *handler.ReviewHandler, bk *handler.BookingHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/equipment", eq.Search, cache)
	e.GET("/v1/equipment/:id", eq.Get, cache)
	e.GET("/v1/equipment/:id/reviews", rv.ListForEquipment, cache)
	e.GET("/v1/equipment/:id/availability", eq.Availability)
	e.POST("/v1/bookings/quote", bk.Quote)
}
