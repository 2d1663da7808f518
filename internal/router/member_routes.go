package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/handler"
	"github.com/iliyamo/sportbnb/internal/middleware"
	"github.com/iliyamo/sportbnb/internal/model"
)

// RegisterMember registers the endpoints of any signed-in user under
// /v1.  Ownership of bookings, listings and messages is checked by the
// services, not here.
func RegisterMember(e *echo.Echo, eq *handler.EquipmentHandler, bk *handler.BookingHandler, rv *handler.ReviewHandler, msg *handler.MessageHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(anyRole...),
	)

	// ---- Equipment (hosts and admins list; owners edit) ----
	g.POST("/equipment", eq.Create, middleware.RequireRole(model.RoleHost, model.RoleAdmin))
	g.PATCH("/equipment/:id", eq.Update)
	g.DELETE("/equipment/:id", eq.Delete) // ?hard=true for admins
	g.POST("/equipment/:id/images", eq.AddImage)

	// ---- Bookings ----
	g.POST("/bookings", bk.Create)
	g.GET("/bookings", bk.List) // ?as=host for the host's incoming bookings
	g.GET("/bookings/:id", bk.Get)
	g.PATCH("/bookings/:id", bk.UpdateStatus)
	g.DELETE("/bookings/:id", bk.Cancel)

	// ---- Reviews and messages ----
	g.POST("/reviews", rv.Create)
	g.POST("/messages", msg.Send)
	g.GET("/messages", msg.Inbox)
	g.POST("/messages/:id/read", msg.MarkRead)
}
