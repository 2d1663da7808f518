package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/handler"
	"github.com/iliyamo/sportbnb/internal/middleware"
	"github.com/iliyamo/sportbnb/internal/model"
)

// RegisterAdmin registers the dashboard under /v1/admin.  All routes
// require the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/users", h.Users)
	g.PATCH("/users/:id", h.UpdateUser)
}
