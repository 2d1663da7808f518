package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/repository"
	"github.com/iliyamo/sportbnb/internal/service"
)

// Admin is implemented by service.AdminService.
type Admin interface {
	Dashboard(ctx context.Context) (repository.Stats, error)
	Users(ctx context.Context, limit, offset int) ([]service.UserSummary, error)
	SetActive(ctx context.Context, adminID, userID uint64, active bool) error
}

type AdminHandler struct {
	Admin Admin
}

func NewAdminHandler(a Admin) *AdminHandler { return &AdminHandler{Admin: a} }

type userPatchReq struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Admin.Dashboard(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHandler) Users(c echo.Context) error {
	limit, offset := paging(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Admin.Users(ctx, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateUser activates or deactivates an account.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req userPatchReq
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Admin.SetActive(ctx, requestor(c).UserID, id, *req.IsActive); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": *req.IsActive})
}
