package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/booking"
	"github.com/iliyamo/sportbnb/internal/middleware"
)

// requestTimeout bounds the store work of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// requestor is the authenticated caller as seen by the booking core.
func requestor(c echo.Context) booking.Requestor {
	id, _ := middleware.UserID(c)
	return booking.Requestor{UserID: id, Role: middleware.Role(c)}
}

// paging reads ?limit and ?offset; services clamp the values.
func paging(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}

// bindValid binds the request body into dst and runs the validator.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusUnsupportedMediaType {
			return apperr.Validation("content type must be application/json")
		}
		return apperr.Validation("invalid body")
	}
	if err := c.Validate(dst); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return nil
}
