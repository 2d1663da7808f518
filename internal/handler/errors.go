package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/sportbnb/internal/apperr"
	"github.com/iliyamo/sportbnb/internal/i18n"
	"github.com/iliyamo/sportbnb/internal/middleware"
)

// statusOf maps failure kinds to HTTP status codes.  Conflict (dates
// taken) and Unavailable (item withdrawn) get different codes.
var statusOf = map[apperr.Kind]int{
	apperr.KindNotFound:      http.StatusNotFound,
	apperr.KindUnavailable:   http.StatusUnprocessableEntity,
	apperr.KindConflict:      http.StatusConflict,
	apperr.KindForbidden:     http.StatusForbidden,
	apperr.KindInvalidStatus: http.StatusBadRequest,
	apperr.KindValidation:    http.StatusBadRequest,
}

// writeError renders err as {"error": token, "message": text}.
// Unclassified errors are logged and reported as a generic 500.
func writeError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	if status, ok := statusOf[kind]; ok {
		msg := err.Error()
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}
		return c.JSON(status, echo.Map{"error": string(kind), "message": msg})
	}
	rid, _ := c.Get("request_id").(string)
	log.Error().Err(err).
		Str("request_id", rid).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error":   "internal_error",
		"message": i18n.T(middleware.Lang(c), "errors.internal", nil),
	})
}

// badRequest reports a malformed or invalid request body or parameter.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": string(apperr.KindValidation), "message": msg})
}
