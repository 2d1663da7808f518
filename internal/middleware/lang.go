package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportbnb/internal/i18n"
)

// Language negotiates the Accept-Language header.  Without the header
// the language claim of the access token, if any, applies instead.
func Language() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h := c.Request().Header.Get("Accept-Language"); h != "" {
				c.Set(CtxLang, i18n.Match(h))
			}
			return next(c)
		}
	}
}

// Lang returns the response language of the request.
func Lang(c echo.Context) string {
	if l, ok := c.Get(CtxLang).(string); ok && l != "" {
		return i18n.Default().Normalize(l)
	}
	return i18n.DefaultLang
}
