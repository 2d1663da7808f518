package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sportbnb/internal/utils"
)

// Context keys set by JWTAuth.
const (
    CtxUserID = "user_id" // uint64
    CtxRole   = "role"    // string
    CtxLang   = "lang"    // string, also set by Language
)

// bearer returns the token of an "Authorization: Bearer" header.
func bearer(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    return raw, raw != ""
}

// JWTAuth validates a Bearer access token and injects the user id, role
// and language into the context.  Requests without a valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearer(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid token"})
            }
            setIdentity(c, claims)
            return next(c)
        }
    }
}

// OptionalJWT behaves like JWTAuth when a valid token is present and lets
// anonymous requests through otherwise.  Public routes use it so rate
// limit keys can still tell users apart.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if raw, ok := bearer(c); ok {
                if claims, err := utils.ParseAccessToken(secret, raw); err == nil {
                    setIdentity(c, claims)
                }
            }
            return next(c)
        }
    }
}

func setIdentity(c echo.Context, claims utils.Claims) {
    c.Set(CtxUserID, claims.UserID)
    c.Set(CtxRole, claims.Role)
    if claims.Lang != "" && c.Get(CtxLang) == nil {
        c.Set(CtxLang, claims.Lang)
    }
}
