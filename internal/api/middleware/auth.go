// Package middleware provides the HTTP middleware for the gigbook API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
)

// APIKeyHeader is accepted alongside "Authorization: Bearer <key>".
const APIKeyHeader = "X-API-Key"

// APIKeyAuth validates the API key on every request it wraps. Browsers
// cannot set headers on a websocket handshake, so upgrade requests may pass
// the key as the api_key query parameter instead. An empty key disables the
// check. Rejections are recorded on security, which may be nil.
func APIKeyAuth(apiKey string, security *logger.SecurityLogger) echo.MiddlewareFunc {
	if apiKey == "" {
		security.Unsecured("review API")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}

			var reason string
			switch token := presentedKey(c.Request()); {
			case token == "":
				reason = "missing API key"
			case subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1:
				reason = "invalid API key"
			default:
				return next(c)
			}

			security.AuthFailure(c.RealIP(), c.Path(), reason)
			return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
				"error": reason,
				"code":  "UNAUTHORIZED",
			})
		}
	}
}

func presentedKey(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return strings.TrimSpace(key)
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("api_key")
	}
	return ""
}
