package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultOrigin = "http://localhost:3000"

// SecureCORS allows the configured origins, which is where the booking
// widget is embedded. Wildcards are dropped in production.
func SecureCORS(origins []string, production bool) echo.MiddlewareFunc {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "" || (production && o == "*") {
			continue
		}
		allowed = append(allowed, o)
	}
	if len(allowed) == 0 {
		allowed = []string{defaultOrigin}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowed,
		AllowMethods:     []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, APIKeyHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
