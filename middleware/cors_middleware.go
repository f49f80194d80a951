package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// defaultOrigins are the local dashboard dev servers.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// ParseOrigins splits a comma separated origin list and appends it to the defaults.
func ParseOrigins(raw string) []string {
	origins := append([]string{}, defaultOrigins...)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// CORS allows the dashboard origins to call the API with credentials.
func CORS(origins []string) echo.MiddlewareFunc {
	return echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			echo.HeaderXRequestID, WebhookSecretHeader,
		},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength, echo.HeaderXRequestID},
		MaxAge:           86400, // 24 hours
	})
}
