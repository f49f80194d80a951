package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
)

// WebhookSecretHeader carries the shared payment webhook secret.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret rejects requests whose secret header does not match. An empty
// secret rejects everything.
func WebhookSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(WebhookSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log.Warn().Str("ip", c.RealIP()).Msg("webhook rejected: bad secret")
				return apperror.Unauthenticated("Invalid webhook secret")
			}
			return next(c)
		}
	}
}
