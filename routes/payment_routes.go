package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
)

// RegisterPaymentRoutes sets up the provider webhook, Whish checkout and its callbacks.
// Callbacks are public; Whish cannot present a token.
func RegisterPaymentRoutes(public, authed *echo.Group, pc *controllers.PaymentController, webhookSecret echo.MiddlewareFunc) {
	public.POST("/webhooks/payment", pc.Webhook, webhookSecret)

	public.GET("/whish/payment/callback/success", pc.WhishSuccess)
	public.GET("/whish/payment/callback/failure", pc.WhishFailure)

	authed.POST("/payments/checkout", pc.Checkout)
}
