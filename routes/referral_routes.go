package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
)

// RegisterReferralRoutes sets up the public redirect and the referral dashboard routes
func RegisterReferralRoutes(e *echo.Echo, authed *echo.Group, rc *controllers.ReferralController) {
	e.GET("/r/:code", rc.Redirect)

	referrals := authed.Group("/referrals")
	referrals.GET("/me", rc.Me)
	referrals.GET("/me/qr", rc.QRCode)
	referrals.GET("/leaderboard", rc.Leaderboard)
}
