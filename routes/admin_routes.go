package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
	"github.com/HSouheill/teamboard_backend/middleware"
)

// RegisterAdminRoutes sets up admin-only maintenance routes
func RegisterAdminRoutes(authed *echo.Group, ac *controllers.AdminController, pc *controllers.PaymentController) {
	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.POST("/sweep", ac.RunSweep)
	admin.GET("/payments/balance", pc.Balance)
}
