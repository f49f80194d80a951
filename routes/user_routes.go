package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
	"github.com/HSouheill/teamboard_backend/middleware"
)

// RegisterUserRoutes sets up team member management. Reads are scoped by role in the service.
func RegisterUserRoutes(authed *echo.Group, uc *controllers.UserController) {
	users := authed.Group("/users")
	admin := middleware.RequireAdmin()

	users.GET("", uc.GetAllUsers)
	users.GET("/:id", uc.GetUser)
	users.PATCH("/:id", uc.UpdateUser)

	users.POST("", uc.CreateUser, admin)
	users.DELETE("/:id", uc.DeleteUser, admin)
	users.PATCH("/:id/team-fee-status", uc.SetTeamFeeStatus, admin)
}
