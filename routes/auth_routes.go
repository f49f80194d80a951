package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
)

// RegisterAuthRoutes sets up login, signup and session routes
func RegisterAuthRoutes(public, authed *echo.Group, ac *controllers.AuthController) {
	public.POST("/auth/signup", ac.Signup)
	public.POST("/auth/login", ac.Login)

	authed.POST("/auth/logout", ac.Logout)
	authed.GET("/auth/me", ac.Me)
}
