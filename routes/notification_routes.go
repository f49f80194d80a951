package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
)

func RegisterNotificationRoutes(authed *echo.Group, nc *controllers.NotificationController) {
	authed.GET("/notifications", nc.GetNotifications)
	authed.PATCH("/notifications/:id/read", nc.MarkRead)
	authed.GET("/ws", nc.WebSocket)
}
