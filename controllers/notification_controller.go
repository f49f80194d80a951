package controllers

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/services"
	"github.com/HSouheill/teamboard_backend/websocket"
)

type NotificationController struct {
	notifications *services.NotificationService
	hub           *websocket.Hub
	timeout       time.Duration
}

func NewNotificationController(notifications *services.NotificationService, hub *websocket.Hub, timeout time.Duration) *NotificationController {
	return &NotificationController{notifications: notifications, hub: hub, timeout: timeout}
}

// GetNotifications lists the caller's notifications, newest first.
func (nc *NotificationController) GetNotifications(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, nc.timeout)
	defer cancel()

	page, err := nc.notifications.List(ctx, v, pageFrom(c))
	if err != nil {
		return err
	}
	return ok(c, "Notifications retrieved successfully", page)
}

func (nc *NotificationController) MarkRead(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, nc.timeout)
	defer cancel()

	if err := nc.notifications.MarkRead(ctx, v, id); err != nil {
		return err
	}
	return ok(c, "Notification marked as read", nil)
}

// WebSocket upgrades the connection and registers it with the hub.
func (nc *NotificationController) WebSocket(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	return websocket.HandleWebSocket(c, nc.hub, v.ID)
}
