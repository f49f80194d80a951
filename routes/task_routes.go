package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
	"github.com/HSouheill/teamboard_backend/middleware"
)

// RegisterTaskRoutes sets up task management. Bulk routes are registered before /:id.
func RegisterTaskRoutes(authed *echo.Group, tc *controllers.TaskController) {
	tasks := authed.Group("/tasks")
	admin := middleware.RequireAdmin()

	tasks.GET("", tc.ListTasks)
	tasks.POST("", tc.CreateTasks, admin)
	tasks.PATCH("/bulk", tc.BulkUpdate, admin)
	tasks.POST("/bulk-delete", tc.BulkDelete, admin)

	tasks.GET("/:id", tc.GetTask)
	tasks.PATCH("/:id", tc.UpdateTask)
	tasks.PATCH("/:id/status", tc.UpdateStatus)
	tasks.GET("/:id/assignee", tc.Assignee)
	tasks.DELETE("/:id", tc.DeleteTask, admin)
}
