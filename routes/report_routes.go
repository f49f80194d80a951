package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
)

func RegisterReportRoutes(authed *echo.Group, rc *controllers.ReportController) {
	reports := authed.Group("/reports")
	reports.GET("/earnings", rc.Earnings)
	reports.GET("/commissions", rc.Commissions)
	reports.GET("/summary", rc.Summary)
}
