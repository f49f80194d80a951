package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
	"github.com/HSouheill/teamboard_backend/middleware"
	"github.com/HSouheill/teamboard_backend/models"
)

// RegisterCompanyRoutes sets up companies and the commission streams derived from them
func RegisterCompanyRoutes(authed *echo.Group, cc *controllers.CompanyController, comm *controllers.CommissionController) {
	companies := authed.Group("/companies")
	admin := middleware.RequireAdmin()
	writers := middleware.RequireRole(models.RoleAdmin, models.RoleManager)

	companies.GET("", cc.ListCompanies)
	companies.GET("/:id", cc.GetCompany)
	companies.POST("", cc.CreateCompany, writers)
	companies.PUT("/:id", cc.ReplaceCompany, writers)
	companies.DELETE("/:id", cc.DeleteCompany, admin)
	companies.PATCH("/:id/commission-status", cc.SetCommissionStatus, admin)

	authed.GET("/commissions", comm.ListCommissions)
	authed.GET("/commissions/team-fees", comm.ListTeamFees)
}
