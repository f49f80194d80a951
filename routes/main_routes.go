package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/controllers"
	"github.com/HSouheill/teamboard_backend/models"
)

// Handlers bundles the controllers the router dispatches to.
type Handlers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Companies     *controllers.CompanyController
	Commissions   *controllers.CommissionController
	Reports       *controllers.ReportController
	Tasks         *controllers.TaskController
	Referrals     *controllers.ReferralController
	Payments      *controllers.PaymentController
	Notifications *controllers.NotificationController
	Admin         *controllers.AdminController
}

// Guards are the middlewares routes are protected with.
type Guards struct {
	JWT           echo.MiddlewareFunc
	WebhookSecret echo.MiddlewareFunc
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, h Handlers, g Guards) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "healthy"})
	})

	api := e.Group("/api")
	authed := api.Group("", g.JWT)

	RegisterAuthRoutes(api, authed, h.Auth)
	RegisterUserRoutes(authed, h.Users)
	RegisterCompanyRoutes(authed, h.Companies, h.Commissions)
	RegisterReportRoutes(authed, h.Reports)
	RegisterTaskRoutes(authed, h.Tasks)
	RegisterReferralRoutes(e, authed, h.Referrals)
	RegisterPaymentRoutes(api, authed, h.Payments, g.WebhookSecret)
	RegisterNotificationRoutes(authed, h.Notifications)
	RegisterAdminRoutes(authed, h.Admin, h.Payments)
}
