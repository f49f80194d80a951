// controllers/company_controller.go
package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/services"
)

type CompanyController struct {
	companies *services.CompanyService
	timeout   time.Duration
}

func NewCompanyController(companies *services.CompanyService, timeout time.Duration) *CompanyController {
	return &CompanyController{companies: companies, timeout: timeout}
}

func (cc *CompanyController) CreateCompany(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	var in models.CompanyInput
	if err := bindStrict(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	company, err := cc.companies.Create(ctx, v, in)
	if err != nil {
		return err
	}
	log.Info().Str("company_id", company.ID.Hex()).Str("plan", company.Plan).Str("by", v.ID.Hex()).Msg("company created")
	return respond(c, http.StatusCreated, "Company created successfully", company)
}

// ListCompanies supports ?search=, ?plan=, ?page= and ?limit=.
func (cc *CompanyController) ListCompanies(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	q := models.CompanyQuery{Search: c.QueryParam("search"), Plan: c.QueryParam("plan"), PageRequest: pageFrom(c)}
	if q.Plan != "" && !models.IsValidPlan(q.Plan) {
		return apperror.Validation("Invalid plan", apperror.FieldError{Field: "plan", Reason: "plan"})
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	page, err := cc.companies.List(ctx, v, q)
	if err != nil {
		return err
	}
	return ok(c, "Companies retrieved successfully", page)
}

func (cc *CompanyController) GetCompany(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	company, err := cc.companies.Get(ctx, v, id)
	if err != nil {
		return err
	}
	return ok(c, "Company retrieved successfully", company)
}

// ReplaceCompany overwrites the mutable fields of a company.
func (cc *CompanyController) ReplaceCompany(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in models.CompanyInput
	if err := bindStrict(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	company, err := cc.companies.Replace(ctx, v, id, in)
	if err != nil {
		return err
	}
	return ok(c, "Company updated successfully", company)
}

func (cc *CompanyController) DeleteCompany(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	if err := cc.companies.Delete(ctx, id); err != nil {
		return err
	}
	return ok(c, "Company deleted successfully", nil)
}

// SetCommissionStatus toggles statusProvisionen. Admin only.
func (cc *CompanyController) SetCommissionStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req models.CommissionStatusRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	company, err := cc.companies.SetCommissionPaid(ctx, id, *req.Paid)
	if err != nil {
		return err
	}
	return ok(c, "Commission status updated", company)
}
