package controllers

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/services"
)

// CommissionController serves the derived commission and team fee streams.
// Both are computed on read and scoped to the caller.
type CommissionController struct {
	commissions *services.CommissionService
	timeout     time.Duration
}

func NewCommissionController(commissions *services.CommissionService, timeout time.Duration) *CommissionController {
	return &CommissionController{commissions: commissions, timeout: timeout}
}

// ListCommissions accepts ?from= and ?to= on the commission start date.
func (cc *CommissionController) ListCommissions(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	list, err := cc.commissions.List(ctx, v, from, to)
	if err != nil {
		return err
	}
	return ok(c, "Commissions retrieved successfully", list)
}

// ListTeamFees accepts ?period=YYYY-MM, defaulting to the current month.
func (cc *CommissionController) ListTeamFees(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	period := c.QueryParam("period")
	if period != "" {
		if _, err := time.Parse("2006-01", period); err != nil {
			return apperror.Validation("Invalid period", apperror.FieldError{Field: "period", Reason: "datetime", Param: "2006-01"})
		}
	}
	ctx, cancel := reqCtx(c, cc.timeout)
	defer cancel()

	list, err := cc.commissions.TeamFees(ctx, v, period)
	if err != nil {
		return err
	}
	return ok(c, "Team fees retrieved successfully", list)
}
