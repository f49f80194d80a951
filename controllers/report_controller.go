package controllers

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/services"
)

type ReportController struct {
	reports *services.ReportService
	timeout time.Duration
}

func NewReportController(reports *services.ReportService, timeout time.Duration) *ReportController {
	return &ReportController{reports: reports, timeout: timeout}
}

// period reads ?granularity=, ?from= and ?to=.
func period(c echo.Context) (string, *time.Time, *time.Time, error) {
	from, err := queryTime(c, "from")
	if err != nil {
		return "", nil, nil, err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return "", nil, nil, err
	}
	return c.QueryParam("granularity"), from, to, nil
}

// Earnings returns plan revenue per period as [{period, earnings}].
func (rc *ReportController) Earnings(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	granularity, from, to, err := period(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, rc.timeout)
	defer cancel()

	points, err := rc.reports.Earnings(ctx, v, granularity, from, to)
	if err != nil {
		return err
	}
	return ok(c, "Earnings retrieved successfully", points)
}

func (rc *ReportController) Commissions(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	granularity, from, to, err := period(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, rc.timeout)
	defer cancel()

	points, err := rc.reports.Commissions(ctx, v, granularity, from, to)
	if err != nil {
		return err
	}
	return ok(c, "Commission report retrieved successfully", points)
}

func (rc *ReportController) Summary(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, rc.timeout)
	defer cancel()

	sum, err := rc.reports.Summary(ctx, v)
	if err != nil {
		return err
	}
	return ok(c, "Summary retrieved successfully", sum)
}
