package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/services"
)

type ReferralController struct {
	referrals *services.ReferralService
	timeout   time.Duration
}

func NewReferralController(referrals *services.ReferralService, timeout time.Duration) *ReferralController {
	return &ReferralController{referrals: referrals, timeout: timeout}
}

// Redirect records a click on /r/:code and sends the visitor to the landing page.
// Unknown codes redirect as well.
func (rc *ReferralController) Redirect(c echo.Context) error {
	ctx, cancel := reqCtx(c, rc.timeout)
	defer cancel()

	target := rc.referrals.Track(ctx, c.Param("code"), models.ClickMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Referer:   c.Request().Referer(),
	})
	return c.Redirect(http.StatusFound, target)
}

func (rc *ReferralController) Me(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, rc.timeout)
	defer cancel()

	info, err := rc.referrals.Me(ctx, v)
	if err != nil {
		return err
	}
	return ok(c, "Referral info retrieved successfully", info)
}

// QRCode returns the caller's referral link as a PNG image.
func (rc *ReferralController) QRCode(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, rc.timeout)
	defer cancel()

	img, err := rc.referrals.QRCode(ctx, v)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Blob(http.StatusOK, "image/png", img)
}

func (rc *ReferralController) Leaderboard(c echo.Context) error {
	ctx, cancel := reqCtx(c, rc.timeout)
	defer cancel()

	entries, err := rc.referrals.Leaderboard(ctx, queryInt(c, "limit"))
	if err != nil {
		return err
	}
	return ok(c, "Leaderboard retrieved successfully", entries)
}
