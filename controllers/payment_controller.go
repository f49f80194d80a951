package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/services"
)

// PaymentController serves the provider webhook and the Whish checkout flow.
type PaymentController struct {
	payments *services.PaymentService
	timeout  time.Duration
}

func NewPaymentController(payments *services.PaymentService, timeout time.Duration) *PaymentController {
	return &PaymentController{payments: payments, timeout: timeout}
}

// Webhook creates a company stub for a successful payment. A replayed transaction
// returns the existing company with 200.
func (pc *PaymentController) Webhook(c echo.Context) error {
	var ev models.PaymentWebhookEvent
	if err := bindStrict(c, &ev); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, pc.timeout)
	defer cancel()

	company, created, err := pc.payments.HandleWebhook(ctx, ev)
	if err != nil {
		return err
	}
	if created {
		return respond(c, http.StatusCreated, "Company created from payment", company)
	}
	return ok(c, "Payment already processed", company)
}

// Checkout starts a Whish payment and returns the collect URL.
func (pc *PaymentController) Checkout(c echo.Context) error {
	v, err := viewer(c)
	if err != nil {
		return err
	}
	var req models.CheckoutRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, pc.timeout)
	defer cancel()

	res, err := pc.payments.Checkout(ctx, v, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Payment started", res)
}

func externalID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.QueryParam("externalId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("Invalid externalId", apperror.FieldError{Field: "externalId", Reason: "numeric"})
	}
	return id, nil
}

// WhishSuccess is called by Whish after a successful collect. The payer itself is sent
// to the redirect URL given at checkout.
func (pc *PaymentController) WhishSuccess(c echo.Context) error {
	ext, err := externalID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, pc.timeout)
	defer cancel()

	company, err := pc.payments.WhishSuccess(ctx, ext)
	if err != nil {
		return err
	}
	return ok(c, "Payment confirmed", company)
}

func (pc *PaymentController) WhishFailure(c echo.Context) error {
	ext, err := externalID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c, pc.timeout)
	defer cancel()

	if err := pc.payments.WhishFailure(ctx, ext); err != nil {
		return err
	}
	return ok(c, "Payment marked failed", nil)
}

// Balance returns the Whish merchant balance. Admin only.
func (pc *PaymentController) Balance(c echo.Context) error {
	ctx, cancel := reqCtx(c, pc.timeout)
	defer cancel()

	balance, err := pc.payments.Balance(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("whish balance unavailable")
		return err
	}
	return ok(c, "Balance retrieved successfully", map[string]float64{"balance": balance})
}
