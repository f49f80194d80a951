package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/pricing"
	"github.com/HSouheill/teamboard_backend/repositories"
)

// PaymentGateway is implemented by WhishService.
type PaymentGateway interface {
	PostPayment(ctx context.Context, req models.WhishRequest) (string, error)
	GetPaymentStatus(ctx context.Context, currency string, externalID int64) (models.WhishCollectStatus, error)
}

// CompanyNotifier is told about companies created from a payment.
type CompanyNotifier interface {
	CompanyCreated(ctx context.Context, c models.Company)
}

// PaymentOptions configures checkout URLs and currency.
type PaymentOptions struct {
	Currency      string
	PublicBaseURL string // base of the callback URLs Whish calls
	RedirectURL   string // where the payer lands afterwards
}

// PaymentService turns successful payments into company stubs.
type PaymentService struct {
	companies     CompanyStore
	payments      PaymentStore
	gateway       PaymentGateway
	notifier      CompanyNotifier
	fallbackAdmin primitive.ObjectID
	opts          PaymentOptions
	now           func() time.Time
	nextID        func() int64
}

func NewPaymentService(companies CompanyStore, payments PaymentStore, gateway PaymentGateway, notifier CompanyNotifier, fallbackAdmin primitive.ObjectID, opts PaymentOptions) *PaymentService {
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &PaymentService{
		companies:     companies,
		payments:      payments,
		gateway:       gateway,
		notifier:      notifier,
		fallbackAdmin: fallbackAdmin,
		opts:          opts,
		now:           func() time.Time { return time.Now().UTC() },
		nextID:        externalID,
	}
}

// externalID is the millisecond clock with three random digits appended.
func externalID() int64 {
	id := time.Now().UnixMilli() * 1000
	suffix, err := gonanoid.Generate("0123456789", 3)
	if err != nil {
		return id
	}
	n, _ := strconv.ParseInt(suffix, 10, 64)
	return id + n
}

// HandleWebhook creates a company stub for a successful payment. A transaction id that
// already produced a company returns that company with created false.
func (s *PaymentService) HandleWebhook(ctx context.Context, ev models.PaymentWebhookEvent) (*models.Company, bool, error) {
	if existing, err := s.companies.FindByTransactionID(ctx, ev.TransactionID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, storeErr("Company", err)
	}

	plan, price, ok := pricing.PlanForAmount(ev.AmountPaid)
	if !ok {
		log.Warn().Str("transaction_id", ev.TransactionID).Int64("amount_paid", ev.AmountPaid).
			Msg("payment amount matches no plan")
		return nil, false, apperror.Unprocessable(fmt.Sprintf("Amount %d matches no plan", ev.AmountPaid))
	}
	return s.createStub(ctx, ev.TransactionID, plan, price)
}

// createStub stores a company stub for an already identified plan and price.
// A transaction id that already produced a company returns that company.
func (s *PaymentService) createStub(ctx context.Context, transactionID, plan string, price float64) (*models.Company, bool, error) {
	now := s.now()
	c := &models.Company{
		Plan:                plan,
		PlanPrice:           price,
		ManagerID:           s.fallbackAdmin,
		MarkenbotschafterID: s.fallbackAdmin,
		CreatedAt:           now,
		ExpirationDate:      now.AddDate(1, 0, 0),
		TransactionID:       transactionID,
		Source:              models.CompanySourceWebhook,
		UpdatedAt:           now,
	}
	if err := s.companies.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// a concurrent delivery of the same transaction won
			existing, ferr := s.companies.FindByTransactionID(ctx, transactionID)
			if ferr != nil {
				return nil, false, storeErr("Company", ferr)
			}
			return existing, false, nil
		}
		return nil, false, storeErr("Company", err)
	}

	log.Info().Str("company_id", c.ID.Hex()).Str("plan", plan).Float64("price", price).
		Str("transaction_id", transactionID).Msg("company stub created from payment")
	if s.notifier != nil {
		s.notifier.CompanyCreated(ctx, *c)
	}
	return c, true, nil
}

func (s *PaymentService) callbackURL(kind string, externalID int64) string {
	q := url.Values{"externalId": {strconv.FormatInt(externalID, 10)}}
	return s.opts.PublicBaseURL + "/api/whish/payment/callback/" + kind + "?" + q.Encode()
}

// Checkout opens a Whish payment for a plan and returns the collect URL.
func (s *PaymentService) Checkout(ctx context.Context, viewer models.Viewer, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if s.gateway == nil {
		return nil, apperror.Upstream("Payments are not available", errors.New("no payment gateway configured"))
	}
	amount, err := priceFor(req.Plan, req.Amount)
	if err != nil {
		return nil, err
	}

	intent := &models.PaymentIntent{
		ExternalID: s.nextID(),
		Plan:       req.Plan,
		Amount:     amount,
		Currency:   s.opts.Currency,
		Status:     models.PaymentPending,
		CreatedAt:  s.now(),
	}
	if err := s.payments.Create(ctx, intent); err != nil {
		return nil, storeErr("Payment", err)
	}

	ext := intent.ExternalID
	collectURL, err := s.gateway.PostPayment(ctx, models.WhishRequest{
		Amount:             &amount,
		Currency:           s.opts.Currency,
		Invoice:            fmt.Sprintf("Teamboard %s plan", req.Plan),
		ExternalID:         &ext,
		SuccessCallbackURL: s.callbackURL("success", ext),
		FailureCallbackURL: s.callbackURL("failure", ext),
		SuccessRedirectURL: s.opts.RedirectURL,
		FailureRedirectURL: s.opts.RedirectURL,
	})
	if err != nil {
		if _, serr := s.payments.Settle(ctx, ext, models.PaymentFailed, nil, ""); serr != nil {
			log.Error().Err(serr).Int64("external_id", ext).Msg("failed to mark payment failed")
		}
		return nil, apperror.Upstream("Failed to start payment", err)
	}

	log.Info().Int64("external_id", ext).Str("plan", req.Plan).Str("user_id", viewer.ID.Hex()).Msg("checkout started")
	return &models.CheckoutResponse{ExternalID: ext, CollectURL: collectURL, Amount: amount, Plan: req.Plan}, nil
}

// WhishSuccess verifies a success callback with Whish and creates the company stub.
// Repeated callbacks return the same company.
func (s *PaymentService) WhishSuccess(ctx context.Context, externalID int64) (*models.Company, error) {
	intent, err := s.payments.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, storeErr("Payment", err)
	}
	if s.gateway == nil {
		return nil, apperror.Upstream("Payments are not available", errors.New("no payment gateway configured"))
	}
	status, err := s.gateway.GetPaymentStatus(ctx, intent.Currency, externalID)
	if err != nil {
		return nil, apperror.Upstream("Failed to verify payment", err)
	}
	if status.Status != models.WhishStatusSuccess {
		log.Warn().Int64("external_id", externalID).Str("collect_status", status.Status).Msg("success callback for unpaid collect")
		return nil, apperror.Unprocessable("Payment not completed: " + status.Status)
	}

	// the intent already carries the plan and price chosen at checkout
	txID := "whish-" + strconv.FormatInt(externalID, 10)
	company, err := s.companies.FindByTransactionID(ctx, txID)
	if errors.Is(err, repositories.ErrNotFound) {
		company, _, err = s.createStub(ctx, txID, intent.Plan, intent.Amount)
	} else if err != nil {
		err = storeErr("Company", err)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.payments.Settle(ctx, externalID, models.PaymentSuccess, &company.ID, status.PayerPhone); err != nil {
		log.Error().Err(err).Int64("external_id", externalID).Msg("failed to settle payment")
	}
	return company, nil
}

// WhishFailure marks a pending intent failed.
func (s *PaymentService) WhishFailure(ctx context.Context, externalID int64) error {
	if _, err := s.payments.FindByExternalID(ctx, externalID); err != nil {
		return storeErr("Payment", err)
	}
	if _, err := s.payments.Settle(ctx, externalID, models.PaymentFailed, nil, ""); err != nil {
		return storeErr("Payment", err)
	}
	log.Info().Int64("external_id", externalID).Msg("payment failed")
	return nil
}

// Balance returns the merchant account balance.
func (s *PaymentService) Balance(ctx context.Context) (float64, error) {
	b, ok := s.gateway.(interface {
		GetBalance(ctx context.Context) (float64, error)
	})
	if !ok {
		return 0, apperror.Upstream("Payments are not available", errors.New("gateway has no balance"))
	}
	v, err := b.GetBalance(ctx)
	if err != nil {
		return 0, apperror.Upstream("Failed to fetch balance", err)
	}
	return v, nil
}
