package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment intent states
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// PaymentWebhookEvent is the "payment succeeded" event sent by the payment provider.
// AmountPaid is in the smallest currency unit.
type PaymentWebhookEvent struct {
	TransactionID string `json:"transactionId" validate:"required,max=200"`
	AmountPaid    int64  `json:"amountPaid" validate:"required,gt=0"`
}

// PaymentIntent tracks a Whish checkout until its callback arrives.
type PaymentIntent struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ExternalID  int64               `json:"externalId" bson:"externalId"`
	Plan        string              `json:"plan" bson:"plan"`
	Amount      float64             `json:"amount" bson:"amount"`
	Currency    string              `json:"currency" bson:"currency"`
	Status      string              `json:"status" bson:"status"`
	CollectURL  string              `json:"collectUrl,omitempty" bson:"collectUrl,omitempty"`
	CompanyID   *primitive.ObjectID `json:"companyId,omitempty" bson:"companyId,omitempty"`
	PayerPhone  string              `json:"payerPhone,omitempty" bson:"payerPhone,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	ProcessedAt *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

// CheckoutRequest starts a Whish payment for a plan. Amount is only read for BUSINESS.
type CheckoutRequest struct {
	Plan   string   `json:"plan" validate:"required,plan"`
	Amount *float64 `json:"amount,omitempty"`
}

// CheckoutResponse carries the Whish collect URL the client is redirected to.
type CheckoutResponse struct {
	ExternalID int64   `json:"externalId"`
	CollectURL string  `json:"collectUrl"`
	Amount     float64 `json:"amount"`
	Plan       string  `json:"plan"`
}
