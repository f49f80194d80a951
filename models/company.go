// models/company.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan tiers a client company can subscribe to.
const (
	PlanBasic    = "BASIC"
	PlanPro      = "PRO"
	PlanBusiness = "BUSINESS"
)

// Where a company record came from.
const (
	CompanySourceForm    = "form"
	CompanySourceWebhook = "webhook"
)

// IsValidPlan reports whether plan is a known tier.
func IsValidPlan(plan string) bool {
	switch plan {
	case PlanBasic, PlanPro, PlanBusiness:
		return true
	}
	return false
}

// Company is a client of the organization. ManagerID and MarkenbotschafterID are always set;
// an omitted reference is resolved to the fallback admin before the record is stored.
type Company struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name                string             `json:"name" bson:"name"`
	Address             string             `json:"address" bson:"address"`
	OwnerName           string             `json:"ownerName" bson:"ownerName"`
	Email               string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone               string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Plan                string             `json:"plan" bson:"plan"`
	PlanPrice           float64            `json:"planPrice" bson:"planPrice"`
	ManagerID           primitive.ObjectID `json:"managerId" bson:"managerId"`
	MarkenbotschafterID primitive.ObjectID `json:"markenbotschafterId" bson:"markenbotschafterId"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	ExpirationDate      time.Time          `json:"expirationDate" bson:"expirationDate"`
	StatusProvisionen   bool               `json:"statusProvisionen" bson:"statusProvisionen"` // commission paid
	TransactionID       string             `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	Source              string             `json:"source" bson:"source"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CompanyInput is the payload for creating a company and for replacing its mutable fields.
// PlanPrice is only read for BUSINESS plans.
type CompanyInput struct {
	Name                string     `json:"name" validate:"required,max=200"`
	Address             string     `json:"address" validate:"max=300"`
	OwnerName           string     `json:"ownerName" validate:"max=200"`
	Email               string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone               string     `json:"phone,omitempty" validate:"max=40"`
	Plan                string     `json:"plan" validate:"required,plan"`
	PlanPrice           *float64   `json:"planPrice,omitempty"`
	ManagerID           *string    `json:"managerId,omitempty" validate:"omitempty,objectid"`
	MarkenbotschafterID *string    `json:"markenbotschafterId,omitempty" validate:"omitempty,objectid"`
	CreatedAt           *time.Time `json:"createdAt,omitempty"`
	ExpirationDate      *time.Time `json:"expirationDate,omitempty"`
}

// CompanyQuery narrows a company listing.
type CompanyQuery struct {
	Search string
	Plan   string
	PageRequest
}
