package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionLineItem is one derived commission for one role on one company.
// It is computed on read and never stored.
type CommissionLineItem struct {
	CompanyID   primitive.ObjectID `json:"companyId"`
	CompanyName string             `json:"companyName"`
	PayeeID     primitive.ObjectID `json:"payeeId"`
	PayeeName   string             `json:"payeeName"`
	Role        string             `json:"role"`
	Amount      float64            `json:"amount"`
	StartDate   time.Time          `json:"startDate"`
	DueDate     time.Time          `json:"dueDate"`
	Paid        bool               `json:"paid"`
}

// CommissionSummary aggregates a set of line items.
type CommissionSummary struct {
	Total float64 `json:"total"`
	Paid  float64 `json:"paid"`
	Open  float64 `json:"open"`
	Count int     `json:"count"`
}

// CommissionList is the commission endpoint payload.
type CommissionList struct {
	Items           []CommissionLineItem `json:"items"`
	CommissionTotal float64              `json:"commissionTotal"`
	Summary         CommissionSummary    `json:"summary"`
}

// TeamFeeLine is the recurring fixed fee one markenbotschafter accrues for a period.
// It is a separate stream from per-company commissions.
type TeamFeeLine struct {
	AmbassadorID   primitive.ObjectID `json:"ambassadorId"`
	AmbassadorName string             `json:"ambassadorName"`
	ManagerID      primitive.ObjectID `json:"managerId"`
	ManagerName    string             `json:"managerName"`
	Amount         float64            `json:"amount"`
	Period         string             `json:"period"`
	Paid           bool               `json:"paid"`
}

// TeamFeeList is the team fee endpoint payload.
type TeamFeeList struct {
	Items        []TeamFeeLine `json:"items"`
	TeamFeeTotal float64       `json:"teamFeeTotal"`
	Period       string        `json:"period"`
}
