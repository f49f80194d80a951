// Package pricing derives the yearly price of a subscription plan.
package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/teamboard_backend/models"
)

var (
	ErrUnknownPlan         = errors.New("unknown plan")
	ErrManualPriceRequired = errors.New("BUSINESS plan requires a positive manual price")
)

var (
	monthlyBasic = decimal.RequireFromString("56.00")
	monthlyPro   = decimal.RequireFromString("63.00")
	taxRate      = decimal.RequireFromString("0.19")
	months       = decimal.NewFromInt(12)

	// tolerance around a plan price when inferring the plan from a paid amount
	matchTolerance = decimal.NewFromInt(1)
	basicAnchor    = decimal.NewFromInt(799)
	proAnchor      = decimal.NewFromInt(899)
	businessFloor  = decimal.NewFromInt(900)
)

func yearly(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(months).Mul(decimal.NewFromInt(1).Add(taxRate)).Round(2)
}

// Basic is the yearly gross BASIC price.
func Basic() float64 { return yearly(monthlyBasic).InexactFloat64() }

// Pro is the yearly gross PRO price.
func Pro() float64 { return yearly(monthlyPro).InexactFloat64() }

// Price returns the yearly price of plan. manual is only read for BUSINESS.
func Price(plan string, manual *float64) (float64, error) {
	switch plan {
	case models.PlanBasic:
		return Basic(), nil
	case models.PlanPro:
		return Pro(), nil
	case models.PlanBusiness:
		if manual == nil || *manual <= 0 {
			return 0, ErrManualPriceRequired
		}
		return *manual, nil
	}
	return 0, ErrUnknownPlan
}

// ParsePlan normalizes a plan name, ignoring case and surrounding space.
func ParsePlan(s string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(s))
	if !models.IsValidPlan(p) {
		return "", ErrUnknownPlan
	}
	return p, nil
}

// PlanForAmount infers the plan from an amount paid in the smallest currency unit.
// It returns the plan, the price to store and whether any plan matched.
func PlanForAmount(amount int64) (string, float64, bool) {
	paid := decimal.New(amount, -2)
	switch {
	case paid.Sub(basicAnchor).Abs().LessThanOrEqual(matchTolerance):
		return models.PlanBasic, Basic(), true
	case paid.Sub(proAnchor).Abs().LessThanOrEqual(matchTolerance):
		return models.PlanPro, Pro(), true
	case paid.GreaterThan(businessFloor):
		return models.PlanBusiness, paid.InexactFloat64(), true
	}
	return "", 0, false
}

// ToSmallestUnit converts a price to cents, rounding half away from zero.
func ToSmallestUnit(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}
