// Package commission derives commission line items and team fees from companies and users.
// Nothing here touches storage; callers load the records and pass them in.
package commission

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/teamboard_backend/models"
)

const (
	// FlatFee is paid per role per company, independent of plan and price.
	FlatFee = 1000.0
	// TeamFee accrues per managed markenbotschafter per month.
	TeamFee = 300.0
	// PayoutDay is the day of the month after signing on which a commission falls due.
	PayoutDay = 25
	// UnknownPayee labels a line whose payee no longer resolves.
	UnknownPayee = "Unbekannt"
)

// DueDate returns the 25th of the month after start, at midnight UTC.
func DueDate(start time.Time) time.Time {
	s := start.UTC()
	// month 13 normalizes to January of the next year
	return time.Date(s.Year(), s.Month()+1, PayoutDay, 0, 0, 0, 0, time.UTC)
}

func indexUsers(users []models.User) map[primitive.ObjectID]models.User {
	idx := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}

func lineFor(c models.Company, payeeID primitive.ObjectID, role string, idx map[primitive.ObjectID]models.User) models.CommissionLineItem {
	item := models.CommissionLineItem{
		CompanyID:   c.ID,
		CompanyName: c.Name,
		PayeeID:     payeeID,
		PayeeName:   UnknownPayee,
		Role:        role,
		StartDate:   c.CreatedAt,
		DueDate:     DueDate(c.CreatedAt),
		Paid:        c.StatusProvisionen,
	}
	payee, ok := idx[payeeID]
	if !ok {
		return item
	}
	item.PayeeName = payee.FullName()
	if payee.Role != models.RoleAdmin {
		item.Amount = FlatFee
	}
	return item
}

// Compute returns two line items per company, manager first, in input order.
// Payees that are admins or that do not resolve earn zero.
func Compute(companies []models.Company, users []models.User) []models.CommissionLineItem {
	idx := indexUsers(users)
	items := make([]models.CommissionLineItem, 0, len(companies)*2)
	for _, c := range companies {
		items = append(items,
			lineFor(c, c.ManagerID, models.RoleManager, idx),
			lineFor(c, c.MarkenbotschafterID, models.RoleMarkenbotschafter, idx),
		)
	}
	return items
}

// FilterForViewer narrows items to what viewer may see. Amounts are never changed.
func FilterForViewer(items []models.CommissionLineItem, viewer models.Viewer) []models.CommissionLineItem {
	if viewer.IsAdmin() {
		out := make([]models.CommissionLineItem, len(items))
		copy(out, items)
		return out
	}
	out := []models.CommissionLineItem{}
	switch viewer.Role {
	case models.RoleManager, models.RoleMarkenbotschafter:
		for _, it := range items {
			if it.Role == viewer.Role && it.PayeeID == viewer.ID {
				out = append(out, it)
			}
		}
	}
	return out
}

// Total sums the amounts of items.
func Total(items []models.CommissionLineItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Amount))
	}
	return sum.InexactFloat64()
}

// Summarize splits the total of items into paid and open.
func Summarize(items []models.CommissionLineItem) models.CommissionSummary {
	total, paid := decimal.Zero, decimal.Zero
	for _, it := range items {
		a := decimal.NewFromFloat(it.Amount)
		total = total.Add(a)
		if it.Paid {
			paid = paid.Add(a)
		}
	}
	return models.CommissionSummary{
		Total: total.InexactFloat64(),
		Paid:  paid.InexactFloat64(),
		Open:  total.Sub(paid).InexactFloat64(),
		Count: len(items),
	}
}

// Build computes, filters and totals in one call. It is what every caller should use.
func Build(companies []models.Company, users []models.User, viewer models.Viewer) models.CommissionList {
	items := FilterForViewer(Compute(companies, users), viewer)
	sum := Summarize(items)
	return models.CommissionList{Items: items, CommissionTotal: sum.Total, Summary: sum}
}

// Period formats the month of t as a team fee period label.
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// TeamFees returns the team fee lines viewer may see for period. Only active
// markenbotschafter attached to a manager accrue a fee.
func TeamFees(users []models.User, viewer models.Viewer, period string) models.TeamFeeList {
	idx := indexUsers(users)
	list := models.TeamFeeList{Items: []models.TeamFeeLine{}, Period: period}
	total := decimal.Zero
	for _, u := range users {
		if u.Role != models.RoleMarkenbotschafter || u.ManagerID == nil || !u.IsActive {
			continue
		}
		if !canSeeTeamFee(viewer, u) {
			continue
		}
		line := models.TeamFeeLine{
			AmbassadorID:   u.ID,
			AmbassadorName: u.FullName(),
			ManagerID:      *u.ManagerID,
			ManagerName:    UnknownPayee,
			Amount:         TeamFee,
			Period:         period,
			Paid:           u.StatusProvisionenMarkenbotschafter,
		}
		if m, ok := idx[*u.ManagerID]; ok {
			line.ManagerName = m.FullName()
		}
		list.Items = append(list.Items, line)
		total = total.Add(decimal.NewFromFloat(line.Amount))
	}
	list.TeamFeeTotal = total.InexactFloat64()
	return list
}

func canSeeTeamFee(viewer models.Viewer, ambassador models.User) bool {
	switch viewer.Role {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return *ambassador.ManagerID == viewer.ID
	case models.RoleMarkenbotschafter:
		return ambassador.ID == viewer.ID
	}
	return false
}
