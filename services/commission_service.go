package services

import (
	"context"
	"time"

	"github.com/HSouheill/teamboard_backend/commission"
	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/visibility"
)

// CommissionService loads ledger data and hands it to the commission engine.
type CommissionService struct {
	companies CompanyStore
	users     UserStore
	now       func() time.Time
}

func NewCommissionService(companies CompanyStore, users UserStore) *CommissionService {
	return &CommissionService{
		companies: companies,
		users:     users,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// visibleCompanies loads the companies in the viewer's scope. The engine filter only
// keeps lines whose payee is the viewer, and those companies are always in scope.
func (s *CommissionService) visibleCompanies(ctx context.Context, viewer models.Viewer) ([]models.Company, error) {
	scope := visibility.Companies(viewer)
	if scope.Empty() {
		return []models.Company{}, nil
	}
	companies, err := s.companies.All(ctx, scope)
	if err != nil {
		return nil, storeErr("Companies", err)
	}
	return companies, nil
}

// List returns the commission lines visible to viewer, optionally limited to
// companies started between from and the end of the UTC day of to.
func (s *CommissionService) List(ctx context.Context, viewer models.Viewer, from, to *time.Time) (models.CommissionList, error) {
	companies, err := s.visibleCompanies(ctx, viewer)
	if err != nil {
		return models.CommissionList{}, err
	}
	users, err := s.users.All(ctx)
	if err != nil {
		return models.CommissionList{}, storeErr("Users", err)
	}
	return commission.Build(inRange(companies, from, to), users, viewer), nil
}

// TeamFees returns the team fee lines viewer may see for period (YYYY-MM).
// An empty period means the current month.
func (s *CommissionService) TeamFees(ctx context.Context, viewer models.Viewer, period string) (models.TeamFeeList, error) {
	if period == "" {
		period = commission.Period(s.now())
	}
	users, err := s.users.All(ctx)
	if err != nil {
		return models.TeamFeeList{}, storeErr("Users", err)
	}
	return commission.TeamFees(users, viewer, period), nil
}

func inRange(companies []models.Company, from, to *time.Time) []models.Company {
	if from == nil && to == nil {
		return companies
	}
	var end time.Time
	if to != nil {
		end = models.StartOfDay(*to).AddDate(0, 0, 1)
	}
	out := make([]models.Company, 0, len(companies))
	for _, c := range companies {
		if from != nil && c.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !c.CreatedAt.Before(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}
