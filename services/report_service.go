package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/teamboard_backend/apperror"
	"github.com/HSouheill/teamboard_backend/commission"
	"github.com/HSouheill/teamboard_backend/models"
)

const (
	monthLabel = "Jan '06"
	yearLabel  = "2006"
	maxBuckets = 240
)

// ReportService builds the time-bucketed dashboard views. Revenue and commission
// are always reported separately.
type ReportService struct {
	commissions *CommissionService
	companies   CompanyStore
	tasks       TaskStore
	users       UserStore
	now         func() time.Time
}

func NewReportService(commissions *CommissionService, companies CompanyStore, tasks TaskStore, users UserStore) *ReportService {
	return &ReportService{
		commissions: commissions,
		companies:   companies,
		tasks:       tasks,
		users:       users,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// bucket is a half-open period [start, end).
type bucket struct {
	start, end time.Time
	label      string
}

func truncate(t time.Time, granularity string) time.Time {
	t = t.UTC()
	if granularity == models.GranularityYearly {
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func step(t time.Time, granularity string) time.Time {
	if granularity == models.GranularityYearly {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

// buckets covers from through to inclusive at the given granularity.
// Missing bounds default to the last 12 months or the last 5 years.
func (s *ReportService) buckets(granularity string, from, to *time.Time) ([]bucket, error) {
	switch granularity {
	case "":
		granularity = models.GranularityMonthly
	case models.GranularityMonthly, models.GranularityYearly:
	default:
		return nil, apperror.Validation("granularity must be monthly or yearly",
			apperror.FieldError{Field: "granularity", Reason: "oneof", Param: "monthly yearly"})
	}

	last := truncate(s.now(), granularity)
	if to != nil {
		last = truncate(*to, granularity)
	}
	var first time.Time
	switch {
	case from != nil:
		first = truncate(*from, granularity)
	case granularity == models.GranularityYearly:
		first = last.AddDate(-4, 0, 0)
	default:
		first = last.AddDate(0, -11, 0)
	}
	if first.After(last) {
		return nil, apperror.Validation("from must not be after to", apperror.FieldError{Field: "from", Reason: "ltefield", Param: "to"})
	}

	layout := monthLabel
	if granularity == models.GranularityYearly {
		layout = yearLabel
	}
	var out []bucket
	for t := first; !t.After(last); t = step(t, granularity) {
		if len(out) == maxBuckets {
			return nil, apperror.Validation("Range too large")
		}
		out = append(out, bucket{start: t, end: step(t, granularity), label: t.Format(layout)})
	}
	return out, nil
}

func locate(buckets []bucket, t time.Time) int {
	for i, b := range buckets {
		if !t.Before(b.start) && t.Before(b.end) {
			return i
		}
	}
	return -1
}

// Earnings sums plan prices of visible companies by creation period.
func (s *ReportService) Earnings(ctx context.Context, viewer models.Viewer, granularity string, from, to *time.Time) ([]models.EarningsPoint, error) {
	bs, err := s.buckets(granularity, from, to)
	if err != nil {
		return nil, err
	}
	companies, err := s.commissions.visibleCompanies(ctx, viewer)
	if err != nil {
		return nil, err
	}
	sums := make([]decimal.Decimal, len(bs))
	for _, c := range companies {
		if i := locate(bs, c.CreatedAt); i >= 0 {
			sums[i] = sums[i].Add(decimal.NewFromFloat(c.PlanPrice))
		}
	}
	out := make([]models.EarningsPoint, len(bs))
	for i, b := range bs {
		out[i] = models.EarningsPoint{Period: b.label, Earnings: sums[i].Round(2).InexactFloat64()}
	}
	return out, nil
}

// Commissions sums the engine's visible line items by start period. The sum over all
// points equals the engine total for the same range.
func (s *ReportService) Commissions(ctx context.Context, viewer models.Viewer, granularity string, from, to *time.Time) ([]models.CommissionPoint, error) {
	bs, err := s.buckets(granularity, from, to)
	if err != nil {
		return nil, err
	}
	start, end := bs[0].start, bs[len(bs)-1].end
	list, err := s.commissions.List(ctx, viewer, &start, &end)
	if err != nil {
		return nil, err
	}
	sums := make([]decimal.Decimal, len(bs))
	for _, it := range list.Items {
		if i := locate(bs, it.StartDate); i >= 0 {
			sums[i] = sums[i].Add(decimal.NewFromFloat(it.Amount))
		}
	}
	out := make([]models.CommissionPoint, len(bs))
	for i, b := range bs {
		out[i] = models.CommissionPoint{Period: b.label, Commission: sums[i].InexactFloat64()}
	}
	return out, nil
}

// Summary backs the dashboard header.
func (s *ReportService) Summary(ctx context.Context, viewer models.Viewer) (models.DashboardSummary, error) {
	var sum models.DashboardSummary

	companies, err := s.commissions.visibleCompanies(ctx, viewer)
	if err != nil {
		return sum, err
	}
	sum.CompanyCount = int64(len(companies))
	revenue := decimal.Zero
	for _, c := range companies {
		revenue = revenue.Add(decimal.NewFromFloat(c.PlanPrice))
	}
	sum.RevenueTotal = revenue.Round(2).InexactFloat64()

	users, err := s.users.All(ctx)
	if err != nil {
		return sum, storeErr("Users", err)
	}
	list := commission.Build(companies, users, viewer)
	sum.CommissionTotal = list.CommissionTotal
	sum.CommissionOpen = list.Summary.Open
	sum.TeamFeeTotal = commission.TeamFees(users, viewer, commission.Period(s.now())).TeamFeeTotal

	scope, err := taskScope(ctx, s.users, viewer)
	if err != nil {
		return sum, err
	}
	if scope.Empty() {
		return sum, nil
	}
	for _, st := range []string{models.TaskPending, models.TaskInProgress} {
		n, err := s.tasks.Count(ctx, scope, models.TaskQuery{Status: st})
		if err != nil {
			return sum, storeErr("Tasks", err)
		}
		sum.OpenTaskCount += n
	}
	if sum.OverdueTaskCount, err = s.tasks.Count(ctx, scope, models.TaskQuery{Status: models.TaskCannotComplete}); err != nil {
		return sum, storeErr("Tasks", err)
	}
	return sum, nil
}
