package models

// Report granularities
const (
	GranularityMonthly = "monthly"
	GranularityYearly  = "yearly"
)

// EarningsPoint is plan-price revenue for one period. It never carries commission.
type EarningsPoint struct {
	Period   string  `json:"period"`
	Earnings float64 `json:"earnings"`
}

// CommissionPoint is the commission total for one period.
type CommissionPoint struct {
	Period     string  `json:"period"`
	Commission float64 `json:"commission"`
}

// DashboardSummary backs the dashboard header widgets.
type DashboardSummary struct {
	CompanyCount     int64   `json:"companyCount"`
	RevenueTotal     float64 `json:"revenueTotal"`
	CommissionTotal  float64 `json:"commissionTotal"`
	CommissionOpen   float64 `json:"commissionOpen"`
	TeamFeeTotal     float64 `json:"teamFeeTotal"`
	OpenTaskCount    int64   `json:"openTaskCount"`
	OverdueTaskCount int64   `json:"overdueTaskCount"`
}
