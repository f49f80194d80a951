package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/teamboard_backend/models"
)

func ptr(f float64) *float64 { return &f }

func TestPrice(t *testing.T) {
	tests := []struct {
		name    string
		plan    string
		manual  *float64
		want    float64
		wantErr error
	}{
		{"basic", models.PlanBasic, nil, 799.68, nil},
		{"pro", models.PlanPro, nil, 899.64, nil},
		{"basic ignores manual", models.PlanBasic, ptr(5), 799.68, nil},
		{"pro ignores manual", models.PlanPro, ptr(1234), 899.64, nil},
		{"business manual", models.PlanBusiness, ptr(1500), 1500, nil},
		{"business without manual", models.PlanBusiness, nil, 0, ErrManualPriceRequired},
		{"business zero", models.PlanBusiness, ptr(0), 0, ErrManualPriceRequired},
		{"business negative", models.PlanBusiness, ptr(-10), 0, ErrManualPriceRequired},
		{"unknown", "GOLD", nil, 0, ErrUnknownPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.plan, tt.manual)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceRoundTrip(t *testing.T) {
	for _, plan := range []string{models.PlanBasic, models.PlanPro} {
		first, err := Price(plan, nil)
		require.NoError(t, err)
		again, err := Price(plan, ptr(first))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	got, err := Price(models.PlanBusiness, ptr(2222.5))
	require.NoError(t, err)
	assert.Equal(t, 2222.5, got)
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan(" pro ")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, p)

	_, err = ParsePlan("enterprise")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestPlanForAmount(t *testing.T) {
	tests := []struct {
		amount int64
		plan   string
		price  float64
		ok     bool
	}{
		{79968, models.PlanBasic, 799.68, true},
		{79900, models.PlanBasic, 799.68, true},
		{79800, models.PlanBasic, 799.68, true},
		{89964, models.PlanPro, 899.64, true},
		{90000, "", 0, false},
		{90001, models.PlanBusiness, 900.01, true},
		{150000, models.PlanBusiness, 1500, true},
		{50000, "", 0, false},
		{85000, "", 0, false},
	}
	for _, tt := range tests {
		plan, price, ok := PlanForAmount(tt.amount)
		assert.Equal(t, tt.ok, ok, "amount %d", tt.amount)
		assert.Equal(t, tt.plan, plan, "amount %d", tt.amount)
		assert.Equal(t, tt.price, price, "amount %d", tt.amount)
	}
}

func TestToSmallestUnit(t *testing.T) {
	assert.Equal(t, int64(79968), ToSmallestUnit(Basic()))
	assert.Equal(t, int64(89964), ToSmallestUnit(Pro()))
	assert.Equal(t, int64(150001), ToSmallestUnit(1500.005))

	plan, _, ok := PlanForAmount(ToSmallestUnit(Pro()))
	assert.True(t, ok)
	assert.Equal(t, "PRO", plan)
}
