package emi

import (
	"testing"
	"time"

	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateSchedule_FlatEMI(t *testing.T) {
	plan := models.FinancingPlan{
		Principal:     decimal.NewFromInt(40000),
		AnnualRatePct: decimal.NewFromFloat(12.5),
		TenureMonths:  16,
		StartDate:     date(2025, time.January, 15),
	}

	installments, err := GenerateSchedule(plan)
	require.NoError(t, err)
	require.Len(t, installments, 16)

	assert.True(t, installments[0].Amount.Equal(decimal.NewFromFloat(2916.67)),
		"got %s", installments[0].Amount)
	assert.True(t, installments[15].Amount.Equal(decimal.NewFromFloat(2916.62)),
		"last installment absorbs the rounding residual, got %s", installments[15].Amount)
	assert.Equal(t, date(2025, time.January, 15), installments[0].DueDate)
	assert.Equal(t, date(2026, time.April, 15), installments[15].DueDate)

	sum := decimal.Zero
	for i, inst := range installments {
		assert.Equal(t, i+1, inst.SequenceNumber)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(decimal.NewFromFloat(46666.67)), "sum %s", sum)
	assert.True(t, sum.Equal(TotalFinanced(plan)))
}

func TestGenerateSchedule_NoCentDrift(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		tenure    int
	}{
		{"40000", "12.5", 16},
		{"99999.99", "18", 7},
		{"1000", "0.1", 36},
		{"250000", "0", 12},
		{"333.33", "9.99", 13},
	}
	for _, tc := range cases {
		plan := models.FinancingPlan{
			Principal:     decimal.RequireFromString(tc.principal),
			AnnualRatePct: decimal.RequireFromString(tc.rate),
			TenureMonths:  tc.tenure,
			StartDate:     date(2025, time.March, 1),
		}
		installments, err := GenerateSchedule(plan)
		require.NoError(t, err)
		require.Len(t, installments, tc.tenure)

		sum := decimal.Zero
		fees := decimal.Zero
		for _, inst := range installments {
			sum = sum.Add(inst.Amount)
			fees = fees.Add(inst.CoveredFeeAmount)
		}
		assert.True(t, sum.Equal(TotalFinanced(plan)),
			"principal=%s rate=%s tenure=%d: sum %s != total %s", tc.principal, tc.rate, tc.tenure, sum, TotalFinanced(plan))
		assert.True(t, fees.Equal(plan.Principal),
			"covered fee shares must sum to the principal, got %s", fees)
	}
}

func TestGenerateSchedule_ZeroRate(t *testing.T) {
	plan := models.FinancingPlan{
		Principal:     decimal.NewFromInt(12000),
		AnnualRatePct: decimal.Zero,
		TenureMonths:  12,
		StartDate:     date(2025, time.June, 1),
	}
	installments, err := GenerateSchedule(plan)
	require.NoError(t, err)
	for _, inst := range installments {
		assert.True(t, inst.Amount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, inst.CoveredFeeAmount.Equal(inst.Amount))
	}
}

func TestGenerateSchedule_DayOfMonthClamping(t *testing.T) {
	plan := models.FinancingPlan{
		Principal:     decimal.NewFromInt(10000),
		AnnualRatePct: decimal.NewFromInt(10),
		TenureMonths:  4,
		StartDate:     date(2025, time.January, 31),
	}
	installments, err := GenerateSchedule(plan)
	require.NoError(t, err)

	assert.Equal(t, date(2025, time.January, 31), installments[0].DueDate)
	assert.Equal(t, date(2025, time.February, 28), installments[1].DueDate)
	assert.Equal(t, date(2025, time.March, 31), installments[2].DueDate)
	assert.Equal(t, date(2025, time.April, 30), installments[3].DueDate)
}

func TestGenerateSchedule_InvalidParameters(t *testing.T) {
	valid := models.FinancingPlan{
		Principal:     decimal.NewFromInt(5000),
		AnnualRatePct: decimal.NewFromInt(10),
		TenureMonths:  6,
		StartDate:     date(2025, time.May, 10),
	}

	cases := map[string]func(p *models.FinancingPlan){
		"zero principal":     func(p *models.FinancingPlan) { p.Principal = decimal.Zero },
		"negative principal": func(p *models.FinancingPlan) { p.Principal = decimal.NewFromInt(-1) },
		"zero tenure":        func(p *models.FinancingPlan) { p.TenureMonths = 0 },
		"negative tenure":    func(p *models.FinancingPlan) { p.TenureMonths = -3 },
		"negative rate":      func(p *models.FinancingPlan) { p.AnnualRatePct = decimal.NewFromFloat(-0.01) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			plan := valid
			mutate(&plan)
			installments, err := GenerateSchedule(plan)
			assert.ErrorIs(t, err, models.ErrInvalidPlanParameters)
			assert.Nil(t, installments, "no partial schedule on error")
		})
	}
}

func TestAddMonths_LeapYear(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 29), AddMonths(date(2023, time.December, 31), 2))
	assert.Equal(t, date(2025, time.February, 28), AddMonths(date(2024, time.December, 31), 2))
	assert.Equal(t, date(2025, time.March, 15), AddMonths(date(2025, time.February, 15), 1))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 5, DaysBetween(date(2025, time.June, 15), date(2025, time.June, 20)))
	assert.Equal(t, -5, DaysBetween(date(2025, time.June, 20), date(2025, time.June, 15)))
	assert.Equal(t, 0, DaysBetween(date(2025, time.June, 15), time.Date(2025, time.June, 15, 23, 59, 0, 0, time.UTC)))
}
