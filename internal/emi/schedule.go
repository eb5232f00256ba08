package emi

import (
	"fmt"

	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// GenerateSchedule derives the complete installment set for a plan using the
// flat (non-compounding) EMI model:
//
//	total = principal * (1 + ratePct/100 * tenure/12)
//	amount = total / tenure, rounded half-up to the minor unit
//
// The final installment absorbs the rounding residual so the installment
// amounts sum to the rounded total exactly. Due dates fall on the plan's
// start day each month, clamped to shorter months.
//
// The function is pure: it either returns the full schedule or an error
// wrapping models.ErrInvalidPlanParameters, never a partial one.
func GenerateSchedule(plan models.FinancingPlan) ([]models.Installment, error) {
	if plan.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", models.ErrInvalidPlanParameters, plan.Principal)
	}
	if plan.TenureMonths <= 0 {
		return nil, fmt.Errorf("%w: tenure must be positive, got %d months", models.ErrInvalidPlanParameters, plan.TenureMonths)
	}
	if plan.AnnualRatePct.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate must not be negative, got %s%%", models.ErrInvalidPlanParameters, plan.AnnualRatePct)
	}

	tenure := decimal.NewFromInt(int64(plan.TenureMonths))
	factor := decimal.NewFromInt(1).Add(plan.AnnualRatePct.Div(hundred).Mul(tenure).Div(twelve))
	total := plan.Principal.Mul(factor).Round(2)
	amount := plan.Principal.Mul(factor).Div(tenure).Round(2)
	feeShare := plan.Principal.Div(tenure).Round(2)

	installments := make([]models.Installment, 0, plan.TenureMonths)
	for seq := 1; seq <= plan.TenureMonths; seq++ {
		inst := models.Installment{
			PlanID:           plan.ID,
			SequenceNumber:   seq,
			DueDate:          AddMonths(DateOnly(plan.StartDate), seq-1),
			Amount:           amount,
			CoveredFeeAmount: feeShare,
		}
		if seq == plan.TenureMonths {
			// Absorb the rounding residual so the schedule sums exactly
			paid := amount.Mul(decimal.NewFromInt(int64(plan.TenureMonths - 1)))
			inst.Amount = total.Sub(paid)
			inst.CoveredFeeAmount = plan.Principal.Sub(feeShare.Mul(decimal.NewFromInt(int64(plan.TenureMonths - 1))))
			if inst.CoveredFeeAmount.GreaterThan(inst.Amount) {
				inst.CoveredFeeAmount = inst.Amount
			}
		}
		installments = append(installments, inst)
	}
	return installments, nil
}

// TotalFinanced returns the rounded total the schedule amounts sum to.
func TotalFinanced(plan models.FinancingPlan) decimal.Decimal {
	tenure := decimal.NewFromInt(int64(plan.TenureMonths))
	factor := decimal.NewFromInt(1).Add(plan.AnnualRatePct.Div(hundred).Mul(tenure).Div(twelve))
	return plan.Principal.Mul(factor).Round(2)
}
