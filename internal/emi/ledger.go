package emi

import (
	"time"

	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shopspring/decimal"
)

// Summarize rolls a plan's installments up into ledger totals as of today.
// It holds the invariant totalPaid + pendingAmount == sum of all installment
// amounts, and is recomputed on every read rather than cached.
func Summarize(installments []models.Installment, today time.Time, dueSoonDays int) models.PlanSummary {
	summary := models.PlanSummary{
		TotalPaid:     decimal.Zero,
		PendingAmount: decimal.Zero,
		PlanStatus:    models.PlanCompleted,
	}
	if len(installments) == 0 {
		return summary
	}

	delinquent := false
	for _, inst := range installments {
		status := Classify(inst, today, dueSoonDays)
		if status == models.StatusPaid {
			summary.TotalPaid = summary.TotalPaid.Add(inst.Amount)
			continue
		}
		summary.PendingAmount = summary.PendingAmount.Add(inst.Amount)
		if status == models.StatusOverdue {
			delinquent = true
		}
		if next := summary.NextDue; next == nil ||
			DateOnly(inst.DueDate).Before(DateOnly(next.DueDate)) ||
			(DateOnly(inst.DueDate).Equal(DateOnly(next.DueDate)) && inst.SequenceNumber < next.SequenceNumber) {
			summary.NextDue = &models.NextDue{
				SequenceNumber: inst.SequenceNumber,
				DueDate:        inst.DueDate,
				Amount:         inst.Amount,
			}
		}
	}

	switch {
	case summary.NextDue == nil:
		summary.PlanStatus = models.PlanCompleted
	case delinquent:
		summary.PlanStatus = models.PlanDelinquent
	default:
		summary.PlanStatus = models.PlanCurrent
	}
	return summary
}
