package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NextDue identifies the earliest unpaid installment of a plan.
type NextDue struct {
	SequenceNumber int             `json:"sequence_number"`
	DueDate        time.Time       `json:"due_date"`
	Amount         decimal.Decimal `json:"amount"`
}

// PlanSummary is the ledger roll-up for one plan, recomputed on demand.
type PlanSummary struct {
	TotalPaid     decimal.Decimal `json:"total_paid"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	NextDue       *NextDue        `json:"next_due,omitempty"`
	PlanStatus    PlanStatus      `json:"plan_status"`
}

// ScheduleEntry is one row of the schedule view served to dashboards.
type ScheduleEntry struct {
	SequenceNumber int               `json:"sequence_number"`
	DueDate        time.Time         `json:"due_date"`
	Amount         decimal.Decimal   `json:"amount"`
	Status         InstallmentStatus `json:"status"`
	PaidDate       *time.Time        `json:"paid_date,omitempty"`
}
