package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment is one scheduled payment within a plan. All installments for a
// plan are generated atomically at plan creation; PaidDate is set exactly once
// by a payment confirmation and is never cleared.
type Installment struct {
	PlanID           uuid.UUID       `json:"plan_id"`
	SequenceNumber   int             `json:"sequence_number"`
	DueDate          time.Time       `json:"due_date"`
	Amount           decimal.Decimal `json:"amount"`
	PaidDate         *time.Time      `json:"paid_date,omitempty"`
	CoveredFeeAmount decimal.Decimal `json:"covered_fee_amount"`
}
