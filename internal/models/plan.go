package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancingPlan represents one parent/student's fee-financing agreement.
// Tenure is fixed at creation; the plan is never rescheduled, only
// superseded by a new plan if refinanced.
type FinancingPlan struct {
	ID            uuid.UUID       `json:"plan_id"`
	InstituteID   string          `json:"institute_id"`
	StudentName   string          `json:"student_name"`
	StudentEmail  string          `json:"student_email"`
	Principal     decimal.Decimal `json:"principal"`
	AnnualRatePct decimal.Decimal `json:"annual_interest_rate_pct"`
	TenureMonths  int             `json:"tenure_months"`
	StartDate     time.Time       `json:"start_date"`
	CreatedAt     time.Time       `json:"created_at"`
}
