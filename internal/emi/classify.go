package emi

import (
	"time"

	"github.com/shikshapay/emi-service/internal/models"
)

// DefaultDueSoonDays is the lookahead window within which an unpaid
// installment counts as Due rather than Upcoming.
const DefaultDueSoonDays = 7

// Classify derives the real-time status of an installment. It is a pure
// function of (installment, today); status is never stored, so it can never
// go stale against the wall clock.
//
// An installment due today is Due, not Overdue.
func Classify(inst models.Installment, today time.Time, dueSoonDays int) models.InstallmentStatus {
	if inst.PaidDate != nil {
		return models.StatusPaid
	}
	due := DateOnly(inst.DueDate)
	now := DateOnly(today)
	switch {
	case due.Before(now):
		return models.StatusOverdue
	case !due.After(now.AddDate(0, 0, dueSoonDays)):
		return models.StatusDue
	default:
		return models.StatusUpcoming
	}
}
