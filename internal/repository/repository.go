package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shikshapay/emi-service/internal/models"
)

// Store defines the persistence operations the engine needs. Implementations
// must treat Installment.PaidDate as write-once and ReminderRecords as
// append-only.
type Store interface {
	// UpsertInstitute creates the institute or refreshes its name.
	UpsertInstitute(inst *models.Institute) error
	GetInstitute(id string) (*models.Institute, error)

	// CreatePlan persists a plan together with its full installment set in
	// one atomic unit; on error nothing is persisted.
	CreatePlan(plan *models.FinancingPlan, installments []models.Installment) error
	GetPlan(id uuid.UUID) (*models.FinancingPlan, error)
	ListPlans() ([]*models.FinancingPlan, error)

	GetInstallments(planID uuid.UUID) ([]models.Installment, error)
	GetInstallment(planID uuid.UUID, seq int) (*models.Installment, error)
	// ListAllInstallments returns every installment across all plans,
	// feeding the query layer and the nightly sweep.
	ListAllInstallments() ([]models.Installment, error)
	// MarkInstallmentPaid sets paidDate exactly once; a second call returns
	// models.ErrInstallmentAlreadyPaid.
	MarkInstallmentPaid(planID uuid.UUID, seq int, paidDate time.Time) error

	AppendReminder(rec *models.ReminderRecord) error
	ListReminders(planID uuid.UUID, seq int) ([]models.ReminderRecord, error)
	// LastReminder returns the most recent record for the installment, or
	// nil if none was ever sent.
	LastReminder(planID uuid.UUID, seq int) (*models.ReminderRecord, error)
}
