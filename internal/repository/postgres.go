package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shikshapay/emi-service/internal/models"
)

// PostgresStore implements Store on top of a Postgres database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore initializes a Postgres-backed store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertInstitute(inst *models.Institute) error {
	query := `
		INSERT INTO emi.institutes (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	if _, err := s.db.Exec(query, inst.ID, inst.Name); err != nil {
		return fmt.Errorf("failed to upsert institute: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInstitute(id string) (*models.Institute, error) {
	inst := &models.Institute{}
	query := `SELECT id, name FROM emi.institutes WHERE id = $1`
	err := s.db.QueryRow(query, id).Scan(&inst.ID, &inst.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("institute %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find institute: %w", err)
	}
	return inst, nil
}

// CreatePlan inserts the plan and its full installment set in one
// transaction; either everything lands or nothing does.
func (s *PostgresStore) CreatePlan(plan *models.FinancingPlan, installments []models.Installment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO emi.plans (id, institute_id, student_name, student_email, principal, annual_rate_pct, tenure_months, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.Exec(query, plan.ID, plan.InstituteID, plan.StudentName, plan.StudentEmail,
		plan.Principal, plan.AnnualRatePct, plan.TenureMonths, plan.StartDate, plan.CreatedAt); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	instQuery := `
		INSERT INTO emi.installments (plan_id, sequence_number, due_date, amount, covered_fee_amount)
		VALUES ($1, $2, $3, $4, $5)`
	for _, inst := range installments {
		if _, err := tx.Exec(instQuery, inst.PlanID, inst.SequenceNumber, inst.DueDate, inst.Amount, inst.CoveredFeeAmount); err != nil {
			return fmt.Errorf("failed to create installment %d: %w", inst.SequenceNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan creation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPlan(id uuid.UUID) (*models.FinancingPlan, error) {
	plan := &models.FinancingPlan{}
	query := `
		SELECT id, institute_id, student_name, student_email, principal, annual_rate_pct, tenure_months, start_date, created_at
		FROM emi.plans
		WHERE id = $1`
	err := s.db.QueryRow(query, id).Scan(&plan.ID, &plan.InstituteID, &plan.StudentName, &plan.StudentEmail,
		&plan.Principal, &plan.AnnualRatePct, &plan.TenureMonths, &plan.StartDate, &plan.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return plan, nil
}

func (s *PostgresStore) ListPlans() ([]*models.FinancingPlan, error) {
	query := `
		SELECT id, institute_id, student_name, student_email, principal, annual_rate_pct, tenure_months, start_date, created_at
		FROM emi.plans
		ORDER BY created_at`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.FinancingPlan
	for rows.Next() {
		plan := &models.FinancingPlan{}
		if err := rows.Scan(&plan.ID, &plan.InstituteID, &plan.StudentName, &plan.StudentEmail,
			&plan.Principal, &plan.AnnualRatePct, &plan.TenureMonths, &plan.StartDate, &plan.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (s *PostgresStore) GetInstallments(planID uuid.UUID) ([]models.Installment, error) {
	if _, err := s.GetPlan(planID); err != nil {
		return nil, err
	}
	query := `
		SELECT plan_id, sequence_number, due_date, amount, paid_date, covered_fee_amount
		FROM emi.installments
		WHERE plan_id = $1
		ORDER BY sequence_number`
	rows, err := s.db.Query(query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()
	return scanInstallments(rows)
}

func (s *PostgresStore) GetInstallment(planID uuid.UUID, seq int) (*models.Installment, error) {
	inst := &models.Installment{}
	query := `
		SELECT plan_id, sequence_number, due_date, amount, paid_date, covered_fee_amount
		FROM emi.installments
		WHERE plan_id = $1 AND sequence_number = $2`
	err := s.db.QueryRow(query, planID, seq).
		Scan(&inst.PlanID, &inst.SequenceNumber, &inst.DueDate, &inst.Amount, &inst.PaidDate, &inst.CoveredFeeAmount)
	if err == sql.ErrNoRows {
		return nil, models.ErrInstallmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find installment: %w", err)
	}
	return inst, nil
}

func (s *PostgresStore) ListAllInstallments() ([]models.Installment, error) {
	query := `
		SELECT plan_id, sequence_number, due_date, amount, paid_date, covered_fee_amount
		FROM emi.installments
		ORDER BY plan_id, sequence_number`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()
	return scanInstallments(rows)
}

// MarkInstallmentPaid sets paid_date only when it is still NULL, making the
// write-once rule a single guarded UPDATE.
func (s *PostgresStore) MarkInstallmentPaid(planID uuid.UUID, seq int, paidDate time.Time) error {
	query := `
		UPDATE emi.installments
		SET paid_date = $3
		WHERE plan_id = $1 AND sequence_number = $2 AND paid_date IS NULL`
	res, err := s.db.Exec(query, planID, seq, paidDate)
	if err != nil {
		return fmt.Errorf("failed to mark installment paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetInstallment(planID, seq); err != nil {
			return err
		}
		return models.ErrInstallmentAlreadyPaid
	}
	return nil
}

func (s *PostgresStore) AppendReminder(rec *models.ReminderRecord) error {
	query := `
		INSERT INTO emi.reminders (id, plan_id, sequence_number, sent_at, channel, sequence_in_cycle)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.Exec(query, rec.ID, rec.PlanID, rec.SequenceNumber, rec.SentAt, rec.Channel, rec.SequenceInCycle); err != nil {
		return fmt.Errorf("failed to append reminder: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListReminders(planID uuid.UUID, seq int) ([]models.ReminderRecord, error) {
	query := `
		SELECT id, plan_id, sequence_number, sent_at, channel, sequence_in_cycle
		FROM emi.reminders
		WHERE plan_id = $1 AND sequence_number = $2
		ORDER BY sent_at`
	rows, err := s.db.Query(query, planID, seq)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var records []models.ReminderRecord
	for rows.Next() {
		var rec models.ReminderRecord
		if err := rows.Scan(&rec.ID, &rec.PlanID, &rec.SequenceNumber, &rec.SentAt, &rec.Channel, &rec.SequenceInCycle); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) LastReminder(planID uuid.UUID, seq int) (*models.ReminderRecord, error) {
	rec := &models.ReminderRecord{}
	query := `
		SELECT id, plan_id, sequence_number, sent_at, channel, sequence_in_cycle
		FROM emi.reminders
		WHERE plan_id = $1 AND sequence_number = $2
		ORDER BY sent_at DESC
		LIMIT 1`
	err := s.db.QueryRow(query, planID, seq).
		Scan(&rec.ID, &rec.PlanID, &rec.SequenceNumber, &rec.SentAt, &rec.Channel, &rec.SequenceInCycle)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last reminder: %w", err)
	}
	return rec, nil
}

func scanInstallments(rows *sql.Rows) ([]models.Installment, error) {
	var out []models.Installment
	for rows.Next() {
		var inst models.Installment
		if err := rows.Scan(&inst.PlanID, &inst.SequenceNumber, &inst.DueDate, &inst.Amount, &inst.PaidDate, &inst.CoveredFeeAmount); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}
