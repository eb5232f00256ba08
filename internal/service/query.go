package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shikshapay/emi-service/internal/emi"
	"github.com/shikshapay/emi-service/internal/models"
)

// QueryFilter scopes the installment query. Zero-valued dimensions are not
// applied; set dimensions combine with AND semantics.
type QueryFilter struct {
	InstituteID string
	Status      models.InstallmentStatus
	From        *time.Time // due date range, inclusive
	To          *time.Time
}

// QueryRow is one (institute, installment) pair with its live-derived status
// and the most recent reminder, if any.
type QueryRow struct {
	Institute      models.Institute         `json:"institute"`
	Plan           models.FinancingPlan     `json:"plan"`
	Installment    models.Installment       `json:"installment"`
	Status         models.InstallmentStatus `json:"status"`
	LastReminderAt *time.Time               `json:"last_reminder_at,omitempty"`
}

// QueryInstallments projects the full installment set through the filter
// without mutating any stored state. Rows come back grouped by institute name
// ascending, then due date ascending, then sequence number.
func (s *Service) QueryInstallments(filter QueryFilter, asOf time.Time) ([]QueryRow, error) {
	plans, err := s.store.ListPlans()
	if err != nil {
		return nil, err
	}
	planByID := make(map[uuid.UUID]*models.FinancingPlan, len(plans))
	instituteByID := make(map[string]models.Institute)
	for _, plan := range plans {
		planByID[plan.ID] = plan
		if _, seen := instituteByID[plan.InstituteID]; !seen {
			inst, err := s.store.GetInstitute(plan.InstituteID)
			if err != nil {
				// Plans created before the institute registered a name
				instituteByID[plan.InstituteID] = models.Institute{ID: plan.InstituteID, Name: plan.InstituteID}
				continue
			}
			instituteByID[plan.InstituteID] = *inst
		}
	}

	installments, err := s.store.ListAllInstallments()
	if err != nil {
		return nil, err
	}

	var rows []QueryRow
	for _, inst := range installments {
		plan, ok := planByID[inst.PlanID]
		if !ok {
			continue
		}
		if filter.InstituteID != "" && plan.InstituteID != filter.InstituteID {
			continue
		}
		status := emi.Classify(inst, asOf, s.config.DueSoonWindowDays)
		if filter.Status != "" && status != filter.Status {
			continue
		}
		due := emi.DateOnly(inst.DueDate)
		if filter.From != nil && due.Before(emi.DateOnly(*filter.From)) {
			continue
		}
		if filter.To != nil && due.After(emi.DateOnly(*filter.To)) {
			continue
		}

		row := QueryRow{
			Institute:   instituteByID[plan.InstituteID],
			Plan:        *plan,
			Installment: inst,
			Status:      status,
		}
		last, err := s.store.LastReminder(inst.PlanID, inst.SequenceNumber)
		if err != nil {
			return nil, err
		}
		if last != nil {
			sentAt := last.SentAt
			row.LastReminderAt = &sentAt
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Institute.Name != rows[j].Institute.Name {
			return rows[i].Institute.Name < rows[j].Institute.Name
		}
		di, dj := emi.DateOnly(rows[i].Installment.DueDate), emi.DateOnly(rows[j].Installment.DueDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return rows[i].Installment.SequenceNumber < rows[j].Installment.SequenceNumber
	})
	return rows, nil
}
