package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shikshapay/emi-service/internal/models"
)

type installmentKey struct {
	planID uuid.UUID
	seq    int
}

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and is the
// default backend when no database connection is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	institutes   map[string]models.Institute
	plans        map[uuid.UUID]models.FinancingPlan
	installments map[installmentKey]models.Installment
	reminders    map[installmentKey][]models.ReminderRecord
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		institutes:   make(map[string]models.Institute),
		plans:        make(map[uuid.UUID]models.FinancingPlan),
		installments: make(map[installmentKey]models.Installment),
		reminders:    make(map[installmentKey][]models.ReminderRecord),
	}
}

func (s *MemoryStore) UpsertInstitute(inst *models.Institute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.institutes[inst.ID] = *inst
	return nil
}

func (s *MemoryStore) GetInstitute(id string) (*models.Institute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutes[id]
	if !ok {
		return nil, fmt.Errorf("institute %s not found", id)
	}
	return &inst, nil
}

func (s *MemoryStore) CreatePlan(plan *models.FinancingPlan, installments []models.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.ID]; exists {
		return fmt.Errorf("plan %s already exists", plan.ID)
	}
	s.plans[plan.ID] = *plan
	for _, inst := range installments {
		s.installments[installmentKey{inst.PlanID, inst.SequenceNumber}] = inst
	}
	return nil
}

func (s *MemoryStore) GetPlan(id uuid.UUID) (*models.FinancingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, models.ErrPlanNotFound
	}
	return &plan, nil
}

func (s *MemoryStore) ListPlans() ([]*models.FinancingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans := make([]*models.FinancingPlan, 0, len(s.plans))
	for id := range s.plans {
		plan := s.plans[id]
		plans = append(plans, &plan)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	return plans, nil
}

func (s *MemoryStore) GetInstallments(planID uuid.UUID) ([]models.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.plans[planID]; !ok {
		return nil, models.ErrPlanNotFound
	}
	var out []models.Installment
	for key, inst := range s.installments {
		if key.planID == planID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

func (s *MemoryStore) GetInstallment(planID uuid.UUID, seq int) (*models.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.installments[installmentKey{planID, seq}]
	if !ok {
		return nil, models.ErrInstallmentNotFound
	}
	return &inst, nil
}

func (s *MemoryStore) ListAllInstallments() ([]models.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Installment, 0, len(s.installments))
	for _, inst := range s.installments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlanID != out[j].PlanID {
			return out[i].PlanID.String() < out[j].PlanID.String()
		}
		return out[i].SequenceNumber < out[j].SequenceNumber
	})
	return out, nil
}

func (s *MemoryStore) MarkInstallmentPaid(planID uuid.UUID, seq int, paidDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := installmentKey{planID, seq}
	inst, ok := s.installments[key]
	if !ok {
		return models.ErrInstallmentNotFound
	}
	if inst.PaidDate != nil {
		return models.ErrInstallmentAlreadyPaid
	}
	inst.PaidDate = &paidDate
	s.installments[key] = inst
	return nil
}

func (s *MemoryStore) AppendReminder(rec *models.ReminderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := installmentKey{rec.PlanID, rec.SequenceNumber}
	if _, ok := s.installments[key]; !ok {
		return models.ErrInstallmentNotFound
	}
	s.reminders[key] = append(s.reminders[key], *rec)
	return nil
}

func (s *MemoryStore) ListReminders(planID uuid.UUID, seq int) ([]models.ReminderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.reminders[installmentKey{planID, seq}]
	out := make([]models.ReminderRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) LastReminder(planID uuid.UUID, seq int) (*models.ReminderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.reminders[installmentKey{planID, seq}]
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[len(records)-1]
	return &rec, nil
}
