package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shikshapay/emi-service/internal/config"
	"github.com/shikshapay/emi-service/internal/emi"
	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shikshapay/emi-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service handles business logic for the financing lifecycle and reminders.
type Service struct {
	store    repository.Store
	log      *logrus.Logger
	config   *config.Config
	channels map[string]Channel

	// now is swapped out by tests to pin the wall clock
	now func() time.Time

	// per-installment locks enforce the single-writer discipline for
	// reminder dispatch and payment confirmation
	locksMu sync.Mutex
	locks   map[installmentRef]*sync.Mutex
}

type installmentRef struct {
	planID uuid.UUID
	seq    int
}

// NewService initializes a new service
func NewService(store repository.Store, log *logrus.Logger, cfg *config.Config, channels map[string]Channel) *Service {
	return &Service{
		store:    store,
		log:      log,
		config:   cfg,
		channels: channels,
		now:      time.Now,
		locks:    make(map[installmentRef]*sync.Mutex),
	}
}

func (s *Service) lockInstallment(ref installmentRef) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[ref]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[ref] = mu
	}
	return mu
}

// CreatePlanInput carries the plan creation request from the admin API.
type CreatePlanInput struct {
	InstituteID   string
	InstituteName string
	StudentName   string
	StudentEmail  string
	Principal     decimal.Decimal
	AnnualRatePct *decimal.Decimal // nil falls back to the configured default
	TenureMonths  int
	StartDate     time.Time
}

// CreatePlan generates the installment schedule for a new plan and persists
// plan plus schedule atomically. Either the complete schedule lands or
// nothing does.
func (s *Service) CreatePlan(input CreatePlanInput) (*models.FinancingPlan, []models.Installment, error) {
	if input.InstituteID == "" || input.StudentName == "" || input.StudentEmail == "" {
		return nil, nil, fmt.Errorf("%w: institute and student identification are required", models.ErrInvalidPlanParameters)
	}

	rate := decimal.NewFromFloat(s.config.DefaultRatePct)
	if input.AnnualRatePct != nil {
		rate = *input.AnnualRatePct
	}

	plan := &models.FinancingPlan{
		ID:            uuid.New(),
		InstituteID:   input.InstituteID,
		StudentName:   input.StudentName,
		StudentEmail:  input.StudentEmail,
		Principal:     input.Principal,
		AnnualRatePct: rate,
		TenureMonths:  input.TenureMonths,
		StartDate:     emi.DateOnly(input.StartDate),
		CreatedAt:     s.now(),
	}

	installments, err := emi.GenerateSchedule(*plan)
	if err != nil {
		return nil, nil, err
	}

	if input.InstituteName != "" {
		if err := s.store.UpsertInstitute(&models.Institute{ID: input.InstituteID, Name: input.InstituteName}); err != nil {
			return nil, nil, err
		}
	}
	if err := s.store.CreatePlan(plan, installments); err != nil {
		return nil, nil, err
	}

	s.log.WithFields(logrus.Fields{
		"plan_id":   plan.ID,
		"institute": plan.InstituteID,
		"tenure":    plan.TenureMonths,
		"principal": plan.Principal,
	}).Info("Financing plan created")
	return plan, installments, nil
}

// GetScheduleView returns the schedule rows with live-derived statuses plus
// the ledger summary, evaluated as of the given date.
func (s *Service) GetScheduleView(planID uuid.UUID, asOf time.Time) ([]models.ScheduleEntry, models.PlanSummary, error) {
	installments, err := s.store.GetInstallments(planID)
	if err != nil {
		return nil, models.PlanSummary{}, err
	}

	entries := make([]models.ScheduleEntry, 0, len(installments))
	for _, inst := range installments {
		entries = append(entries, models.ScheduleEntry{
			SequenceNumber: inst.SequenceNumber,
			DueDate:        inst.DueDate,
			Amount:         inst.Amount,
			Status:         emi.Classify(inst, asOf, s.config.DueSoonWindowDays),
			PaidDate:       inst.PaidDate,
		})
	}
	return entries, emi.Summarize(installments, asOf, s.config.DueSoonWindowDays), nil
}

// MarkInstallmentPaid records a payment confirmation. PaidDate is write-once;
// the per-installment lock keeps it from racing a concurrent reminder send.
func (s *Service) MarkInstallmentPaid(planID uuid.UUID, seq int, paidDate time.Time) error {
	mu := s.lockInstallment(installmentRef{planID, seq})
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.MarkInstallmentPaid(planID, seq, emi.DateOnly(paidDate)); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"plan_id":  planID,
		"sequence": seq,
	}).Info("Installment marked paid")
	return nil
}
