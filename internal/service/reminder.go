package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shikshapay/emi-service/internal/emi"
	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Channel delivers a reminder message to the parent. Implementations may
// block or fail; the dispatcher records a ReminderRecord only after Send
// returns nil.
type Channel interface {
	Send(ctx context.Context, msg ReminderMessage) error
}

// ReminderMessage is everything a channel needs to render a reminder.
type ReminderMessage struct {
	To             string
	StudentName    string
	PlanID         uuid.UUID
	SequenceNumber int
	Amount         decimal.Decimal
	DueDate        time.Time
	Status         models.InstallmentStatus
	Override       string
}

// SendReminder dispatches one reminder for an installment.
//
// The paid re-check, cooldown check, channel send and record append all run
// under the installment's lock, so two concurrent calls can never both pass
// the eligibility check: the loser either hits the cooldown or sees the
// installment paid. A failed channel send creates no record, keeping a retry
// eligible.
func (s *Service) SendReminder(ctx context.Context, planID uuid.UUID, seq int, channelName, override string) (*models.ReminderRecord, error) {
	if channelName == "" {
		channelName = s.config.ReminderChannel
	}
	channel, ok := s.channels[channelName]
	if !ok {
		return nil, fmt.Errorf("unknown reminder channel %q", channelName)
	}

	mu := s.lockInstallment(installmentRef{planID, seq})
	mu.Lock()
	defer mu.Unlock()

	inst, err := s.store.GetInstallment(planID, seq)
	if err != nil {
		return nil, err
	}
	if inst.PaidDate != nil {
		return nil, models.ErrInstallmentAlreadyPaid
	}

	now := s.now()
	last, err := s.store.LastReminder(planID, seq)
	if err != nil {
		return nil, err
	}
	if last != nil {
		if elapsed := now.Sub(last.SentAt); elapsed < s.config.ReminderCooldown {
			remaining := (s.config.ReminderCooldown - elapsed).Round(time.Minute)
			return nil, fmt.Errorf("%w: retry in %s", models.ErrReminderCooldownActive, remaining)
		}
	}

	plan, err := s.store.GetPlan(planID)
	if err != nil {
		return nil, err
	}

	msg := ReminderMessage{
		To:             plan.StudentEmail,
		StudentName:    plan.StudentName,
		PlanID:         planID,
		SequenceNumber: seq,
		Amount:         inst.Amount,
		DueDate:        inst.DueDate,
		Status:         emi.Classify(*inst, now, s.config.DueSoonWindowDays),
		Override:       override,
	}
	if err := channel.Send(ctx, msg); err != nil {
		s.log.WithFields(logrus.Fields{
			"plan_id":  planID,
			"sequence": seq,
			"channel":  channelName,
		}).Errorf("Reminder delivery failed: %v", err)
		return nil, fmt.Errorf("%w: %v", models.ErrChannelDeliveryFailed, err)
	}

	sequenceInCycle := 1
	if last != nil {
		sequenceInCycle = last.SequenceInCycle + 1
	}
	rec := &models.ReminderRecord{
		ID:              uuid.New(),
		PlanID:          planID,
		SequenceNumber:  seq,
		SentAt:          now,
		Channel:         channelName,
		SequenceInCycle: sequenceInCycle,
	}
	if err := s.store.AppendReminder(rec); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"plan_id":  planID,
		"sequence": seq,
		"channel":  channelName,
		"cycle":    sequenceInCycle,
	}).Info("Reminder sent")
	return rec, nil
}

// SweepReminders classifies every open installment and dispatches a reminder
// for each one that is Due or Overdue and outside its cooldown. Intended for
// the nightly scheduler; cooldown and already-paid outcomes are expected and
// only counted.
func (s *Service) SweepReminders(ctx context.Context) (sent, skipped int, err error) {
	installments, err := s.store.ListAllInstallments()
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	for _, inst := range installments {
		status := emi.Classify(inst, now, s.config.DueSoonWindowDays)
		if status != models.StatusDue && status != models.StatusOverdue {
			continue
		}
		_, err := s.SendReminder(ctx, inst.PlanID, inst.SequenceNumber, s.config.ReminderChannel, "")
		switch {
		case err == nil:
			sent++
		case errors.Is(err, models.ErrReminderCooldownActive), errors.Is(err, models.ErrInstallmentAlreadyPaid):
			skipped++
			s.log.WithFields(logrus.Fields{
				"plan_id":  inst.PlanID,
				"sequence": inst.SequenceNumber,
			}).Debugf("Sweep skipped installment: %v", err)
		case errors.Is(err, models.ErrChannelDeliveryFailed):
			// No record was created; the next sweep retries
			skipped++
		default:
			return sent, skipped, err
		}
	}

	s.log.WithFields(logrus.Fields{"sent": sent, "skipped": skipped}).Info("Reminder sweep finished")
	return sent, skipped, nil
}
