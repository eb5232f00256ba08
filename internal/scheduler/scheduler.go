package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shikshapay/emi-service/internal/service"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the nightly reminder sweep on a cron cadence.
type Scheduler struct {
	svc  *service.Service
	log  *logrus.Logger
	cron *cron.Cron
}

// New creates a scheduler around the given service.
func New(svc *service.Service, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		svc:  svc,
		log:  log,
		cron: cron.New(),
	}
}

// Start registers the sweep job and starts the cron loop. Spec uses the
// standard 5-field cron format.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.runSweep)
	if err != nil {
		return fmt.Errorf("invalid reminder cron spec %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.Infof("Reminder scheduler started with spec %q", spec)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sent, skipped, err := s.svc.SweepReminders(ctx)
	if err != nil {
		s.log.Errorf("Reminder sweep failed: %v", err)
		return
	}
	s.log.WithFields(logrus.Fields{"sent": sent, "skipped": skipped}).Info("Nightly reminder sweep completed")
}
