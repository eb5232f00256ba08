package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/shikshapay/emi-service/internal/config"
	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shikshapay/emi-service/internal/service"
	"github.com/sirupsen/logrus"
)

// Sender delivers reminder emails via SMTP. It implements service.Channel.
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Send delivers one installment reminder. An error here means no reminder
// record should be written.
func (s *Sender) Send(ctx context.Context, msg service.ReminderMessage) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{msg.To}
	if msg.Status == models.StatusOverdue {
		e.Subject = "Overdue Fee Installment Notification"
	} else {
		e.Subject = "Upcoming Fee Installment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", msg.StudentName)
	switch {
	case msg.Override != "":
		body += msg.Override + "\n"
	case msg.Status == models.StatusOverdue:
		body += fmt.Sprintf(
			"Your fee installment of INR %s (installment %d) was due on %s and is now overdue.\n"+
				"Please make the payment as soon as possible to keep your financing plan in good standing.\n",
			msg.Amount.StringFixed(2), msg.SequenceNumber, msg.DueDate.Format("2006-01-02"),
		)
	default:
		body += fmt.Sprintf(
			"This is a reminder that your fee installment of INR %s (installment %d) is due on %s.\n"+
				"Please ensure the payment is made by the due date.\n",
			msg.Amount.StringFixed(2), msg.SequenceNumber, msg.DueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nShikshaPay"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	done := make(chan error, 1)
	go func() { done <- e.Send(addr, auth) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			s.logger.Errorf("Failed to send email to %s: %v", msg.To, err)
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	s.logger.Infof("Email sent to %s: %s", msg.To, e.Subject)
	return nil
}
