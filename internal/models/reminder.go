package models

import (
	"time"

	"github.com/google/uuid"
)

// Reminder channels. Opaque to the engine; the channel adapter decides how to
// deliver.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelApp   = "app"
)

// ReminderRecord is one successful dispatch attempt for an installment.
// Records are append-only; the most recent record per installment is what
// operators see as "last reminder sent".
type ReminderRecord struct {
	ID              uuid.UUID `json:"id"`
	PlanID          uuid.UUID `json:"plan_id"`
	SequenceNumber  int       `json:"sequence_number"`
	SentAt          time.Time `json:"sent_at"`
	Channel         string    `json:"channel"`
	SequenceInCycle int       `json:"sequence_in_cycle"`
}
