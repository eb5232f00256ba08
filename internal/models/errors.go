package models

import "errors"

var (
	// ErrInvalidPlanParameters means plan creation input violated a hard
	// constraint (non-positive principal/tenure, negative rate). Not retried.
	ErrInvalidPlanParameters = errors.New("invalid plan parameters")

	// ErrReminderCooldownActive means a reminder was requested before the
	// cooldown window elapsed. The caller may retry after it.
	ErrReminderCooldownActive = errors.New("reminder cooldown active")

	// ErrInstallmentAlreadyPaid means a reminder or payment confirmation
	// targeted an installment that is already settled.
	ErrInstallmentAlreadyPaid = errors.New("installment already paid")

	// ErrChannelDeliveryFailed means the underlying send collaborator failed.
	// No ReminderRecord is created, so a retry stays eligible.
	ErrChannelDeliveryFailed = errors.New("channel delivery failed")

	ErrPlanNotFound        = errors.New("plan not found")
	ErrInstallmentNotFound = errors.New("installment not found")
)
