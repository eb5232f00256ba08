package models

// InstallmentStatus is derived from (installment, today) on every read and
// never persisted.
type InstallmentStatus string

const (
	StatusPaid     InstallmentStatus = "Paid"
	StatusOverdue  InstallmentStatus = "Overdue"
	StatusDue      InstallmentStatus = "Due"
	StatusUpcoming InstallmentStatus = "Upcoming"
)

// PlanStatus rolls the installment statuses up to the plan level.
type PlanStatus string

const (
	PlanCompleted  PlanStatus = "Completed"
	PlanDelinquent PlanStatus = "Delinquent"
	PlanCurrent    PlanStatus = "Current"
)
