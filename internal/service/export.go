package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

var exportHeader = []string{"Institute", "Student Name", "Email", "Amount", "Due Date", "Status", "Last Reminder"}

// WriteCSV serializes query rows for reporting exports, one row per
// (institute, installment) pair. Due dates are ISO dates; the last reminder
// keeps its full timestamp.
func WriteCSV(w io.Writer, rows []QueryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		lastReminder := ""
		if row.LastReminderAt != nil {
			lastReminder = row.LastReminderAt.Format(time.RFC3339)
		}
		record := []string{
			row.Institute.Name,
			row.Plan.StudentName,
			row.Plan.StudentEmail,
			row.Installment.Amount.StringFixed(2),
			row.Installment.DueDate.Format("2006-01-02"),
			string(row.Status),
			lastReminder,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
