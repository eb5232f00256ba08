package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTwoInstitutes(t *testing.T, svc *Service) (zeta, alpha *models.FinancingPlan) {
	t.Helper()
	zeta, _, err := svc.CreatePlan(CreatePlanInput{
		InstituteID:   "INST-Z",
		InstituteName: "Zenith Academy",
		StudentName:   "Rohan Mehta",
		StudentEmail:  "rohan@example.com",
		Principal:     decimal.NewFromInt(12000),
		TenureMonths:  3,
		StartDate:     date(2025, time.January, 10),
	})
	require.NoError(t, err)

	alpha, _, err = svc.CreatePlan(CreatePlanInput{
		InstituteID:   "INST-A",
		InstituteName: "Aurora Public School",
		StudentName:   "Priya Nair",
		StudentEmail:  "priya@example.com",
		Principal:     decimal.NewFromInt(9000),
		TenureMonths:  3,
		StartDate:     date(2025, time.January, 20),
	})
	require.NoError(t, err)
	return zeta, alpha
}

func TestQueryInstallments_OrderingAndGrouping(t *testing.T) {
	svc := newTestService(t, &fakeChannel{})
	seedTwoInstitutes(t, svc)

	rows, err := svc.QueryInstallments(QueryFilter{}, date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, rows, 6)

	// Aurora sorts before Zenith; due dates ascend within each institute
	for i := 0; i < 3; i++ {
		assert.Equal(t, "Aurora Public School", rows[i].Institute.Name)
	}
	for i := 3; i < 6; i++ {
		assert.Equal(t, "Zenith Academy", rows[i].Institute.Name)
	}
	for i := 1; i < 3; i++ {
		assert.False(t, rows[i].Installment.DueDate.Before(rows[i-1].Installment.DueDate))
	}
}

func TestQueryInstallments_FilterDimensionsAreANDed(t *testing.T) {
	svc := newTestService(t, &fakeChannel{})
	zeta, _ := seedTwoInstitutes(t, svc)
	require.NoError(t, svc.MarkInstallmentPaid(zeta.ID, 1, date(2025, time.January, 10)))

	asOf := date(2025, time.February, 15)

	// Institute alone
	rows, err := svc.QueryInstallments(QueryFilter{InstituteID: "INST-Z"}, asOf)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// Institute AND status
	rows, err = svc.QueryInstallments(QueryFilter{InstituteID: "INST-Z", Status: models.StatusOverdue}, asOf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Installment.SequenceNumber)

	// Institute AND status AND date range with no overlap
	from := date(2025, time.March, 1)
	to := date(2025, time.March, 31)
	rows, err = svc.QueryInstallments(QueryFilter{InstituteID: "INST-Z", Status: models.StatusOverdue, From: &from, To: &to}, asOf)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestQueryInstallments_DateRangeInclusive(t *testing.T) {
	svc := newTestService(t, &fakeChannel{})
	seedTwoInstitutes(t, svc)

	from := date(2025, time.January, 20)
	to := date(2025, time.February, 10)
	rows, err := svc.QueryInstallments(QueryFilter{From: &from, To: &to}, date(2025, time.January, 1))
	require.NoError(t, err)

	// Aurora #1 (Jan 20), Zenith #2 (Feb 10)
	require.Len(t, rows, 2)
	assert.Equal(t, date(2025, time.January, 20), rows[0].Installment.DueDate)
	assert.Equal(t, date(2025, time.February, 10), rows[1].Installment.DueDate)
}

func TestQueryInstallments_CarriesLastReminder(t *testing.T) {
	ch := &fakeChannel{}
	svc := newTestService(t, ch)
	zeta, _ := seedTwoInstitutes(t, svc)

	sentAt := date(2025, time.February, 20)
	svc.now = func() time.Time { return sentAt }
	_, err := svc.SendReminder(context.Background(), zeta.ID, 1, models.ChannelEmail, "")
	require.NoError(t, err)

	rows, err := svc.QueryInstallments(QueryFilter{InstituteID: "INST-Z"}, sentAt)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.NotNil(t, rows[0].LastReminderAt)
	assert.True(t, rows[0].LastReminderAt.Equal(sentAt))
	assert.Nil(t, rows[1].LastReminderAt)
}

func TestWriteCSV(t *testing.T) {
	ch := &fakeChannel{}
	svc := newTestService(t, ch)
	zeta, _ := seedTwoInstitutes(t, svc)

	sentAt := date(2025, time.February, 20)
	svc.now = func() time.Time { return sentAt }
	_, err := svc.SendReminder(context.Background(), zeta.ID, 1, models.ChannelEmail, "")
	require.NoError(t, err)

	rows, err := svc.QueryInstallments(QueryFilter{InstituteID: "INST-Z"}, sentAt)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Institute,Student Name,Email,Amount,Due Date,Status,Last Reminder", lines[0])
	assert.Equal(t, "Zenith Academy,Rohan Mehta,rohan@example.com,4125.00,2025-01-10,Overdue,2025-02-20T00:00:00Z", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ","), "no reminder yet leaves the last column empty")
}
