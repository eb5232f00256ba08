package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shikshapay/emi-service/internal/models"
	"github.com/shikshapay/emi-service/internal/service"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type createPlanRequest struct {
	InstituteID   string           `json:"institute_id"`
	InstituteName string           `json:"institute_name"`
	StudentName   string           `json:"student_name"`
	StudentEmail  string           `json:"student_email"`
	Principal     decimal.Decimal  `json:"principal"`
	AnnualRatePct *decimal.Decimal `json:"annual_interest_rate_pct,omitempty"`
	TenureMonths  int              `json:"tenure_months"`
	StartDate     string           `json:"start_date"`
}

// CreatePlan handles plan creation and returns the generated schedule
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("start_date must be %s: %w", dateLayout, err))
		return
	}

	plan, installments, err := h.svc.CreatePlan(service.CreatePlanInput{
		InstituteID:   req.InstituteID,
		InstituteName: req.InstituteName,
		StudentName:   req.StudentName,
		StudentEmail:  req.StudentEmail,
		Principal:     req.Principal,
		AnnualRatePct: req.AnnualRatePct,
		TenureMonths:  req.TenureMonths,
		StartDate:     startDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"plan":     plan,
		"schedule": installments,
	})
}

// GetSchedule returns the schedule view plus ledger summary for a plan
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(mux.Vars(r)["planID"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid plan id: %w", err))
		return
	}
	asOf := time.Now()
	if v := r.URL.Query().Get("asOf"); v != "" {
		asOf, err = time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("asOf must be %s: %w", dateLayout, err))
			return
		}
	}

	entries, summary, err := h.svc.GetScheduleView(planID, asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schedule": entries,
		"summary":  summary,
	})
}

type confirmPaymentRequest struct {
	PaidDate string `json:"paid_date,omitempty"`
}

// ConfirmPayment records the external payment confirmation for an installment
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	planID, seq, ok := installmentVars(w, r)
	if !ok {
		return
	}
	var req confirmPaymentRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	paidDate := time.Now()
	if req.PaidDate != "" {
		var err error
		paidDate, err = time.Parse(dateLayout, req.PaidDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("paid_date must be %s: %w", dateLayout, err))
			return
		}
	}

	if err := h.svc.MarkInstallmentPaid(planID, seq, paidDate); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type sendReminderRequest struct {
	Channel         string `json:"channel,omitempty"`
	MessageOverride string `json:"message_override,omitempty"`
}

// SendReminder triggers one reminder dispatch for an installment
func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	planID, seq, ok := installmentVars(w, r)
	if !ok {
		return
	}
	var req sendReminderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	rec, err := h.svc.SendReminder(r.Context(), planID, seq, req.Channel, req.MessageOverride)
	if errors.Is(err, models.ErrInstallmentAlreadyPaid) {
		// The desired end state already holds; confirm rather than fail
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "installment already paid, no reminder needed",
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":            true,
		"reminder_record_id": rec.ID,
		"sequence_in_cycle":  rec.SequenceInCycle,
		"sent_at":            rec.SentAt,
	})
}

// QueryInstallments serves the filtered installment rows as JSON
func (h *Handler) QueryInstallments(w http.ResponseWriter, r *http.Request) {
	filter, asOf, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows, err := h.svc.QueryInstallments(filter, asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows, "count": len(rows)})
}

// ExportInstallments serves the same filtered rows as a CSV attachment
func (h *Handler) ExportInstallments(w http.ResponseWriter, r *http.Request) {
	filter, asOf, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows, err := h.svc.QueryInstallments(filter, asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="installments.csv"`)
	if err := service.WriteCSV(w, rows); err != nil {
		writeError(w, http.StatusInternalServerError, err)
	}
}

func parseFilter(r *http.Request) (service.QueryFilter, time.Time, error) {
	q := r.URL.Query()
	filter := service.QueryFilter{
		InstituteID: q.Get("institute"),
		Status:      models.InstallmentStatus(q.Get("status")),
	}
	if filter.Status != "" {
		switch filter.Status {
		case models.StatusPaid, models.StatusOverdue, models.StatusDue, models.StatusUpcoming:
		default:
			return filter, time.Time{}, fmt.Errorf("unknown status %q", filter.Status)
		}
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return filter, time.Time{}, fmt.Errorf("%s must be %s: %w", key, dateLayout, err)
			}
			*dst = &t
		}
	}
	asOf := time.Now()
	if v := q.Get("asOf"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, time.Time{}, fmt.Errorf("asOf must be %s: %w", dateLayout, err)
		}
		asOf = t
	}
	return filter, asOf, nil
}

func installmentVars(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, bool) {
	vars := mux.Vars(r)
	planID, err := uuid.Parse(vars["planID"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid plan id: %w", err))
		return uuid.Nil, 0, false
	}
	seq, err := strconv.Atoi(vars["seq"])
	if err != nil || seq < 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid sequence number %q", vars["seq"]))
		return uuid.Nil, 0, false
	}
	return planID, seq, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidPlanParameters):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, models.ErrPlanNotFound), errors.Is(err, models.ErrInstallmentNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, models.ErrReminderCooldownActive):
		writeError(w, http.StatusTooManyRequests, err)
	case errors.Is(err, models.ErrInstallmentAlreadyPaid):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, models.ErrChannelDeliveryFailed):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
