package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/obralog/obralog/pkg/budget"
	log "github.com/sirupsen/logrus"
)

type ReportDTO struct {
	Uid        string `json:"uid,omitempty"`
	BudgetID   int    `json:"budgetId"`
	ReportDate string `json:"reportDate,omitempty"`
	Status     string `json:"status,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new daily report")
	w.Header().Set("Content-Type", "application/json")
	budgetIdString := mux.Vars(r)["budgetId"]
	budgetId, err := strconv.Atoi(budgetIdString)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var dto ReportDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report := Report{BudgetID: budgetId, Notes: dto.Notes}
	if dto.ReportDate != "" {
		reportDate, err := time.Parse("2006-01-02", dto.ReportDate)
		if err != nil {
			http.Error(w, "invalid report date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		report.ReportDate = reportDate
	}

	created, err := h.service.Create(r.Context(), report)
	if errors.Is(err, budget.ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(reportToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetIdString := mux.Vars(r)["budgetId"]
	budgetId, err := strconv.Atoi(budgetIdString)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reports, err := h.service.ListForBudget(r.Context(), budgetId)
	if errors.Is(err, budget.ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]ReportDTO, 0, len(reports))
	for _, rep := range reports {
		dtos = append(dtos, reportToDTO(rep))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	uid := mux.Vars(r)["reportUid"]

	report, err := h.service.Get(r.Context(), uid)
	if errors.Is(err, ErrReportNotFound) {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reportToDTO(report)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	uid := mux.Vars(r)["reportUid"]

	var dto struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var updated Report
	var err error
	switch Status(dto.Status) {
	case StatusApproved:
		updated, err = h.service.Approve(r.Context(), uid)
	case StatusDraft:
		updated, err = h.service.Reopen(r.Context(), uid)
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if errors.Is(err, ErrReportNotFound) {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reportToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	uid := mux.Vars(r)["reportUid"]

	deleted, err := h.service.Delete(r.Context(), uid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func reportToDTO(r Report) ReportDTO {
	return ReportDTO{
		Uid:        r.Uid,
		BudgetID:   r.BudgetID,
		ReportDate: r.ReportDate.Format("2006-01-02"),
		Status:     string(r.Status),
		Notes:      r.Notes,
	}
}
