package additive

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/obralog/obralog/pkg/budget"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type AmendmentDTO struct {
	ID            int        `json:"id"`
	BudgetID      int        `json:"budgetId"`
	SessionNumber int        `json:"sessionNumber"`
	ApprovedOn    *time.Time `json:"approvedOn,omitempty"`
}

type LineEntryDTO struct {
	ID            int             `json:"id"`
	ExternalCode  string          `json:"externalCode"`
	QuantityDelta decimal.Decimal `json:"quantityDelta"`
	SessionNumber int             `json:"sessionNumber,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) CreateAmendment(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new amendment")
	w.Header().Set("Content-Type", "application/json")
	budgetId, ok := pathId(w, r, "budgetId")
	if !ok {
		return
	}

	var dto AmendmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateAmendment(r.Context(), Amendment{
		BudgetID:      budgetId,
		SessionNumber: dto.SessionNumber,
	})
	if errors.Is(err, budget.ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(amendmentToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) ListAmendments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetId, ok := pathId(w, r, "budgetId")
	if !ok {
		return
	}

	amendments, err := h.service.ListAmendments(r.Context(), budgetId)
	if errors.Is(err, budget.ErrBudgetNotFound) {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]AmendmentDTO, 0, len(amendments))
	for _, a := range amendments {
		dtos = append(dtos, amendmentToDTO(a))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	amendmentId, ok := pathId(w, r, "amendmentId")
	if !ok {
		return
	}

	approved, err := h.service.Approve(r.Context(), amendmentId)
	if errors.Is(err, ErrAmendmentNotFound) {
		http.Error(w, "Amendment not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(amendmentToDTO(approved)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) AddLines(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	amendmentId, ok := pathId(w, r, "amendmentId")
	if !ok {
		return
	}

	var dtos []LineEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lines := make([]LineEntry, 0, len(dtos))
	for _, dto := range dtos {
		lines = append(lines, LineEntry{
			ExternalCode:  dto.ExternalCode,
			QuantityDelta: dto.QuantityDelta,
		})
	}

	stored, err := h.service.AddLines(r.Context(), amendmentId, lines)
	if errors.Is(err, ErrAmendmentNotFound) {
		http.Error(w, "Amendment not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	storedDtos := make([]LineEntryDTO, 0, len(stored))
	for _, line := range stored {
		storedDtos = append(storedDtos, lineToDTO(line))
	}
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(storedDtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) GetLines(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	amendmentId, ok := pathId(w, r, "amendmentId")
	if !ok {
		return
	}

	lines, err := h.service.GetLines(r.Context(), amendmentId)
	if errors.Is(err, ErrAmendmentNotFound) {
		http.Error(w, "Amendment not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]LineEntryDTO, 0, len(lines))
	for _, line := range lines {
		dtos = append(dtos, lineToDTO(line))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func pathId(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	idString := mux.Vars(r)[name]
	id, err := strconv.Atoi(idString)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func amendmentToDTO(a Amendment) AmendmentDTO {
	dto := AmendmentDTO{
		ID:            a.ID,
		BudgetID:      a.BudgetID,
		SessionNumber: a.SessionNumber,
	}
	if !a.ApprovedOn.IsZero() {
		dto.ApprovedOn = &a.ApprovedOn
	}
	return dto
}

func lineToDTO(line LineEntry) LineEntryDTO {
	return LineEntryDTO{
		ID:            line.ID,
		ExternalCode:  line.ExternalCode,
		QuantityDelta: line.QuantityDelta,
		SessionNumber: line.SessionNumber,
	}
}
