package execution

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/obralog/obralog/pkg/budget"
	"github.com/obralog/obralog/pkg/report"
)

type Handler struct {
	service       Service
	reportService report.Service
	queue         *PendingWriteQueue
}

func NewHandler(service Service, reportService report.Service, queue *PendingWriteQueue) *Handler {
	return &Handler{service: service, reportService: reportService, queue: queue}
}

type setExecutedRequest struct {
	ExecutedToday decimal.Decimal `json:"executedToday"`
}

type derivedStateDTO struct {
	AccumulatedExecution decimal.Decimal `json:"accumulatedExecution"`
	ExecutedToday        decimal.Decimal `json:"executedToday"`
	TotalExecuted        decimal.Decimal `json:"totalExecuted"`
	AdjustedQuantity     decimal.Decimal `json:"adjustedQuantity"`
	AvailableBalance     decimal.Decimal `json:"availableBalance"`
	PercentExecuted      int             `json:"percentExecuted"`
	ExceedsLimit         bool            `json:"exceedsLimit"`
}

type setExecutedResponse struct {
	State   derivedStateDTO `json:"state"`
	Clamped bool            `json:"clamped"`
	Warning string          `json:"warning,omitempty"`
}

func stateToDTO(state DerivedState) derivedStateDTO {
	return derivedStateDTO{
		AccumulatedExecution: state.AccumulatedExecution,
		ExecutedToday:        state.ExecutedToday,
		TotalExecuted:        state.TotalExecuted,
		AdjustedQuantity:     state.AdjustedQuantity,
		AvailableBalance:     state.AvailableBalance,
		PercentExecuted:      state.PercentExecuted,
		ExceedsLimit:         state.ExceedsLimit,
	}
}

func (h *Handler) SetExecutedToday(w http.ResponseWriter, r *http.Request) {
	reportUid := mux.Vars(r)["reportUid"]
	itemId, err := pathItemId(r)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	rep, err := h.reportService.Get(r.Context(), reportUid)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rep.IsApproved() {
		http.Error(w, ErrReportApproved.Error(), http.StatusConflict)
		return
	}

	var request setExecutedRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	result, err := h.service.SetExecutedToday(r.Context(), reportUid, itemId, request.ExecutedToday)
	if err != nil {
		switch {
		case errors.Is(err, ErrNegativeQuantity), errors.Is(err, ErrMacroItem), errors.Is(err, ErrItemNotInBudget):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, budget.ErrItemNotFound):
			http.Error(w, "Budget item not found", http.StatusNotFound)
		default:
			log.Errorf("Error recording execution: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	response := setExecutedResponse{State: stateToDTO(result.State)}
	if result.Warning != nil {
		response.Clamped = true
		response.Warning = result.Warning.Message()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// EnqueueExecutedToday accepts the value without writing it immediately: the
// pending queue coalesces bursts of edits and flushes once input goes quiet.
func (h *Handler) EnqueueExecutedToday(w http.ResponseWriter, r *http.Request) {
	reportUid := mux.Vars(r)["reportUid"]
	itemId, err := pathItemId(r)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	rep, err := h.reportService.Get(r.Context(), reportUid)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rep.IsApproved() {
		http.Error(w, ErrReportApproved.Error(), http.StatusConflict)
		return
	}

	var request setExecutedRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if request.ExecutedToday.IsNegative() {
		http.Error(w, ErrNegativeQuantity.Error(), http.StatusBadRequest)
		return
	}

	h.queue.Enqueue(reportUid, itemId, request.ExecutedToday)
	w.WriteHeader(http.StatusAccepted)
}

// FlushPending forces the queue to apply everything it holds right away.
func (h *Handler) FlushPending(w http.ResponseWriter, r *http.Request) {
	results := h.queue.FlushAll(r.Context())
	flushed := 0
	for _, result := range results {
		if result.Err == nil {
			flushed++
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]int{"flushed": flushed, "failed": len(results) - flushed}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) GetDerivedState(w http.ResponseWriter, r *http.Request) {
	reportUid := mux.Vars(r)["reportUid"]
	itemId, err := pathItemId(r)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	state, err := h.service.ReadDerivedState(r.Context(), reportUid, itemId)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrReportNotFound), errors.Is(err, budget.ErrItemNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrItemNotInBudget):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stateToDTO(state)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func pathItemId(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["itemId"])
}
