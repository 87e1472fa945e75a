package progress

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/obralog/obralog/pkg/report"
)

type Handler struct {
	service  Service
	renderer Renderer
}

func NewHandler(service Service, renderer Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// GetProgress serves the projected progress view of a report. Clients asking
// for text/csv get a flat spreadsheet-friendly rendition instead of JSON.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	reportUid := mux.Vars(r)["reportUid"]

	view, err := h.service.GetView(r.Context(), reportUid)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		rendered, err := h.renderer.RenderView(view)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := w.Write([]byte(rendered)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
