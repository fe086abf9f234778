package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/tally/internal/domain/model"
)

// SummaryDependencies defines the interface for summary reads.
type SummaryDependencies interface {
	Summary(ctx context.Context, region string, day model.EventDay, adaptive bool) ([]SummaryRow, error)
}

// SummaryHandler handles summary requests.
type SummaryHandler struct {
	deps SummaryDependencies
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies) *SummaryHandler {
	return &SummaryHandler{deps: deps}
}

type summaryResponse struct {
	Region   string       `json:"region"`
	EventDay string       `json:"event_day,omitempty"`
	Adaptive bool         `json:"adaptive"`
	Rows     []SummaryRow `json:"rows"`
}

// HandleGetSummary handles GET /summary?region=&event_day=&adaptive= requests.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	region, err := regionParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	day, err := dayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var adaptive bool
	if v := r.URL.Query().Get("adaptive"); v != "" {
		if adaptive, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
	}

	rows, err := h.deps.Summary(r.Context(), region, day, adaptive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []SummaryRow{}
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Region:   region,
		EventDay: string(day),
		Adaptive: adaptive,
		Rows:     rows,
	})
}
