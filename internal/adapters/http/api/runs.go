package api

import (
	"context"
	"net/http"
)

// RunDependencies defines the interface for triggering runs and reading their
// diagnostics.
type RunDependencies interface {
	RunRegion(ctx context.Context, region string) (RunReport, error)
	Unclassified(region string) ([]TicketRef, error)
}

// RunHandler handles run requests.
type RunHandler struct {
	deps RunDependencies
}

// NewRunHandler creates a new run handler.
func NewRunHandler(deps RunDependencies) *RunHandler {
	return &RunHandler{deps: deps}
}

// HandlePostRun handles POST /runs?region= requests. The run completes before
// the response is written.
func (h *RunHandler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	region, err := regionParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.RunRegion(r.Context(), region)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type unclassifiedResponse struct {
	Region  string      `json:"region"`
	Tickets []TicketRef `json:"tickets"`
}

// HandleGetUnclassified handles GET /unclassified?region= requests.
func (h *RunHandler) HandleGetUnclassified(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	region, err := regionParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	refs, err := h.deps.Unclassified(region)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if refs == nil {
		refs = []TicketRef{}
	}
	writeJSON(w, http.StatusOK, unclassifiedResponse{Region: region, Tickets: refs})
}
