// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/tally/internal/adapters/source"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service.
type Dependencies interface {
	SummaryDependencies
	AgeGroupDependencies
	RunDependencies
}

// Server wires HTTP routes for the reporting API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	summaryHandler  *SummaryHandler
	ageGroupHandler *AgeGroupHandler
	runHandler      *RunHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		summaryHandler:  NewSummaryHandler(deps),
		ageGroupHandler: NewAgeGroupHandler(deps),
		runHandler:      NewRunHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/age-groups", MetricsMiddleware(s.ageGroupHandler.HandleGetAgeGroups, "age_groups"))
	mux.HandleFunc("/unclassified", MetricsMiddleware(s.runHandler.HandleGetUnclassified, "unclassified"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runHandler.HandlePostRun, "runs"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownRegion), errors.Is(err, source.ErrUnknownRegion):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNoRun):
		writeError(w, http.StatusNotFound, "no_run", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// regionParam returns the required region query parameter.
func regionParam(r *http.Request) (string, error) {
	region := r.URL.Query().Get("region")
	if region == "" {
		return "", ErrMissingRegion
	}
	return region, nil
}

// dayParam parses the optional event_day query parameter. Blank matches
// every day.
func dayParam(r *http.Request) (model.EventDay, error) {
	v := r.URL.Query().Get("event_day")
	if v == "" {
		return "", nil
	}
	return model.ParseDay(v)
}

// Entry shapes returned by the handlers.
type (
	SummaryRow = types.SummaryRow
	AgeGroup   = types.AgeGroup
	TicketRef  = types.TicketRef
	RunReport  = types.RunReport
)
