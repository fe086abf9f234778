package api

import (
	"context"
	"net/http"

	"github.com/okian/tally/internal/domain/model"
)

// AgeGroupDependencies defines the interface for age bucket reads.
type AgeGroupDependencies interface {
	AgeGroups(ctx context.Context, region string, category model.Category, day model.EventDay) ([]AgeGroup, error)
}

// AgeGroupHandler handles age group requests.
type AgeGroupHandler struct {
	deps AgeGroupDependencies
}

// NewAgeGroupHandler creates a new age group handler.
func NewAgeGroupHandler(deps AgeGroupDependencies) *AgeGroupHandler {
	return &AgeGroupHandler{deps: deps}
}

type ageGroupResponse struct {
	Region    string     `json:"region"`
	Category  string     `json:"category,omitempty"`
	EventDay  string     `json:"event_day,omitempty"`
	AgeGroups []AgeGroup `json:"age_groups"`
}

// HandleGetAgeGroups handles GET /age-groups?region=&category=&event_day= requests.
func (h *AgeGroupHandler) HandleGetAgeGroups(w http.ResponseWriter, r *http.Request) {
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
	var category model.Category
	if v := r.URL.Query().Get("category"); v != "" {
		if category, err = model.ParseCategory(v); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
	}

	groups, err := h.deps.AgeGroups(r.Context(), region, category, day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if groups == nil {
		groups = []AgeGroup{}
	}
	writeJSON(w, http.StatusOK, ageGroupResponse{
		Region:    region,
		Category:  string(category),
		EventDay:  string(day),
		AgeGroups: groups,
	})
}
