package api

import (
	"context"
	"net/http"

	"github.com/okian/ironflow/internal/domain/types"
)

// AnalyticsDependencies defines the interface for competition analytics.
type AnalyticsDependencies interface {
	Analytics(ctx context.Context, id string) (types.Analytics, error)
	PerformanceDeltas(ctx context.Context, athleteID string) (types.AthleteProgress, error)
}

// AnalyticsHandler handles analytics and athlete progress requests.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleTournament handles GET /tournaments/{id}/analytics requests.
func (h *AnalyticsHandler) HandleTournament(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Analytics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.tournament_analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleProgress handles GET /athletes/{id}/progress requests.
func (h *AnalyticsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.deps.PerformanceDeltas(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.athlete_progress", err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
