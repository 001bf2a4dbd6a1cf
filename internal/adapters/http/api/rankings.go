package api

import (
	"context"
	"net/http"

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/types"
)

// RankingsDependencies defines the interface for ranking operations.
type RankingsDependencies interface {
	Rankings(ctx context.Context, id, view string, formula *model.Formula) (types.Rankings, error)
	Compute(ctx context.Context, t model.Tournament, view string) (types.Rankings, error)
}

// RankingsHandler handles ranking requests.
type RankingsHandler struct {
	deps RankingsDependencies
	dec  decoder
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies, dec decoder) *RankingsHandler {
	return &RankingsHandler{deps: deps, dec: dec}
}

// HandleTournamentRankings handles GET /tournaments/{id}/rankings?view=&formula=
// requests.
func (h *RankingsHandler) HandleTournamentRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.tournament_rankings"
	res, err := h.deps.Rankings(r.Context(), r.PathValue("id"), r.URL.Query().Get("view"), h.dec.queryFormula(r))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCompute handles POST /rankings?view= requests over a posted snapshot.
func (h *RankingsHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.compute_rankings"
	t, err := h.dec.tournament(w, r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	res, err := h.deps.Compute(r.Context(), t, r.URL.Query().Get("view"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
