package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/types"
)

// TournamentsDependencies defines the interface for tournament operations.
type TournamentsDependencies interface {
	PutTournament(ctx context.Context, t model.Tournament) (model.Tournament, error)
	Tournament(ctx context.Context, id string) (model.Tournament, error)
	ListTournaments(ctx context.Context) ([]model.Tournament, error)
	FinishTournament(ctx context.Context, id string) (int, error)
}

// TournamentsHandler handles tournament snapshot requests.
type TournamentsHandler struct {
	deps TournamentsDependencies
	dec  decoder
}

// NewTournamentsHandler creates a new tournaments handler.
func NewTournamentsHandler(deps TournamentsDependencies, dec decoder) *TournamentsHandler {
	return &TournamentsHandler{deps: deps, dec: dec}
}

type tournamentSummary struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	EventType model.EventType        `json:"event_type"`
	Formula   model.Formula          `json:"formula"`
	Status    model.TournamentStatus `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	Athletes  int                    `json:"athletes"`
}

// HandleList handles GET /tournaments requests.
func (h *TournamentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_tournaments"
	ts, err := h.deps.ListTournaments(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	out := make([]tournamentSummary, len(ts))
	for i, t := range ts {
		out[i] = tournamentSummary{
			ID:        t.ID,
			Name:      t.Name,
			EventType: t.EventType,
			Formula:   t.Formula,
			Status:    t.Status,
			CreatedAt: t.CreatedAt,
			Athletes:  len(t.Athletes),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePut handles PUT /tournaments/{id} requests. The path id wins over
// any id in the body.
func (h *TournamentsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_tournament"
	id := r.PathValue("id")
	t, err := h.dec.tournament(w, r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	t.ID = id
	stored, err := h.deps.PutTournament(r.Context(), t)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// HandleGet handles GET /tournaments/{id} requests.
func (h *TournamentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_tournament"
	t, err := h.deps.Tournament(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleFinish handles POST /tournaments/{id}/finish requests.
func (h *TournamentsHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	const op = "api.finish_tournament"
	id := r.PathValue("id")
	n, err := h.deps.FinishTournament(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FinishResult{TournamentID: id, RecordsSet: n})
}
