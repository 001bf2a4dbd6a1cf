package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/types"
)

// RecordsDependencies defines the interface for records queries.
type RecordsDependencies interface {
	Records(ctx context.Context, filter model.RecordFilter) ([]types.Record, error)
	Reconcile(ctx context.Context) (int, error)
}

// RecordsHandler handles records requests.
type RecordsHandler struct {
	deps RecordsDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordsDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleList handles GET /records?gender=&age_category=&weight_category=&lift=
// requests.
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_records"
	filter, err := parseRecordFilter(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	recs, err := h.deps.Records(r.Context(), filter)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleReconcile handles POST /records/reconcile requests by rescanning
// every finished tournament.
func (h *RecordsHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.Reconcile(r.Context())
	if err != nil {
		writeFailure(w, "api.reconcile_records", err)
		return
	}
	writeJSON(w, http.StatusOK, types.ReconcileResult{RecordsSet: n})
}

func parseRecordFilter(r *http.Request) (model.RecordFilter, error) {
	q := r.URL.Query()
	f := model.RecordFilter{
		Gender:         model.Gender(q.Get("gender")),
		AgeCategory:    model.AgeCategory(q.Get("age_category")),
		WeightCategory: q.Get("weight_category"),
		Lift:           model.Discipline(q.Get("lift")),
	}
	switch {
	case f.Gender != "" && !f.Gender.Valid():
		return f, fmt.Errorf("%w: unknown gender %q", ErrBadRequest, f.Gender)
	case f.AgeCategory != "" && !f.AgeCategory.Valid():
		return f, fmt.Errorf("%w: unknown age category %q", ErrBadRequest, f.AgeCategory)
	case f.Lift != "" && !f.Lift.IsLift() && f.Lift != model.LiftTotal:
		return f, fmt.Errorf("%w: unknown lift %q", ErrBadRequest, f.Lift)
	}
	return f, nil
}
