// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/ironflow/internal/adapters/repository"
	service "github.com/okian/ironflow/internal/app"
	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/types"
	"github.com/okian/ironflow/pkg/logger"
)

const defaultMaxRequestBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Tournament snapshots.
	PutTournament(ctx context.Context, t model.Tournament) (model.Tournament, error)
	Tournament(ctx context.Context, id string) (model.Tournament, error)
	ListTournaments(ctx context.Context) ([]model.Tournament, error)
	FinishTournament(ctx context.Context, id string) (int, error)

	// Read operations expose rankings and records.
	Rankings(ctx context.Context, id, view string, formula *model.Formula) (types.Rankings, error)
	Compute(ctx context.Context, t model.Tournament, view string) (types.Rankings, error)
	Records(ctx context.Context, filter model.RecordFilter) ([]types.Record, error)
	Reconcile(ctx context.Context) (int, error)

	// Competition analytics and athlete progress.
	Analytics(ctx context.Context, id string) (types.Analytics, error)
	PerformanceDeltas(ctx context.Context, athleteID string) (types.AthleteProgress, error)

	// DefaultFormula is applied to posted snapshots that name none.
	DefaultFormula() model.Formula
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	tournamentsHandler *TournamentsHandler
	rankingsHandler    *RankingsHandler
	recordsHandler     *RecordsHandler
	analyticsHandler   *AnalyticsHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxRequestBytes int64
	logger          logger.Logger
}

// WithMaxRequestBytes caps the size of request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxRequestBytes = n
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxRequestBytes: defaultMaxRequestBytes}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	dec := decoder{maxBytes: o.maxRequestBytes, defaultFormula: deps.DefaultFormula, log: o.logger}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		tournamentsHandler: NewTournamentsHandler(deps, dec),
		rankingsHandler:    NewRankingsHandler(deps, dec),
		recordsHandler:     NewRecordsHandler(deps),
		analyticsHandler:   NewAnalyticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /tournaments", MetricsMiddleware(s.tournamentsHandler.HandleList, "tournaments"))
	mux.HandleFunc("PUT /tournaments/{id}", MetricsMiddleware(s.tournamentsHandler.HandlePut, "tournament"))
	mux.HandleFunc("GET /tournaments/{id}", MetricsMiddleware(s.tournamentsHandler.HandleGet, "tournament"))
	mux.HandleFunc("POST /tournaments/{id}/finish", MetricsMiddleware(s.tournamentsHandler.HandleFinish, "finish"))
	mux.HandleFunc("GET /tournaments/{id}/rankings", MetricsMiddleware(s.rankingsHandler.HandleTournamentRankings, "tournament_rankings"))
	mux.HandleFunc("GET /tournaments/{id}/analytics", MetricsMiddleware(s.analyticsHandler.HandleTournament, "tournament_analytics"))
	mux.HandleFunc("GET /athletes/{id}/progress", MetricsMiddleware(s.analyticsHandler.HandleProgress, "athlete_progress"))

	mux.HandleFunc("POST /rankings", MetricsMiddleware(s.rankingsHandler.HandleCompute, "rankings"))
	mux.HandleFunc("GET /records", MetricsMiddleware(s.recordsHandler.HandleList, "records"))
	mux.HandleFunc("POST /records/reconcile", MetricsMiddleware(s.recordsHandler.HandleReconcile, "reconcile"))
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

// writeFailure translates upstream errors to a status and code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err)
	case isBadRequest(err):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func isBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, service.ErrInvalidView) ||
		errors.Is(err, model.ErrInvalidTournament) ||
		errors.Is(err, model.ErrInvalidAthlete) ||
		errors.Is(err, model.ErrInvalidCategory) ||
		errors.Is(err, model.ErrInvalidAttempt)
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
