// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ironflow/internal/adapters/repository"
	"github.com/okian/ironflow/internal/domain/analytics"
	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/internal/domain/ranking"
	"github.com/okian/ironflow/internal/domain/records"
	"github.com/okian/ironflow/internal/domain/types"
	"github.com/okian/ironflow/pkg/logger"
	"github.com/okian/ironflow/pkg/metrics"
)

// Ranking views.
const (
	ViewCategory = "category"
	ViewOverall  = "overall"
	ViewDivision = "division"
)

// Sentinel kinds for service errors.
var (
	ErrInvalidView = errors.New("invalid ranking view")
	ErrNotStarted  = errors.New("service not started")
)

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	updater *records.Updater

	// Configuration
	backend          string
	defaultFormula   model.Formula
	defaultEventType model.EventType
	now              func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the backing store and the backend name reported in stats.
// The service closes it on Stop.
func WithStore(store repository.Store, backend string) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.backend = backend
		}
	}
}

// WithDefaultFormula sets the formula used when a snapshot names none.
func WithDefaultFormula(f model.Formula) Option {
	return func(s *Service) {
		s.defaultFormula = f
	}
}

// WithDefaultEventType sets the event type used when a snapshot names none.
func WithDefaultEventType(e model.EventType) Option {
	return func(s *Service) {
		if e.Valid() {
			s.defaultEventType = e
		}
	}
}

// WithClock overrides the time source for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend:          repository.BackendMemory,
		defaultFormula:   model.FormulaTotal,
		defaultEventType: model.EventSBD,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the default store when none was given and wires the records
// updater.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.backend = repository.BackendMemory
	}
	s.updater = records.NewUpdater(s.store, s.store,
		records.WithLogger(s.logger.Named("records")),
		records.WithClock(s.now),
	)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "ranking service started",
		logger.String("store", s.backend),
		logger.String("default_formula", s.defaultFormula.String()),
		logger.String("default_event_type", string(s.defaultEventType)),
	)

	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "failed to close store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// DefaultFormula returns the formula applied to snapshots that name none.
func (s *Service) DefaultFormula() model.Formula {
	return s.defaultFormula
}

func (s *Service) deps() (repository.Store, *records.Updater, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.updater, nil
}

// PutTournament validates and stores a snapshot. A missing id, event type or
// creation time is filled in; the stored snapshot is returned.
func (s *Service) PutTournament(ctx context.Context, t model.Tournament) (model.Tournament, error) {
	store, _, err := s.deps()
	if err != nil {
		return model.Tournament{}, err
	}
	t = s.withDefaults(t)
	if err := t.Validate(); err != nil {
		return model.Tournament{}, err
	}
	if err := store.PutTournament(ctx, t); err != nil {
		metrics.RecordErrorByComponent("repository", "put_tournament")
		return model.Tournament{}, fmt.Errorf("store tournament %s: %w", t.ID, err)
	}
	s.logger.Debug(ctx, "tournament stored",
		logger.String("tournament", t.ID),
		logger.Int("athletes", len(t.Athletes)),
	)
	return t, nil
}

// Tournament returns a stored snapshot.
func (s *Service) Tournament(ctx context.Context, id string) (model.Tournament, error) {
	store, _, err := s.deps()
	if err != nil {
		return model.Tournament{}, err
	}
	return store.Tournament(ctx, id)
}

// ListTournaments returns every stored snapshot, oldest first.
func (s *Service) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	store, _, err := s.deps()
	if err != nil {
		return nil, err
	}
	return store.ListTournaments(ctx)
}

// Rankings computes a view over a stored tournament. A non-nil formula
// overrides the tournament's own.
func (s *Service) Rankings(ctx context.Context, id, view string, formula *model.Formula) (types.Rankings, error) {
	t, err := s.Tournament(ctx, id)
	if err != nil {
		return types.Rankings{}, err
	}
	if formula != nil {
		t.Formula = *formula
	}
	return s.compute(ctx, t, view)
}

// Compute validates and ranks a posted snapshot without storing it.
func (s *Service) Compute(ctx context.Context, t model.Tournament, view string) (types.Rankings, error) {
	t = s.withDefaults(t)
	if err := t.Validate(); err != nil {
		return types.Rankings{}, err
	}
	return s.compute(ctx, t, view)
}

// compute ranks athletes that have not withdrawn.
func (s *Service) compute(ctx context.Context, t model.Tournament, view string) (types.Rankings, error) {
	if view == "" {
		view = ViewCategory
	}
	start := time.Now()
	athletes := t.ActiveAthletes()
	out := types.Rankings{TournamentID: t.ID, View: view, Formula: t.Formula}

	var bombed int
	switch view {
	case ViewCategory:
		cats := ranking.ComputeRankings(athletes, t.EventType, t.Formula)
		for _, c := range cats {
			bombed += countBombOuts(c.Results)
		}
		out.Categories = types.FromCategories(cats)
	case ViewOverall:
		rs := ranking.ComputeOverallRankings(athletes, t.EventType, t.Formula)
		bombed = len(athletes) - len(rs)
		out.Overall = types.FromResults(rs)
	case ViewDivision:
		divs := ranking.ComputeDivisionRankings(athletes, t.EventType, t.Formula)
		for _, d := range divs {
			for _, c := range d.Categories {
				bombed += countBombOuts(c.Results)
			}
		}
		out.Divisions = types.FromDivisions(divs)
	default:
		return types.Rankings{}, fmt.Errorf("%w: %q", ErrInvalidView, view)
	}

	metrics.RecordRankingComputed(view)
	metrics.RecordRankingDuration(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordBombOuts(bombed)
	s.log().Debug(ctx, "rankings computed",
		logger.String("tournament", t.ID),
		logger.String("view", view),
		logger.String("formula", t.Formula.String()),
		logger.Int("athletes", len(athletes)),
		logger.Int("bomb_outs", bombed),
	)
	return out, nil
}

// FinishTournament marks the tournament finished and updates the records
// vault. It returns the number of record slots created or improved.
func (s *Service) FinishTournament(ctx context.Context, id string) (int, error) {
	store, updater, err := s.deps()
	if err != nil {
		return 0, err
	}
	t, err := store.Tournament(ctx, id)
	if err != nil {
		return 0, err
	}
	if !t.Finished() {
		t.Status = model.TournamentFinished
		if err := store.PutTournament(ctx, t); err != nil {
			return 0, fmt.Errorf("finish tournament %s: %w", id, err)
		}
	}
	n, err := updater.UpdateAfterTournament(ctx, id)
	if err != nil {
		metrics.RecordErrorByComponent("records", "update")
		return 0, err
	}
	return n, nil
}

// Analytics summarizes a stored tournament.
func (s *Service) Analytics(ctx context.Context, id string) (types.Analytics, error) {
	t, err := s.Tournament(ctx, id)
	if err != nil {
		return types.Analytics{}, err
	}
	return types.FromReport(t, analytics.Build(t)), nil
}

// PerformanceDeltas compares an athlete's latest best lifts with the ones
// before, across finished tournaments the athlete did not withdraw from.
// An athlete with fewer than two results in a discipline gets no delta for
// it.
func (s *Service) PerformanceDeltas(ctx context.Context, athleteID string) (types.AthleteProgress, error) {
	ts, err := s.ListTournaments(ctx)
	if err != nil {
		return types.AthleteProgress{}, err
	}
	var history []analytics.Appearance
	for _, t := range ts {
		if !t.Finished() {
			continue
		}
		for _, a := range t.Athletes {
			if a.ID != athleteID || a.Withdrawn() {
				continue
			}
			history = append(history, analytics.Appearance{
				TournamentID:   t.ID,
				TournamentName: t.Name,
				EventType:      t.EventType,
				At:             t.CreatedAt,
				Attempts:       a.Attempts,
			})
			break
		}
	}
	return types.FromDeltas(athleteID, analytics.Deltas(history)), nil
}

// Reconcile rescans every finished tournament into the records vault. Slots
// already holding the best lift are left alone, so it returns the number of
// slots a previous finish failed to write.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	store, updater, err := s.deps()
	if err != nil {
		return 0, err
	}
	ts, err := store.ListTournaments(ctx)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	scanned, set := 0, 0
	for _, t := range ts {
		if !t.Finished() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return set, err
		}
		n, err := updater.UpdateAfterTournament(ctx, t.ID)
		if err != nil {
			metrics.RecordErrorByComponent("records", "reconcile")
			return set, err
		}
		scanned++
		set += n
	}

	s.logger.Info(ctx, "records reconciled",
		logger.Int("tournaments", scanned),
		logger.Int("records_set", set),
		logger.Duration("took", time.Since(start)),
	)
	return set, nil
}

// Records lists the record slots matching filter.
func (s *Service) Records(ctx context.Context, filter model.RecordFilter) ([]types.Record, error) {
	store, _, err := s.deps()
	if err != nil {
		return nil, err
	}
	slots, err := store.Records(ctx, filter)
	if err != nil {
		return nil, err
	}
	return types.FromRecords(slots), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		StoreBackend:   s.backend,
		DefaultFormula: s.defaultFormula.String(),
	}
	if !s.started {
		return stats, nil
	}

	var err error
	if stats.Tournaments, err = s.store.TournamentCount(ctx); err != nil {
		return stats, err
	}
	if stats.Records, err = s.store.RecordCount(ctx); err != nil {
		return stats, err
	}
	stats.UptimeSeconds = s.now().Sub(s.startedAt).Seconds()

	metrics.UpdateTournamentsTotal(stats.Tournaments)
	metrics.UpdateRecordsTotal(stats.Records)
	return stats, nil
}

func (s *Service) withDefaults(t model.Tournament) model.Tournament {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EventType == "" {
		t.EventType = s.defaultEventType
	}
	if t.Status == "" {
		t.Status = model.TournamentDraft
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	return t.AssignCategories()
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

func countBombOuts(rs []ranking.Result) int {
	n := 0
	for _, r := range rs {
		if !r.Valid() {
			n++
		}
	}
	return n
}
