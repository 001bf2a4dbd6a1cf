// Package records maintains the all-time platform records vault.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/ironflow/internal/domain/lifts"
	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/pkg/logger"
	"github.com/okian/ironflow/pkg/metrics"
)

// ErrTournamentNotFound is returned by a TournamentSource for unknown ids.
var ErrTournamentNotFound = errors.New("tournament not found")

// SlotStore persists record slots.
type SlotStore interface {
	// CheckAndUpdate atomically creates the slot for candidate.RecordKey, or
	// overwrites it when candidate.WeightKg is strictly greater than the
	// stored weight. It reports whether the slot was created or improved.
	CheckAndUpdate(ctx context.Context, candidate model.RecordSlot) (bool, error)
}

// TournamentSource loads tournament snapshots.
type TournamentSource interface {
	Tournament(ctx context.Context, id string) (model.Tournament, error)
}

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithClock overrides the time source used when a tournament has no
// creation time.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		if now != nil {
			u.now = now
		}
	}
}

// Updater scans finished tournaments into the records vault.
type Updater struct {
	slots   SlotStore
	source  TournamentSource
	logger  logger.Logger
	now     func() time.Time
	flights singleflight.Group
}

// NewUpdater builds an Updater over the given stores.
func NewUpdater(slots SlotStore, source TournamentSource, opts ...Option) *Updater {
	u := &Updater{
		slots:  slots,
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = logger.Get().Named("records")
	}
	return u
}

// UpdateAfterTournament loads the tournament and records every improved slot.
// It returns the number of slots created or improved; an unknown tournament
// yields zero. Concurrent calls for the same tournament share one scan. The
// shared scan is detached from each caller's cancellation; a cancelled
// caller returns its context error while the scan finishes for the others.
func (u *Updater) UpdateAfterTournament(ctx context.Context, tournamentID string) (int, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := u.flights.DoChan(tournamentID, func() (any, error) {
		t, err := u.source.Tournament(flightCtx, tournamentID)
		if errors.Is(err, ErrTournamentNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("load tournament %s: %w", tournamentID, err)
		}
		return u.Scan(flightCtx, t)
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}

// Scan checks each non-withdrawn athlete with an age category against the
// vault: every best lift, plus the total for multi-discipline events.
// Callers must not scan the same tournament concurrently; use
// UpdateAfterTournament for that.
func (u *Updater) Scan(ctx context.Context, t model.Tournament) (int, error) {
	start := time.Now()
	metrics.RecordRecordsScan()

	disciplines := t.EventType.Disciplines()
	setAt := t.CreatedAt
	if setAt.IsZero() {
		setAt = u.now()
	}

	set := 0
	for _, a := range t.ActiveAthletes() {
		if a.AgeCategory == "" {
			continue
		}
		slot := model.RecordSlot{
			RecordKey: model.RecordKey{
				Gender:         a.Gender,
				AgeCategory:    a.AgeCategory,
				WeightCategory: a.CategoryName(),
			},
			Holder:         a.Name,
			AthleteID:      a.ID,
			TournamentID:   t.ID,
			TournamentName: t.Name,
			SetAt:          setAt,
		}

		for _, d := range disciplines {
			best, ok := lifts.BestLift(a.Attempts, d)
			if !ok {
				continue
			}
			slot.Lift, slot.WeightKg = d, best
			n, err := u.check(ctx, slot)
			if err != nil {
				return set, err
			}
			set += n
		}

		if len(disciplines) > 1 {
			total, ok := lifts.Total(a.Attempts, disciplines)
			if !ok || total <= 0 {
				continue
			}
			slot.Lift, slot.WeightKg = model.LiftTotal, total
			n, err := u.check(ctx, slot)
			if err != nil {
				return set, err
			}
			set += n
		}
	}

	metrics.RecordRecordsSet(set)
	u.logger.Info(ctx, "records vault updated",
		logger.String("tournament", t.ID),
		logger.Int("records_set", set),
		logger.Duration("took", time.Since(start)),
	)
	return set, nil
}

func (u *Updater) check(ctx context.Context, slot model.RecordSlot) (int, error) {
	updated, err := u.slots.CheckAndUpdate(ctx, slot)
	if err != nil {
		metrics.RecordRecordsScanError()
		return 0, fmt.Errorf("update record %s: %w", slot.RecordKey, err)
	}
	if updated {
		u.logger.Debug(ctx, "record set",
			logger.String("slot", slot.RecordKey.String()),
			logger.Float64("weight_kg", slot.WeightKg),
			logger.String("holder", slot.Holder),
		)
		return 1, nil
	}
	return 0, nil
}
