package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ironflow/internal/domain/model"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	tournaments map[string]model.Tournament
	slots       map[model.RecordKey]model.RecordSlot
	closed      bool

	gauges gaugeUpdater
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := applyOptions(opts)
	s := &MemoryStore{
		tournaments: make(map[string]model.Tournament),
		slots:       make(map[model.RecordKey]model.RecordSlot),
	}
	s.gauges.start(ctx, s, o.gaugeInterval)
	return s
}

// PutTournament implements TournamentStore.
func (s *MemoryStore) PutTournament(ctx context.Context, t model.Tournament) error {
	defer observe("put_tournament", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.tournaments[t.ID] = cloneTournament(t)
	return nil
}

// Tournament implements TournamentStore.
func (s *MemoryStore) Tournament(ctx context.Context, id string) (model.Tournament, error) {
	defer observe("get_tournament", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Tournament{}, ErrClosed
	}
	t, ok := s.tournaments[id]
	if !ok {
		return model.Tournament{}, ErrNotFound
	}
	return cloneTournament(t), nil
}

// ListTournaments implements TournamentStore.
func (s *MemoryStore) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	defer observe("list_tournaments", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		out = append(out, cloneTournament(t))
	}
	sortTournaments(out)
	return out, nil
}

// TournamentCount implements TournamentStore.
func (s *MemoryStore) TournamentCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tournaments), nil
}

// CheckAndUpdate implements RecordStore.
func (s *MemoryStore) CheckAndUpdate(ctx context.Context, c model.RecordSlot) (bool, error) {
	defer observe("check_and_update", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	cur, ok := s.slots[c.RecordKey]
	if ok && c.WeightKg <= cur.WeightKg {
		return false, nil
	}
	if ok {
		c.ID = cur.ID
	} else {
		c.ID = uuid.NewString()
	}
	s.slots[c.RecordKey] = c
	return true, nil
}

// Records implements RecordStore.
func (s *MemoryStore) Records(ctx context.Context, filter model.RecordFilter) ([]model.RecordSlot, error) {
	defer observe("list_records", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.RecordSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		if filter.Matches(slot) {
			out = append(out, slot)
		}
	}
	model.SortRecords(out)
	return out, nil
}

// RecordCount implements RecordStore.
func (s *MemoryStore) RecordCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots), nil
}

// Close stops the gauge updater. Later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.gauges.stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// cloneTournament copies the slices a caller could mutate after Put or Get.
func cloneTournament(t model.Tournament) model.Tournament {
	athletes := make([]model.Athlete, len(t.Athletes))
	for i, a := range t.Athletes {
		a.Attempts = append([]model.Attempt(nil), a.Attempts...)
		if a.Category != nil {
			c := *a.Category
			a.Category = &c
		}
		athletes[i] = a
	}
	t.Athletes = athletes
	return t
}

func sortTournaments(ts []model.Tournament) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.Before(ts[j].CreatedAt)
		}
		return ts[i].ID < ts[j].ID
	})
}
