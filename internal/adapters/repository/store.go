// Package repository persists tournament snapshots and the platform records vault.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/ironflow/internal/domain/model"
)

// Backends accepted by Open.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// TournamentStore keeps the latest snapshot of every tournament.
type TournamentStore interface {
	// PutTournament inserts or replaces the snapshot with the same ID.
	PutTournament(ctx context.Context, t model.Tournament) error
	// Tournament returns ErrNotFound for unknown ids.
	Tournament(ctx context.Context, id string) (model.Tournament, error)
	// ListTournaments returns all snapshots, oldest first.
	ListTournaments(ctx context.Context) ([]model.Tournament, error)
	TournamentCount(ctx context.Context) (int, error)
}

// RecordStore holds one record slot per RecordKey.
type RecordStore interface {
	// CheckAndUpdate atomically creates the slot or overwrites it when the
	// candidate weight is strictly greater. It reports whether it wrote.
	CheckAndUpdate(ctx context.Context, candidate model.RecordSlot) (bool, error)
	// Records returns the slots matching filter in SortRecords order.
	Records(ctx context.Context, filter model.RecordFilter) ([]model.RecordSlot, error)
	RecordCount(ctx context.Context) (int, error)
}

// Store combines both concerns behind one backend.
type Store interface {
	TournamentStore
	RecordStore
	Close() error
}

// Open builds the store for backend.
func Open(ctx context.Context, backend string, opts ...Option) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(ctx, opts...), nil
	case BackendBolt:
		return NewBoltStore(ctx, opts...)
	case BackendPostgres:
		return NewPostgresStore(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, backend)
	}
}
