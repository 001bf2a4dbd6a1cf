package repository

import (
	"errors"

	"github.com/okian/ironflow/internal/domain/records"
)

// Sentinel kinds for store errors.
var (
	// ErrNotFound is shared with the records updater so an unknown
	// tournament is recognized across layers.
	ErrNotFound       = records.ErrTournamentNotFound
	ErrClosed         = errors.New("store closed")
	ErrInvalidBackend = errors.New("invalid store backend")
	ErrMissingDSN     = errors.New("postgres dsn is required")
)
