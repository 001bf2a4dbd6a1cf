package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/pkg/logger"
)

// Bucket names.
const (
	tournamentsBucket = "tournaments"
	recordsBucket     = "records"
)

// BoltStore persists tournaments and records in a bbolt file, one JSON value
// per key.
type BoltStore struct {
	db     *bbolt.DB
	gauges gaugeUpdater
}

// NewBoltStore opens (or creates) the database file and its buckets.
func NewBoltStore(ctx context.Context, opts ...Option) (*BoltStore, error) {
	o := applyOptions(opts)

	dir := filepath.Dir(o.boltPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(o.boltPath, 0o600, &bbolt.Options{Timeout: o.boltTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt at %s: %w", o.boltPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{tournamentsBucket, recordsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	logger.Get().Info(ctx, "bolt store opened", logger.String("path", o.boltPath))
	s := &BoltStore{db: db}
	s.gauges.start(ctx, s, o.gaugeInterval)
	return s, nil
}

// PutTournament implements TournamentStore.
func (s *BoltStore) PutTournament(ctx context.Context, t model.Tournament) error {
	defer observe("put_tournament", time.Now())

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tournament %s: %w", t.ID, err)
	}
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(tournamentsBucket)).Put([]byte(t.ID), data)
	})
}

// Tournament implements TournamentStore.
func (s *BoltStore) Tournament(ctx context.Context, id string) (model.Tournament, error) {
	defer observe("get_tournament", time.Now())

	var t model.Tournament
	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(tournamentsBucket)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return model.Tournament{}, err
	}
	return t, nil
}

// ListTournaments implements TournamentStore.
func (s *BoltStore) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	defer observe("list_tournaments", time.Now())

	var out []model.Tournament
	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(tournamentsBucket)).ForEach(func(k, v []byte) error {
			var t model.Tournament
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decode tournament %s: %w", k, err)
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortTournaments(out)
	return out, nil
}

// TournamentCount implements TournamentStore.
func (s *BoltStore) TournamentCount(ctx context.Context) (int, error) {
	return s.count(tournamentsBucket)
}

// CheckAndUpdate implements RecordStore. The compare and the write share one
// read-write transaction, which bbolt serializes.
func (s *BoltStore) CheckAndUpdate(ctx context.Context, c model.RecordSlot) (bool, error) {
	defer observe("check_and_update", time.Now())

	key := []byte(c.RecordKey.String())
	updated := false
	err := s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(recordsBucket))
		c.ID = uuid.NewString()
		if data := b.Get(key); data != nil {
			var cur model.RecordSlot
			if err := json.Unmarshal(data, &cur); err != nil {
				return fmt.Errorf("decode record %s: %w", key, err)
			}
			if c.WeightKg <= cur.WeightKg {
				return nil
			}
			c.ID = cur.ID
		}
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", key, err)
		}
		updated = true
		return b.Put(key, data)
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// Records implements RecordStore.
func (s *BoltStore) Records(ctx context.Context, filter model.RecordFilter) ([]model.RecordSlot, error) {
	defer observe("list_records", time.Now())

	out := []model.RecordSlot{}
	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(recordsBucket)).ForEach(func(k, v []byte) error {
			var slot model.RecordSlot
			if err := json.Unmarshal(v, &slot); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			if filter.Matches(slot) {
				out = append(out, slot)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	model.SortRecords(out)
	return out, nil
}

// RecordCount implements RecordStore.
func (s *BoltStore) RecordCount(ctx context.Context) (int, error) {
	return s.count(recordsBucket)
}

// Close stops the gauge updater and closes the database file.
func (s *BoltStore) Close() error {
	s.gauges.stop()
	return s.db.Close()
}

func (s *BoltStore) count(bucket string) (int, error) {
	n := 0
	err := s.view(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(bucket)).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) view(fn func(*bbolt.Tx) error) error {
	return translateBolt(s.db.View(fn))
}

func (s *BoltStore) update(fn func(*bbolt.Tx) error) error {
	return translateBolt(s.db.Update(fn))
}

func translateBolt(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}
