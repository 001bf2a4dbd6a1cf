package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver

	"github.com/okian/ironflow/internal/domain/model"
	"github.com/okian/ironflow/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS tournaments (
    id         TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    payload    JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS platform_records (
    id                   UUID PRIMARY KEY,
    lift_type            TEXT NOT NULL,
    gender               TEXT NOT NULL,
    age_category         TEXT NOT NULL,
    weight_category_name TEXT NOT NULL,
    weight_kg            DOUBLE PRECISION NOT NULL,
    holder               TEXT NOT NULL,
    athlete_id           TEXT NOT NULL DEFAULT '',
    tournament_id        TEXT NOT NULL,
    tournament_name      TEXT NOT NULL DEFAULT '',
    set_at               TIMESTAMPTZ NOT NULL,
    UNIQUE (lift_type, gender, age_category, weight_category_name)
);`

// PostgresStore persists tournaments as JSONB snapshots and records as rows
// keyed by a unique slot constraint.
type PostgresStore struct {
	db     *sql.DB
	closed atomic.Bool
	gauges gaugeUpdater
}

// Connect opens a pooled handle and verifies it within timeout.
func Connect(ctx context.Context, dsn string, timeout time.Duration, maxOpen int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("create database handle: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Get().Warn(ctx, "close database handle after ping error", logger.Error(closeErr))
		}
		return nil, fmt.Errorf("ping database within %v: %w", timeout, err)
	}
	return db, nil
}

// NewPostgresStore connects, ensures the schema exists and starts the gauge
// updater.
func NewPostgresStore(ctx context.Context, opts ...Option) (*PostgresStore, error) {
	o := applyOptions(opts)
	if o.dsn == "" {
		return nil, ErrMissingDSN
	}
	db, err := Connect(ctx, o.dsn, o.connectTimeout, o.maxOpenConns)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Get().Info(ctx, "postgres store connected", logger.Int("max_open_conns", o.maxOpenConns))
	s.gauges.start(ctx, s, o.gaugeInterval)
	return s, nil
}

// EnsureSchema creates the tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutTournament implements TournamentStore.
func (s *PostgresStore) PutTournament(ctx context.Context, t model.Tournament) error {
	defer observe("put_tournament", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tournament %s: %w", t.ID, err)
	}
	query := `INSERT INTO tournaments (id, created_at, payload)
              VALUES ($1, $2, $3)
              ON CONFLICT (id) DO UPDATE SET created_at = EXCLUDED.created_at, payload = EXCLUDED.payload`
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.CreatedAt, payload); err != nil {
		return fmt.Errorf("put tournament %s: %w", t.ID, err)
	}
	return nil
}

// Tournament implements TournamentStore.
func (s *PostgresStore) Tournament(ctx context.Context, id string) (model.Tournament, error) {
	defer observe("get_tournament", time.Now())
	if s.closed.Load() {
		return model.Tournament{}, ErrClosed
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM tournaments WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tournament{}, ErrNotFound
	}
	if err != nil {
		return model.Tournament{}, fmt.Errorf("get tournament %s: %w", id, err)
	}
	var t model.Tournament
	if err := json.Unmarshal(payload, &t); err != nil {
		return model.Tournament{}, fmt.Errorf("decode tournament %s: %w", id, err)
	}
	return t, nil
}

// ListTournaments implements TournamentStore.
func (s *PostgresStore) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	defer observe("list_tournaments", time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM tournaments ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var t model.Tournament
		if err := json.Unmarshal(payload, &t); err != nil {
			return nil, fmt.Errorf("decode tournament: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TournamentCount implements TournamentStore.
func (s *PostgresStore) TournamentCount(ctx context.Context) (int, error) {
	return s.count(ctx, "tournaments")
}

// CheckAndUpdate implements RecordStore. The conditional upsert lets the
// database serialize competing writers on the unique slot constraint.
func (s *PostgresStore) CheckAndUpdate(ctx context.Context, c model.RecordSlot) (bool, error) {
	defer observe("check_and_update", time.Now())
	if s.closed.Load() {
		return false, ErrClosed
	}

	query := `INSERT INTO platform_records
                  (id, lift_type, gender, age_category, weight_category_name, weight_kg,
                   holder, athlete_id, tournament_id, tournament_name, set_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
              ON CONFLICT (lift_type, gender, age_category, weight_category_name) DO UPDATE SET
                  weight_kg = EXCLUDED.weight_kg,
                  holder = EXCLUDED.holder,
                  athlete_id = EXCLUDED.athlete_id,
                  tournament_id = EXCLUDED.tournament_id,
                  tournament_name = EXCLUDED.tournament_name,
                  set_at = EXCLUDED.set_at
              WHERE platform_records.weight_kg < EXCLUDED.weight_kg`
	res, err := s.db.ExecContext(ctx, query, uuid.NewString(),
		c.Lift, c.Gender, c.AgeCategory, c.WeightCategory, c.WeightKg,
		c.Holder, c.AthleteID, c.TournamentID, c.TournamentName, c.SetAt)
	if err != nil {
		return false, fmt.Errorf("upsert record %s: %w", c.RecordKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Records implements RecordStore.
func (s *PostgresStore) Records(ctx context.Context, filter model.RecordFilter) ([]model.RecordSlot, error) {
	defer observe("list_records", time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}

	query, args := recordsQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []model.RecordSlot{}
	for rows.Next() {
		var r model.RecordSlot
		if err := rows.Scan(&r.ID, &r.Lift, &r.Gender, &r.AgeCategory, &r.WeightCategory, &r.WeightKg,
			&r.Holder, &r.AthleteID, &r.TournamentID, &r.TournamentName, &r.SetAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Collation-independent order.
	model.SortRecords(out)
	return out, nil
}

// RecordCount implements RecordStore.
func (s *PostgresStore) RecordCount(ctx context.Context) (int, error) {
	return s.count(ctx, "platform_records")
}

// Close stops the gauge updater and closes the pool.
func (s *PostgresStore) Close() error {
	s.gauges.stop()
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) count(ctx context.Context, table string) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	// table is one of two constants, never user input.
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

func recordsQuery(f model.RecordFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(column string, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, column+" = $"+strconv.Itoa(len(args)))
	}
	add("gender", string(f.Gender))
	add("age_category", string(f.AgeCategory))
	add("weight_category_name", f.WeightCategory)
	add("lift_type", string(f.Lift))

	query := `SELECT id, lift_type, gender, age_category, weight_category_name, weight_kg,
                     holder, athlete_id, tournament_id, tournament_name, set_at
              FROM platform_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query, args
}
