// Package store persists pipeline run history and dataset snapshots in a
// local SQLite database. File outputs remain the source of truth; the store
// is a queryable ledger over them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/slooze/marketpulse/internal/table"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string          `json:"id"`
	Phase      string          `json:"phase"`
	Status     string          `json:"status"`
	Stats      json.RawMessage `json:"stats,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Store wraps a SQLite database handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and configures WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	phase       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	stats       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS products (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	product_name TEXT NOT NULL,
	price        REAL,
	company_name TEXT,
	city         TEXT,
	state        TEXT,
	category     TEXT,
	product_url  TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_phase ON runs(phase);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_products_run_id ON products(run_id);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a pipeline phase and returns its ID.
func (s *Store) CreateRun(ctx context.Context, phase string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, phase, status, started_at) VALUES (?, ?, ?, ?)`,
		id, phase, RunStatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "store: insert run for phase %s", phase)
	}
	return id, nil
}

// FinishRun marks a run complete or failed, attaching phase stats as JSON.
func (s *Store) FinishRun(ctx context.Context, id, status string, stats any) error {
	var statsJSON sql.NullString
	if stats != nil {
		b, err := json.Marshal(stats)
		if err != nil {
			return eris.Wrap(err, "store: marshal stats")
		}
		statsJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, finished_at = ? WHERE id = ?`,
		status, statsJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "store: finish run %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run not found: %s", id)
	}
	return nil
}

// InsertProducts snapshots the processed dataset under a run ID.
func (s *Store) InsertProducts(ctx context.Context, runID string, t *table.Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (run_id, product_name, price, company_name, city, state, category, product_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "store: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	inserted := 0
	for _, row := range t.Rows {
		name, ok := row["product_name"].Str()
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, name,
			nullFloat(row["price"]),
			nullString(row["company_name"]),
			nullString(row["city"]),
			nullString(row["state"]),
			nullString(row["category"]),
			nullString(row["product_url"]),
		); err != nil {
			return inserted, eris.Wrapf(err, "store: insert product %q", name)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, eris.Wrap(err, "store: commit")
	}
	return inserted, nil
}

// LatestRuns returns the most recent runs, newest first.
func (s *Store) LatestRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phase, status, stats, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		var stats sql.NullString
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Phase, &r.Status, &stats, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		if stats.Valid {
			r.Stats = json.RawMessage(stats.String)
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "store: list runs iterate")
}

func nullString(v table.Value) sql.NullString {
	if s, ok := v.Str(); ok {
		return sql.NullString{String: s, Valid: true}
	}
	return sql.NullString{}
}

func nullFloat(v table.Value) sql.NullFloat64 {
	if f, ok := v.Float(); ok {
		return sql.NullFloat64{Float64: f, Valid: true}
	}
	return sql.NullFloat64{}
}
