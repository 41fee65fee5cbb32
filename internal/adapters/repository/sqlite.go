package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS detectors (
	id            TEXT PRIMARY KEY,
	environment   TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	metric        TEXT NOT NULL,
	source        TEXT NOT NULL,
	score         REAL NOT NULL,
	severity      TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	enabled       INTEGER NOT NULL DEFAULT 1,
	detected_at   TEXT NOT NULL,
	updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_detectors_environment ON detectors(environment, resource_type);
`

const selectColumns = `id, environment, resource_type, resource_id, metric, source, score, severity, description, enabled, detected_at`

// SQLiteStore persists detectors in a SQLite database so toggles survive
// restarts.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	updater metricsUpdater
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s.updater.start(ctx, o.metricsUpdateInterval, s.counts)
	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create detectors table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) counts() map[string]int {
	out := map[string]int{}
	rows, err := s.db.Query("SELECT environment, COUNT(*) FROM detectors GROUP BY environment")
	if err != nil {
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var env string
		var n int
		if rows.Scan(&env, &n) == nil {
			out[env] = n
		}
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnomaly(r rowScanner) (types.Anomaly, error) {
	var a types.Anomaly
	var enabled int
	var detected string
	if err := r.Scan(&a.ID, &a.Environment, &a.ResourceType, &a.ResourceID, &a.Metric, &a.Source,
		&a.Score, &a.Severity, &a.Description, &enabled, &detected); err != nil {
		return types.Anomaly{}, err
	}
	a.Enabled = enabled != 0
	if t, err := time.Parse(time.RFC3339Nano, detected); err == nil {
		a.DetectedAt = t
	}
	return a, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]types.Anomaly, error) {
	f = f.normalize()
	if f.Environment == "" {
		return nil, ErrNoEnvironment
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM detectors
		 WHERE environment = ? AND (? = '' OR resource_type = ?) AND (? = '' OR resource_id = ?)
		 ORDER BY score DESC, id ASC`,
		f.Environment, f.ResourceType, f.ResourceType, f.ResourceID, f.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("list detectors: %w", err)
	}
	defer rows.Close()

	out := []types.Anomaly{}
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, fmt.Errorf("scan detector: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Anomaly, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Anomaly{}, ErrInvalidID
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM detectors WHERE id = ?`, id)
	a, err := scanAnomaly(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Anomaly{}, ErrNotFound
	}
	if err != nil {
		return types.Anomaly{}, fmt.Errorf("get detector: %w", err)
	}
	return a, nil
}

// SetEnabled implements Store.
func (s *SQLiteStore) SetEnabled(ctx context.Context, id string, enabled bool) (types.Anomaly, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Anomaly{}, ErrInvalidID
	}
	flag := 0
	if enabled {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE detectors SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, flag, id)
	if err != nil {
		return types.Anomaly{}, fmt.Errorf("update detector: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.Anomaly{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Seed implements Store.
func (s *SQLiteStore) Seed(ctx context.Context, detectors []types.Anomaly) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO detectors (`+selectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range detectors {
		if a.ID == "" {
			return 0, ErrInvalidID
		}
		enabled := 0
		if a.Enabled {
			enabled = 1
		}
		res, err := stmt.ExecContext(ctx, a.ID, strings.ToLower(a.Environment), strings.ToLower(a.ResourceType),
			a.ResourceID, a.Metric, a.Source, a.Score, a.Severity, a.Description, enabled,
			a.DetectedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return 0, fmt.Errorf("seed detector %s: %w", a.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return inserted, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context, env string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detectors WHERE environment = ?`,
		strings.ToLower(strings.TrimSpace(env))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count detectors: %w", err)
	}
	return n, nil
}

// Close stops the metrics updater and closes the database.
func (s *SQLiteStore) Close() error {
	s.updater.stop()
	return s.db.Close()
}
