// Package store persists analysis history, saved mappings and manual
// path entries in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"maparr/internal/analysis"
)

const dbFilename = "maparr.db"

// Store wraps the SQLite handle. Safe for concurrent use; SQLite
// serializes writers internally.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database under dataDir and runs the schema
// bootstrap. An empty dataDir selects an in-memory database.
func Open(dataDir string) (*Store, error) {
	dsn := ":memory:"
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to ensure data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, dbFilename)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := bootstrap(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("database ready", "path", dsn)
	return &Store{db: db}, nil
}

func bootstrap(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		platform TEXT NOT NULL,
		status TEXT NOT NULL,
		containers INTEGER NOT NULL,
		conflicts INTEGER NOT NULL,
		result TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS mapping (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		name TEXT NOT NULL,
		host_path TEXT NOT NULL,
		container_path TEXT NOT NULL,
		notes TEXT
	);
	CREATE TABLE IF NOT EXISTS manual_path (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		container_name TEXT NOT NULL,
		host_path TEXT NOT NULL,
		container_path TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'rw'
	);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AnalysisRecord is one persisted analysis run.
type AnalysisRecord struct {
	ID         int64            `json:"id"`
	CreatedAt  time.Time        `json:"createdAt"`
	Platform   string           `json:"platform"`
	Status     string           `json:"status"`
	Containers int              `json:"containers"`
	Conflicts  int              `json:"conflicts"`
	Result     *analysis.Result `json:"result,omitempty"`
}

// SaveAnalysis persists one result and returns its row id.
func (s *Store) SaveAnalysis(ctx context.Context, result *analysis.Result) (int64, error) {
	blob, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to encode result: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis (created_at, platform, status, containers, conflicts, result)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.AnalyzedAt.UTC().Format(time.RFC3339),
		string(result.Platform),
		string(result.Summary.Status),
		result.Summary.ContainersAnalyzed,
		len(result.Conflicts),
		string(blob),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save analysis: %w", err)
	}
	return res.LastInsertId()
}

// ListAnalyses returns the most recent runs, newest first, without the
// full result payload.
func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, platform, status, containers, conflicts
		 FROM analysis ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var created string
		if err := rows.Scan(&rec.ID, &created, &rec.Platform, &rec.Status, &rec.Containers, &rec.Conflicts); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetAnalysis loads one run with its full result payload. The boolean
// is false when the id is unknown.
func (s *Store) GetAnalysis(ctx context.Context, id int64) (AnalysisRecord, bool, error) {
	var rec AnalysisRecord
	var created, blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, platform, status, containers, conflicts, result
		 FROM analysis WHERE id = ?`, id).
		Scan(&rec.ID, &created, &rec.Platform, &rec.Status, &rec.Containers, &rec.Conflicts, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return AnalysisRecord{}, false, nil
	}
	if err != nil {
		return AnalysisRecord{}, false, fmt.Errorf("failed to load analysis: %w", err)
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	var result analysis.Result
	if err := json.Unmarshal([]byte(blob), &result); err != nil {
		return AnalysisRecord{}, false, fmt.Errorf("failed to decode result: %w", err)
	}
	rec.Result = &result
	return rec, true, nil
}

// Mapping is a user-approved path mapping kept for reference.
type Mapping struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	Name          string    `json:"name"`
	HostPath      string    `json:"hostPath"`
	ContainerPath string    `json:"containerPath"`
	Notes         string    `json:"notes,omitempty"`
}

// SaveMapping persists one mapping and returns it with id and
// timestamp filled in.
func (s *Store) SaveMapping(ctx context.Context, m Mapping) (Mapping, error) {
	m.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mapping (created_at, name, host_path, container_path, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		m.CreatedAt.Format(time.RFC3339), m.Name, m.HostPath, m.ContainerPath, m.Notes)
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to save mapping: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return m, err
}

// ListMappings returns all saved mappings, newest first.
func (s *Store) ListMappings(ctx context.Context) ([]Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, name, host_path, container_path, COALESCE(notes, '')
		 FROM mapping ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		var m Mapping
		var created string
		if err := rows.Scan(&m.ID, &created, &m.Name, &m.HostPath, &m.ContainerPath, &m.Notes); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ManualPathRecord is one stored manual path entry.
type ManualPathRecord struct {
	ID        int64               `json:"id"`
	CreatedAt time.Time           `json:"createdAt"`
	Entry     analysis.ManualPath `json:"entry"`
}

// AddManualPath persists one entry and returns it with the id set.
func (s *Store) AddManualPath(ctx context.Context, entry analysis.ManualPath) (ManualPathRecord, error) {
	if entry.Mode == "" {
		entry.Mode = analysis.ModeRW
	}
	rec := ManualPathRecord{CreatedAt: time.Now().UTC(), Entry: entry}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO manual_path (created_at, container_name, host_path, container_path, mode)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.CreatedAt.Format(time.RFC3339),
		entry.ContainerName, entry.HostPath, entry.ContainerPath, string(entry.Mode))
	if err != nil {
		return ManualPathRecord{}, fmt.Errorf("failed to add manual path: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	return rec, err
}

// ReplaceManualPaths swaps the whole manual path set in one
// transaction; the batch import endpoint uses it.
func (s *Store) ReplaceManualPaths(ctx context.Context, entries []analysis.ManualPath) ([]ManualPathRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM manual_path`); err != nil {
		return nil, fmt.Errorf("failed to clear manual paths: %w", err)
	}

	now := time.Now().UTC()
	var out []ManualPathRecord
	for _, entry := range entries {
		if entry.Mode == "" {
			entry.Mode = analysis.ModeRW
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO manual_path (created_at, container_name, host_path, container_path, mode)
			 VALUES (?, ?, ?, ?, ?)`,
			now.Format(time.RFC3339),
			entry.ContainerName, entry.HostPath, entry.ContainerPath, string(entry.Mode))
		if err != nil {
			return nil, fmt.Errorf("failed to insert manual path: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		out = append(out, ManualPathRecord{ID: id, CreatedAt: now, Entry: entry})
	}
	return out, tx.Commit()
}

// ListManualPaths returns all entries in insertion order.
func (s *Store) ListManualPaths(ctx context.Context) ([]ManualPathRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, container_name, host_path, container_path, mode
		 FROM manual_path ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual paths: %w", err)
	}
	defer rows.Close()

	var out []ManualPathRecord
	for rows.Next() {
		var rec ManualPathRecord
		var created, mode string
		if err := rows.Scan(&rec.ID, &created, &rec.Entry.ContainerName, &rec.Entry.HostPath, &rec.Entry.ContainerPath, &mode); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
		rec.Entry.Mode = analysis.MountMode(mode)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ManualPathEntries returns just the analysis inputs, for merging into
// a snapshot.
func (s *Store) ManualPathEntries(ctx context.Context) ([]analysis.ManualPath, error) {
	records, err := s.ListManualPaths(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]analysis.ManualPath, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Entry)
	}
	return out, nil
}

// DeleteManualPath removes one entry; false means the id was unknown.
func (s *Store) DeleteManualPath(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM manual_path WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete manual path: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
