// Package history records engine runs in a local sqlite database so past
// check and update outcomes stay auditable. The database is an audit log
// only; it is never an input to comparisons.
package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"apiguard/internal/config"
	"apiguard/internal/logging"
)

// Run is one recorded engine operation.
type Run struct {
	ID          string    `json:"id"`
	Target      string    `json:"target"`
	Operation   string    `json:"operation"` // check or update
	Outcome     string    `json:"outcome"`   // pass, fail, or error
	Mode        string    `json:"mode,omitempty"`
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	Changed     int       `json:"changed"`
	SymbolCount int       `json:"symbolCount"`
	SnapshotSHA string    `json:"snapshotSha,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	// RawExport is the export document for this run; compressed at rest.
	RawExport []byte `json:"-" yaml:"-"`
}

// Store wraps the history database.
type Store struct {
	conn    *sql.DB
	logger  *logging.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	target       TEXT NOT NULL,
	operation    TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	mode         TEXT NOT NULL DEFAULT '',
	added        INTEGER NOT NULL DEFAULT 0,
	removed      INTEGER NOT NULL DEFAULT 0,
	changed      INTEGER NOT NULL DEFAULT 0,
	symbol_count INTEGER NOT NULL DEFAULT 0,
	snapshot_sha TEXT NOT NULL DEFAULT '',
	raw_export   BLOB,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_target_created ON runs(target, created_at DESC);
`

// Open opens or creates the history database at .apiguard/history.db.
func Open(repoRoot string, logger *logging.Logger) (*Store, error) {
	dir := filepath.Join(repoRoot, config.ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", config.ConfigDirName, err)
	}

	conn, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Store{conn: conn, logger: logger, encoder: encoder, decoder: decoder}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.conn.Close()
}

// Record inserts one run. A zero ID or CreatedAt is filled in.
func (s *Store) Record(run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	var blob []byte
	if len(run.RawExport) > 0 {
		blob = s.encoder.EncodeAll(run.RawExport, nil)
	}

	_, err := s.conn.Exec(`
		INSERT INTO runs (id, target, operation, outcome, mode, added, removed,
			changed, symbol_count, snapshot_sha, raw_export, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Target, run.Operation, run.Outcome, run.Mode,
		run.Added, run.Removed, run.Changed, run.SymbolCount,
		run.SnapshotSHA, blob, run.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs for a target, newest first.
// Raw export blobs are not loaded; use RawExport for that.
func (s *Store) Recent(target string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.Query(`
		SELECT id, target, operation, outcome, mode, added, removed, changed,
			symbol_count, snapshot_sha, created_at
		FROM runs WHERE target = ?
		ORDER BY created_at DESC, id LIMIT ?`, target, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Target, &run.Operation, &run.Outcome,
			&run.Mode, &run.Added, &run.Removed, &run.Changed,
			&run.SymbolCount, &run.SnapshotSHA, &createdAt); err != nil {
			return nil, err
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RawExport returns the decompressed export document stored for a run.
func (s *Store) RawExport(runID string) ([]byte, error) {
	var blob []byte
	err := s.conn.QueryRow(`SELECT raw_export FROM runs WHERE id = ?`, runID).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("failed to load export for run %s: %w", runID, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	return s.decoder.DecodeAll(blob, nil)
}

// SnapshotSHA hashes canonical snapshot bytes for the run record.
func SnapshotSHA(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
