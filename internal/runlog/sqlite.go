package runlog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codefionn/loopdriver/internal/extract"
)

// SQLiteRecorder stores records as rows of run_events, one committed insert
// per record. Several runs share one database, told apart by run_id.
type SQLiteRecorder struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	runID  string
	seq    int
}

// NewSQLiteRecorder opens (or creates) the database at dbPath and registers
// runID.
func NewSQLiteRecorder(dbPath, runID string, start time.Time) (*SQLiteRecorder, error) {
	if runID == "" {
		return nil, errors.New("sqlite run log requires a run id")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &SQLiteRecorder{db: db, dbPath: dbPath, runID: runID}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		runID, start.UTC().Format(time.RFC3339)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		seq INTEGER NOT NULL,
		event TEXT NOT NULL,
		payload TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		UNIQUE (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, seq);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Record implements Recorder.
func (r *SQLiteRecorder) Record(event string, payload any) error {
	data, err := extract.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", event, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return errors.New("run log is closed")
	}

	seq := r.seq + 1
	_, err = r.db.Exec(
		`INSERT INTO run_events (run_id, seq, event, payload, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		r.runID, seq, event, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert %s entry: %w", event, err)
	}
	r.seq = seq
	return nil
}

// RunID returns the run identifier rows are stored under.
func (r *SQLiteRecorder) RunID() string { return r.runID }

// Location implements Recorder.
func (r *SQLiteRecorder) Location() string { return r.dbPath + "#" + r.runID }

// Close implements Recorder.
func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
