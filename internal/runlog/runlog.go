// Package runlog appends one record per role invocation to a run-scoped
// destination. Records are never read back, edited or removed.
package runlog

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/codefionn/loopdriver/internal/consts"
)

// Sink names accepted by Open.
const (
	SinkJSONL  = "jsonl"
	SinkSQLite = "sqlite"
	SinkMemory = "memory"
)

// Entry is the shape of one record.
type Entry struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Recorder is an append-only run log. Record must make the entry durable
// before it returns.
type Recorder interface {
	Record(event string, payload any) error
	// Location describes where the records go, for the final report.
	Location() string
	Close() error
}

// FileName is the JSONL file name for a run started at start.
func FileName(start time.Time) string {
	return "run-" + start.Format(consts.RunLogTimeLayout) + ".jsonl"
}

// Open creates the recorder for sink under dir.
func Open(sink, dir string, start time.Time, runID string) (Recorder, error) {
	switch sink {
	case "", SinkJSONL:
		return NewFileRecorder(dir, start)
	case SinkSQLite:
		return NewSQLiteRecorder(filepath.Join(dir, consts.SQLiteRunLogName), runID, start)
	case SinkMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown run log sink %q", sink)
	}
}
