package runlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/codefionn/loopdriver/internal/extract"
)

// FileRecorder writes one JSON object per line.
type FileRecorder struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewFileRecorder creates dir if needed and a fresh run-<timestamp>.jsonl
// file inside it. A run started within the same second as an existing log
// gets a numeric suffix.
func NewFileRecorder(dir string, start time.Time) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}

	base := FileName(start)
	path := filepath.Join(dir, base)
	for n := 2; ; n++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return &FileRecorder{path: path, file: file}, nil
		}
		if !errors.Is(err, fs.ErrExist) || n > 100 {
			return nil, fmt.Errorf("failed to create run log: %w", err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d.jsonl", strings.TrimSuffix(base, ".jsonl"), n))
	}
}

// Record implements Recorder.
func (r *FileRecorder) Record(event string, payload any) error {
	line, err := extract.Encode(Entry{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", event, err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return errors.New("run log is closed")
	}
	if _, err := r.file.Write(line); err != nil {
		return fmt.Errorf("write %s entry: %w", event, err)
	}
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("sync run log: %w", err)
	}
	return nil
}

// Location implements Recorder.
func (r *FileRecorder) Location() string { return r.path }

// Close implements Recorder.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
