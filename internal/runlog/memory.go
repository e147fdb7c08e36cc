package runlog

import (
	"fmt"
	"sync"
)

// Memory keeps records in memory. Used for dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	failAt  int
	failErr error
}

// NewMemory returns an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{failAt: -1}
}

// FailAt makes the n-th (zero-based) Record call return err.
func (m *Memory) FailAt(n int, err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAt = n
	m.failErr = err
	return m
}

// Record implements Recorder.
func (m *Memory) Record(event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == m.failAt {
		m.failAt = -1
		return fmt.Errorf("record %s: %w", event, m.failErr)
	}
	m.entries = append(m.entries, Entry{Event: event, Payload: payload})
	return nil
}

// Entries returns a copy of everything recorded.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Events returns the recorded event names in order.
func (m *Memory) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Event
	}
	return out
}

// Location implements Recorder.
func (m *Memory) Location() string { return "memory" }

// Close implements Recorder.
func (m *Memory) Close() error { return nil }
