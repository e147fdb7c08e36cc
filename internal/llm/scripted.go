package llm

import (
	"context"
	"fmt"
	"sync"
)

// Scripted replays canned responses in order and records every request. It
// backs offline runs and tests.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	errs      map[int]error
	requests  []Request
}

// NewScripted returns a Scripted generator that answers with responses in order.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses, errs: make(map[int]error)}
}

// FailAt makes the call with the given zero-based index return err.
func (s *Scripted) FailAt(call int, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[call] = err
	return s
}

// Provider implements Generator.
func (s *Scripted) Provider() string { return "scripted" }

// Generate implements Generator.
func (s *Scripted) Generate(_ context.Context, req *Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.requests)
	if req != nil {
		s.requests = append(s.requests, *req)
	} else {
		s.requests = append(s.requests, Request{})
	}
	if err, ok := s.errs[call]; ok {
		return "", err
	}
	if call >= len(s.responses) {
		return "", fmt.Errorf("scripted generator exhausted after %d responses", len(s.responses))
	}
	return s.responses[call], nil
}

// Calls returns the number of Generate calls made.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every request received.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}
