package step

import (
	"errors"
	"fmt"
)

// ErrMalformedOutput matches every *MalformedOutputError with errors.Is.
var ErrMalformedOutput = errors.New("malformed model output")

// MalformedOutputError means every attempt of a role invocation produced
// text that could not be turned into a structured object.
type MalformedOutputError struct {
	Role     string
	Attempts int
	// Snippet holds the first characters of the last raw response.
	Snippet string
	// Err is the extraction failure of the last attempt.
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s returned malformed output after %d attempts (%v); last output: %q",
		e.Role, e.Attempts, e.Err, e.Snippet)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedOutput.
func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// snippet returns the first n runes of s.
func snippet(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
