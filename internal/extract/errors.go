package extract

import "fmt"

// ExtractionError means no candidate object span exists in the text.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "no JSON object found: " + e.Reason
}

// ParseError means the candidate span is not well-formed JSON.
type ParseError struct {
	Span string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError means the text parsed, but not to an object.
type ShapeError struct {
	Kind string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("expected a JSON object, got %s", e.Kind)
}
