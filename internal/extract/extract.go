package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Object is a parsed structured response. Numbers are kept as json.Number
// so re-encoding reproduces them exactly.
type Object = map[string]any

// Extractor turns raw model text into a repaired Object.
type Extractor interface {
	Extract(raw string, required []string) (Object, error)
}

// BraceSpan parses the span from the first '{' to the last '}' inclusive.
type BraceSpan struct{}

// Extract implements Extractor.
func (BraceSpan) Extract(raw string, required []string) (Object, error) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	switch {
	case first == -1:
		return nil, &ExtractionError{Reason: "missing '{'"}
	case last == -1:
		return nil, &ExtractionError{Reason: "missing '}'"}
	case last < first:
		return nil, &ExtractionError{Reason: "last '}' precedes first '{'"}
	}

	obj, err := parseObject(raw[first : last+1])
	if err != nil {
		return nil, err
	}
	return ApplyDefaults(obj, required), nil
}

// StrictFirst parses the whole trimmed text and falls back to Fallback
// (BraceSpan when nil) only on a parse failure. A whole-text parse that
// yields a non-object is reported as a ShapeError without falling back.
type StrictFirst struct {
	Fallback Extractor
}

// Extract implements Extractor.
func (s StrictFirst) Extract(raw string, required []string) (Object, error) {
	obj, err := parseObject(strings.TrimSpace(raw))
	if err == nil {
		return ApplyDefaults(obj, required), nil
	}

	var shapeErr *ShapeError
	if errors.As(err, &shapeErr) {
		return nil, err
	}

	fallback := s.Fallback
	if fallback == nil {
		fallback = BraceSpan{}
	}
	return fallback.Extract(raw, required)
}

// ApplyDefaults inserts an empty value for every required key absent from
// obj and returns obj. Keys outside required are left untouched.
func ApplyDefaults(obj Object, required []string) Object {
	for _, key := range required {
		if _, ok := obj[key]; ok {
			continue
		}
		if IsCollectionKey(key) {
			obj[key] = []any{}
		} else {
			obj[key] = ""
		}
	}
	return obj
}

// IsCollectionKey reports whether a key name denotes a collection by its
// plural suffix.
func IsCollectionKey(key string) bool {
	return strings.HasSuffix(key, "s")
}

func parseObject(text string) (Object, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, &ParseError{Span: text, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, &ParseError{Span: text, Err: err}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &ShapeError{Kind: kindOf(value)}
	}
	return obj, nil
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Encode renders obj as compact JSON without HTML escaping, the form used
// for state rendering and run log payloads.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
