package extract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBraceSpanReturnsEmbeddedObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "bare", raw: `{"plan":["a","b"],"risk":1.5}`},
		{name: "prose around", raw: "Here is the plan:\n{\"plan\":[\"a\",\"b\"],\"risk\":1.5}\nLet me know."},
		{name: "markdown fence", raw: "```json\n{\"plan\": [\"a\", \"b\"], \"risk\": 1.5}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := BraceSpan{}.Extract(tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, []any{"a", "b"}, obj["plan"])
			assert.Equal(t, json.Number("1.5"), obj["risk"])
			assert.Len(t, obj, 2)
		})
	}
}

func TestBraceSpanPreservesLargeNumbers(t *testing.T) {
	obj, err := BraceSpan{}.Extract(`{"id": 12345678901234567890}`, nil)
	require.NoError(t, err)

	out, err := Encode(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"id":12345678901234567890}`, string(out))
}

func TestBraceSpanExtractionErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "no braces", raw: "I could not produce a plan."},
		{name: "only open", raw: "{ \"plan\": "},
		{name: "only close", raw: "done }"},
		{name: "reversed", raw: "} oops {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BraceSpan{}.Extract(tt.raw, nil)
			var extractionErr *ExtractionError
			assert.True(t, errors.As(err, &extractionErr), "expected ExtractionError, got %v", err)
		})
	}
}

func TestBraceSpanParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "trailing comma", raw: `{"plan": [1, 2,]}`},
		{name: "two objects", raw: `{"a": 1} and then {"b": 2}`},
		{name: "single quotes", raw: `{'a': 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BraceSpan{}.Extract(tt.raw, nil)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
			assert.NotEmpty(t, parseErr.Span)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	obj := Object{"plan": []any{"keep"}, "extra": true}
	required := []string{"plan", "next_actions", "risks", "decision", "plan_patch"}

	got := ApplyDefaults(obj, required)

	assert.Equal(t, []any{"keep"}, got["plan"], "present keys are never overwritten")
	assert.Equal(t, []any{}, got["next_actions"])
	assert.Equal(t, []any{}, got["risks"])
	assert.Equal(t, "", got["decision"])
	assert.Equal(t, "", got["plan_patch"])
	assert.Equal(t, true, got["extra"], "keys outside required pass through")
}

func TestApplyDefaultsKeepsPresentNull(t *testing.T) {
	obj := ApplyDefaults(Object{"reason": nil}, []string{"reason"})

	value, ok := obj["reason"]
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestBraceSpanRepairsRequiredKeys(t *testing.T) {
	obj, err := BraceSpan{}.Extract(`Sure! {"decision": "stop"}`, []string{"decision", "reason", "plan_patch"})
	require.NoError(t, err)

	assert.Equal(t, Object{"decision": "stop", "reason": "", "plan_patch": ""}, obj)
}

func TestIsCollectionKey(t *testing.T) {
	assert.True(t, IsCollectionKey("findings"))
	assert.True(t, IsCollectionKey("deltas"))
	assert.False(t, IsCollectionKey("plan"))
	assert.False(t, IsCollectionKey("plan_patch"))
	assert.False(t, IsCollectionKey(""))
}

func TestStrictFirst(t *testing.T) {
	t.Run("whole text parses", func(t *testing.T) {
		obj, err := StrictFirst{}.Extract("  {\"reason\": \"see {braces} in text\"}\n", []string{"reason"})
		require.NoError(t, err)
		assert.Equal(t, "see {braces} in text", obj["reason"])
	})

	t.Run("falls back to span scanning", func(t *testing.T) {
		obj, err := StrictFirst{}.Extract("Result: {\"decision\": \"continue\"} -- end", []string{"decision"})
		require.NoError(t, err)
		assert.Equal(t, "continue", obj["decision"])
	})

	t.Run("top-level array is a shape error", func(t *testing.T) {
		_, err := StrictFirst{}.Extract(`[{"decision": "stop"}]`, nil)
		var shapeErr *ShapeError
		require.True(t, errors.As(err, &shapeErr), "expected ShapeError, got %v", err)
		assert.Equal(t, "array", shapeErr.Kind)
	})

	t.Run("fallback errors surface", func(t *testing.T) {
		_, err := StrictFirst{}.Extract("no object here", nil)
		var extractionErr *ExtractionError
		assert.True(t, errors.As(err, &extractionErr))
	})
}

func TestParseObjectShapeKinds(t *testing.T) {
	tests := []struct {
		text string
		kind string
	}{
		{text: `[1]`, kind: "array"},
		{text: `"text"`, kind: "string"},
		{text: `42`, kind: "number"},
		{text: `true`, kind: "boolean"},
		{text: `null`, kind: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			_, err := parseObject(tt.text)
			var shapeErr *ShapeError
			require.True(t, errors.As(err, &shapeErr))
			assert.Equal(t, tt.kind, shapeErr.Kind)
		})
	}
}
