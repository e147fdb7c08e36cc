package consts

import "time"

// Step invocation limits
const (
	// MaxGenerationAttempts caps generation-service calls per step invocation
	// (first attempt plus one correction retry).
	MaxGenerationAttempts = 2
	// MalformedSnippetLength is the number of characters of the last raw
	// response carried by a malformed-output error.
	MalformedSnippetLength = 200
)

// Generation defaults
const (
	// DefaultMaxOutputTokens is the maximum output size requested per call
	DefaultMaxOutputTokens = 4000
	// DefaultAnthropicModel is used when no model is configured for Anthropic
	DefaultAnthropicModel = "claude-3-opus-20240229"
	// DefaultOpenAIModel is used when no model is configured for OpenAI
	DefaultOpenAIModel = "gpt-4o"
	// DefaultGoogleModel is used when no model is configured for Google
	DefaultGoogleModel = "gemini-2.0-flash"
)

// Loop defaults
const (
	// DefaultMaxIterations is the default number of rounds per run
	DefaultMaxIterations = 10
	// PlaceholderGoal replaces a blank goal
	PlaceholderGoal = "Set LOOP_GOAL to the goal this loop should pursue"
)

// File and directory names
const (
	// DefaultRunsDir holds run logs
	DefaultRunsDir = "runs"
	// RunLogTimeLayout names a run's log destination from its start time
	RunLogTimeLayout = "20060102-150405"
	// SQLiteRunLogName is the database file used by the sqlite run log sink
	SQLiteRunLogName = "loopdriver.db"
)

// Timeouts for various operations
const (
	// Timeout5Seconds is a 5 second timeout
	Timeout5Seconds = 5 * time.Second
	// Timeout10Seconds is a 10 second timeout
	Timeout10Seconds = 10 * time.Second
)
