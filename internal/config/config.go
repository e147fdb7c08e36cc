package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codefionn/loopdriver/internal/consts"
	"github.com/codefionn/loopdriver/internal/securemem"
)

// Supported generation providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// Supported run log sinks
const (
	LogSinkJSONL  = "jsonl"
	LogSinkSQLite = "sqlite"
)

// Supported structured-response extractors
const (
	ExtractorBraceSpan   = "brace-span"
	ExtractorStrictFirst = "strict-first"
)

// Environment variables read by ApplyEnv and Prepare
const (
	EnvGoal              = "LOOP_GOAL"
	EnvModel             = "CLAUDE_MODEL"
	EnvMaxIterations     = "MAX_ITER"
	EnvProvider          = "LOOPDRIVER_PROVIDER"
	EnvPromptsDir        = "LOOPDRIVER_PROMPTS_DIR"
	EnvRunsDir           = "LOOPDRIVER_RUNS_DIR"
	EnvLogSink           = "LOOPDRIVER_LOG_SINK"
	EnvMetricsAddr       = "LOOPDRIVER_METRICS_ADDR"
	EnvLogLevel          = "LOOPDRIVER_LOG_LEVEL"
	EnvLogPath           = "LOOPDRIVER_LOG_PATH"
	EnvRequestsPerMinute = "LOOPDRIVER_REQUESTS_PER_MINUTE"
	EnvTokensPerMinute   = "LOOPDRIVER_TOKENS_PER_MINUTE"
)

// Config represents application configuration
type Config struct {
	Provider          string  `json:"provider" yaml:"provider"`
	Model             string  `json:"model" yaml:"model"`
	MaxIterations     int     `json:"max_iterations" yaml:"max_iterations"`
	MaxOutputTokens   int     `json:"max_output_tokens" yaml:"max_output_tokens"`
	Goal              string  `json:"goal" yaml:"goal"`
	PromptsDir        string  `json:"prompts_dir,omitempty" yaml:"prompts_dir,omitempty"` // empty: embedded prompts
	RunsDir           string  `json:"runs_dir" yaml:"runs_dir"`
	LogSink           string  `json:"log_sink" yaml:"log_sink"`   // jsonl, sqlite
	Extractor         string  `json:"extractor" yaml:"extractor"` // brace-span, strict-first
	MetricsAddr       string  `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	RequestsPerMinute float64 `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
	TokensPerMinute   int     `json:"tokens_per_minute,omitempty" yaml:"tokens_per_minute,omitempty"`
	LogLevel          string  `json:"log_level" yaml:"log_level"` // debug, info, warn, error, none
	LogPath           string  `json:"log_path,omitempty" yaml:"log_path,omitempty"`

	// Credential is never read from or written to config files.
	Credential *securemem.Credential `json:"-" yaml:"-"`
}

// ConfigurationError reports a missing or invalid configuration input. It is
// fatal: the run never starts.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderAnthropic,
		MaxIterations:   consts.DefaultMaxIterations,
		MaxOutputTokens: consts.DefaultMaxOutputTokens,
		RunsDir:         consts.DefaultRunsDir,
		LogSink:         LogSinkJSONL,
		Extractor:       ExtractorBraceSpan,
		LogLevel:        "info",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Files ending in .yaml or .yml are YAML, everything else JSON.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, &ConfigurationError{Field: path, Message: err.Error()}
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
// Blank variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if v := lookup(EnvProvider); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := lookup(EnvModel); v != "" {
		c.Model = v
	}
	if v := lookup(EnvGoal); v != "" {
		c.Goal = v
	}
	if v := lookup(EnvMaxIterations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigurationError{Field: EnvMaxIterations, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		c.MaxIterations = n
	}
	if v := lookup(EnvPromptsDir); v != "" {
		c.PromptsDir = v
	}
	if v := lookup(EnvRunsDir); v != "" {
		c.RunsDir = v
	}
	if v := lookup(EnvLogSink); v != "" {
		c.LogSink = strings.ToLower(v)
	}
	if v := lookup(EnvMetricsAddr); v != "" {
		c.MetricsAddr = v
	}
	if v := lookup(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := lookup(EnvLogPath); v != "" {
		c.LogPath = v
	}
	if v := lookup(EnvRequestsPerMinute); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ConfigurationError{Field: EnvRequestsPerMinute, Message: fmt.Sprintf("not a number: %q", v)}
		}
		c.RequestsPerMinute = n
	}
	if v := lookup(EnvTokensPerMinute); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigurationError{Field: EnvTokensPerMinute, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		c.TokensPerMinute = n
	}
	return nil
}

// CredentialEnvVars lists the variables that may hold the provider's API key,
// in lookup order.
func CredentialEnvVars(provider string) []string {
	switch provider {
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case ProviderOpenAI:
		return []string{"OPENAI_API_KEY"}
	case ProviderGoogle:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return nil
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return consts.DefaultOpenAIModel
	case ProviderGoogle:
		return consts.DefaultGoogleModel
	default:
		return consts.DefaultAnthropicModel
	}
}

// Prepare fills derived defaults, seals the provider credential from the
// environment and validates the result. It performs no network activity.
func (c *Config) Prepare(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	envVars := CredentialEnvVars(c.Provider)
	if envVars == nil {
		return &ConfigurationError{Field: "provider", Message: fmt.Sprintf("unsupported provider %q", c.Provider)}
	}

	if c.Credential.IsEmpty() {
		for _, name := range envVars {
			if v := strings.TrimSpace(getenv(name)); v != "" {
				c.Credential = securemem.NewCredential(v, name)
				break
			}
		}
	}
	if c.Credential.IsEmpty() {
		return &ConfigurationError{
			Field:   envVars[0],
			Message: fmt.Sprintf("missing environment variable %s (required for provider %s)", envVars[0], c.Provider),
		}
	}

	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel(c.Provider)
	}
	c.Goal = strings.TrimSpace(c.Goal)
	if c.Goal == "" {
		c.Goal = consts.PlaceholderGoal
	}

	return c.Validate()
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.MaxIterations < 0 {
		return &ConfigurationError{Field: "max_iterations", Message: fmt.Sprintf("must not be negative, got %d", c.MaxIterations)}
	}
	if c.MaxOutputTokens <= 0 {
		return &ConfigurationError{Field: "max_output_tokens", Message: fmt.Sprintf("must be positive, got %d", c.MaxOutputTokens)}
	}
	switch c.LogSink {
	case LogSinkJSONL, LogSinkSQLite:
	default:
		return &ConfigurationError{Field: "log_sink", Message: fmt.Sprintf("unsupported sink %q", c.LogSink)}
	}
	switch c.Extractor {
	case ExtractorBraceSpan, ExtractorStrictFirst:
	default:
		return &ConfigurationError{Field: "extractor", Message: fmt.Sprintf("unsupported extractor %q", c.Extractor)}
	}
	if c.RequestsPerMinute < 0 || c.TokensPerMinute < 0 {
		return &ConfigurationError{Field: "rate_limit", Message: "rate limits must not be negative"}
	}
	if strings.TrimSpace(c.RunsDir) == "" {
		return &ConfigurationError{Field: "runs_dir", Message: "must not be empty"}
	}
	return nil
}
