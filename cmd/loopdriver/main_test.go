package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/loopdriver/internal/config"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseArgsTracksSetFlags(t *testing.T) {
	args, err := parseArgs([]string{"-max-iter", "0", "-goal", "fix it", "-log-sink", "sqlite"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Model = "kept"
	args.apply(cfg)

	assert.Equal(t, 0, cfg.MaxIterations)
	assert.Equal(t, "fix it", cfg.Goal)
	assert.Equal(t, "sqlite", cfg.LogSink)
	assert.Equal(t, "kept", cfg.Model)
}

func TestParseArgsRejectsPositional(t *testing.T) {
	_, err := parseArgs([]string{"extra"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loopdriver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_iterations: 4\nmodel: from-file\ngoal: file goal\n"), 0o644))

	args, err := parseArgs([]string{"-config", path, "-goal", "flag goal"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := loadConfig(args, envFrom(map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
		"CLAUDE_MODEL":      "from-env",
	}))
	require.NoError(t, err)
	defer cfg.Credential.Destroy()

	assert.Equal(t, 4, cfg.MaxIterations)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, "flag goal", cfg.Goal)
}

func TestRunMissingCredential(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(nil, envFrom(nil), &stdout, &stderr)

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "ANTHROPIC_API_KEY", cfgErr.Field)
	assert.Empty(t, stdout.String())
}

func TestRunInvalidMaxIter(t *testing.T) {
	err := run(nil, envFrom(map[string]string{"ANTHROPIC_API_KEY": "k", "MAX_ITER": "many"}), &bytes.Buffer{}, &bytes.Buffer{})

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "MAX_ITER", cfgErr.Field)
}

func TestRunZeroRoundsReportsExhaustion(t *testing.T) {
	runsDir := filepath.Join(t.TempDir(), "runs")
	var stdout bytes.Buffer

	err := run([]string{"-runs-dir", runsDir}, envFrom(map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
		"MAX_ITER":          "0",
	}), &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Reached the maximum of 0 rounds without a stop decision.")
	assert.Contains(t, stdout.String(), "Run log saved to: "+runsDir)
}

func TestRunHelp(t *testing.T) {
	assert.NoError(t, run([]string{"-h"}, envFrom(nil), &bytes.Buffer{}, &bytes.Buffer{}))
}
