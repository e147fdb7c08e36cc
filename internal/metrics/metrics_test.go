package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsCount(t *testing.T) {
	c := New(false)

	c.ObserveGenerationCall("planner")
	c.ObserveGenerationCall("planner")
	c.ObserveCorrectionRetry("planner")
	c.ObserveStep("planner", "corrected")
	c.ObserveRound()
	c.ObserveTermination("stop")
	c.ObserveGeneration("anthropic", 1500*time.Millisecond, nil)
	c.ObserveGeneration("anthropic", time.Second, errors.New("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.GenerationCalls.WithLabelValues("planner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CorrectionRetries.WithLabelValues("planner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StepInvocations.WithLabelValues("planner", "corrected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Rounds))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RunTerminations.WithLabelValues("stop")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.GenerationDuration))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := New(false)
	b := New(false)
	a.ObserveRound()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Rounds))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Rounds))
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServerRoutes(t *testing.T) {
	c := New(false)
	c.ObserveRound()
	s := NewServer(c)

	code, body := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, _ = get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	s.SetReady(true)
	code, body = get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)

	code, body = get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "loopdriver_rounds_total 1")

	code, _ = get(t, s.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServerStartAndShutdown(t *testing.T) {
	s := NewServer(New(true))
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "go_goroutines"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx))
}
