// Package metrics exposes loop activity as prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loopdriver"

// Collectors holds every loop metric, registered on its own registry.
type Collectors struct {
	registry *prometheus.Registry

	StepInvocations    *prometheus.CounterVec
	GenerationCalls    *prometheus.CounterVec
	CorrectionRetries  *prometheus.CounterVec
	Rounds             prometheus.Counter
	RunTerminations    *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
}

// New creates the collectors. Go runtime and process collectors are added
// when withRuntime is set.
func New(withRuntime bool) *Collectors {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		StepInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_invocations_total",
			Help:      "Role invocations by outcome",
		}, []string{"role", "outcome"}),
		GenerationCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Calls to the generation service per role",
		}, []string{"role"}),
		CorrectionRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correction_retries_total",
			Help:      "Retries sent with a correction instruction",
		}, []string{"role"}),
		Rounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Completed rounds",
		}),
		RunTerminations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_terminations_total",
			Help:      "Finished runs by termination kind",
		}, []string{"kind"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of generation calls",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider"}),
	}
}

// Registry returns the registry the collectors live on.
func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// ObserveGenerationCall counts one generation call for role.
func (c *Collectors) ObserveGenerationCall(role string) {
	c.GenerationCalls.WithLabelValues(role).Inc()
}

// ObserveCorrectionRetry counts one correction retry for role.
func (c *Collectors) ObserveCorrectionRetry(role string) {
	c.CorrectionRetries.WithLabelValues(role).Inc()
}

// ObserveStep counts one finished role invocation.
func (c *Collectors) ObserveStep(role, outcome string) {
	c.StepInvocations.WithLabelValues(role, outcome).Inc()
}

// ObserveGeneration records the latency of one provider call.
func (c *Collectors) ObserveGeneration(provider string, elapsed time.Duration, _ error) {
	c.GenerationDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveRound counts one completed round.
func (c *Collectors) ObserveRound() {
	c.Rounds.Inc()
}

// ObserveTermination counts one finished run.
func (c *Collectors) ObserveTermination(kind string) {
	c.RunTerminations.WithLabelValues(kind).Inc()
}
