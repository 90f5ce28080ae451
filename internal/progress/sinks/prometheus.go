package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayzen-labs/leadminer/internal/progress"
)

// PrometheusSink exports run progress via Prometheus collectors.
type PrometheusSink struct {
	events  *prometheus.CounterVec
	percent *prometheus.GaugeVec
	done    prometheus.Counter
}

// NewPrometheusSink registers the collectors against reg. Passing nil uses
// the default registerer.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadminer_progress_events_total",
			Help: "Progress events observed, partitioned by phase.",
		}, []string{"phase"}),
		percent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leadminer_run_progress_percent",
			Help: "Latest reported percentage per phase.",
		}, []string{"phase"}),
		done: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadminer_runs_finished_total",
			Help: "Runs that reached 100 percent.",
		}),
	}
	for _, c := range []prometheus.Collector{s.events, s.percent, s.done} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.events.WithLabelValues(string(evt.Phase)).Inc()
		if evt.Percent == progress.Sentinel {
			continue
		}
		s.percent.WithLabelValues(string(evt.Phase)).Set(float64(evt.Percent))
		if evt.Percent == 100 && evt.Phase == progress.PhaseRun {
			s.done.Inc()
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error { return nil }
