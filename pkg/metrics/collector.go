// Package metrics exports launch observations as Prometheus metrics. The
// Collector is an activity hook, so it is wired with
// versiontrack.WithActivityHooks.
package metrics

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-versiontrack/pkg/activity"
)

const namespace = "versiontrack"

// Collector counts merges by scope and change kind and tracks the history
// size per scope.
type Collector struct {
	launches *prometheus.CounterVec
	history  *prometheus.GaugeVec
}

// NewCollector creates the metrics and registers them with reg. A nil reg
// skips registration.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "Version merges performed, by scope and change kind.",
		}, []string{"scope", "change"}),
		history: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_size",
			Help:      "Number of versions recorded for a scope.",
		}, []string{"scope"}),
	}
	if reg == nil {
		return c, nil
	}
	for _, collector := range []prometheus.Collector{c.launches, c.history} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Notify implements activity.ActivityHook. Events of other object types are
// ignored.
func (c *Collector) Notify(_ context.Context, event activity.Event) error {
	if event.ObjectType != activity.ObjectTypeVersion {
		return nil
	}
	scope := stringValue(event.Metadata["scope"])
	change := stringValue(event.Metadata["change"])
	if change == "" {
		change = strings.TrimPrefix(event.Verb, activity.ObjectTypeVersion+".")
	}
	c.launches.WithLabelValues(scope, change).Inc()
	if size, ok := event.Metadata["history_size"].(int); ok {
		c.history.WithLabelValues(scope).Set(float64(size))
	}
	return nil
}

// Launches returns the counter for scope and change.
func (c *Collector) Launches(scope, change string) prometheus.Counter {
	return c.launches.WithLabelValues(scope, change)
}

// HistorySize returns the gauge for scope.
func (c *Collector) HistorySize(scope string) prometheus.Gauge {
	return c.history.WithLabelValues(scope)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
