// Package metrics exports enforcement decisions and requirements reloads as
// Prometheus metrics. A Collector satisfies both enforce.Observer and
// requirements.ReloadObserver.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/featuregate/pkg/enforce"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

const namespace = "featuregate"

// maxLabelLen bounds label values taken from operation and flag names, in bytes.
const maxLabelLen = 64

// unknownOperation labels decisions for operations the matrix has no rules
// for, so free-form names from dry-run checks do not create new series.
const unknownOperation = "unknown"

// Decision outcomes.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// Collector records decisions and reloads.
type Collector struct {
	decisions      *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	entries        prometheus.Gauge
}

var (
	_ enforce.Observer            = (*Collector)(nil)
	_ requirements.ReloadObserver = (*Collector)(nil)
)

// New creates a collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "enforce",
				Name:      "decisions_total",
				Help:      "Enforcement decisions by layer, operation, outcome and blocking flag",
			},
			[]string{"layer", "operation", "outcome", "flag"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "requirements",
				Name:      "reloads_total",
				Help:      "Requirements matrix reloads by result",
			},
			[]string{"result"},
		),
		reloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "requirements",
				Name:      "reload_duration_seconds",
				Help:      "Time spent loading and parsing the requirements matrix",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "requirements",
				Name:      "entries",
				Help:      "Entries in the last successfully loaded requirements matrix",
			},
		),
	}

	for _, col := range []prometheus.Collector{c.decisions, c.reloads, c.reloadDuration, c.entries} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveDecision implements enforce.Observer.
func (c *Collector) ObserveDecision(_ context.Context, d enforce.Decision) {
	outcome := OutcomeAllowed
	flag := ""
	switch {
	case d.Err != nil:
		outcome = OutcomeError
	case !d.Allowed:
		outcome = OutcomeDenied
		flag = d.Flag
	}
	operation := unknownOperation
	if d.Gated {
		operation = sanitizeLabel(d.Operation)
	}
	c.decisions.WithLabelValues(string(d.Layer), operation, outcome, sanitizeLabel(flag)).Inc()
}

// ObserveReload implements requirements.ReloadObserver.
func (c *Collector) ObserveReload(d time.Duration, entries int, err error) {
	c.reloadDuration.Observe(d.Seconds())
	if err != nil {
		c.reloads.WithLabelValues(reloadResult(err)).Inc()
		return
	}
	c.reloads.WithLabelValues("ok").Inc()
	c.entries.Set(float64(entries))
}

func reloadResult(err error) string {
	switch {
	case errors.Is(err, requirements.ErrMalformedRequirements):
		return "malformed"
	case errors.Is(err, requirements.ErrSourceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func sanitizeLabel(s string) string {
	if s == "" {
		return "none"
	}
	s = strings.ToValidUTF8(strings.ReplaceAll(s, " ", "_"), "_")
	if len(s) > maxLabelLen {
		cut := maxLabelLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
