// Package metrics counts run outcomes for the Prometheus textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/qepting91/burneddit/internal/burn"
)

// Recorder owns a private registry so repeated runs in one process do not collide.
type Recorder struct {
	registry *prometheus.Registry

	items       *prometheus.CounterVec
	accounts    *prometheus.CounterVec
	lastRunTime prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burneddit",
			Name:      "items_total",
			Help:      "History items handled, by kind and status.",
		}, []string{"account", "kind", "status"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burneddit",
			Name:      "accounts_total",
			Help:      "Configured accounts, by result.",
		}, []string{"result"}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "burneddit",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.items, r.accounts, r.lastRunTime)
	return r
}

// Observe adds a finished run to the counters.
func (r *Recorder) Observe(summary *burn.Summary) {
	for _, acct := range summary.Accounts {
		switch {
		case acct.Skipped:
			r.accounts.WithLabelValues("skipped").Inc()
			continue
		case acct.Aborted:
			r.accounts.WithLabelValues("aborted").Inc()
		default:
			r.accounts.WithLabelValues("processed").Inc()
		}
		for _, rec := range acct.Records {
			r.items.WithLabelValues(acct.Username, string(rec.Kind), string(rec.Status)).Inc()
		}
	}
	r.lastRunTime.SetToCurrentTime()
}

// WriteTextfile writes the current values in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
