// Package metrics exposes the attendance domain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	submissionsAccepted prometheus.Counter
	submissionsRejected *prometheus.CounterVec
	duplicatesFlagged   prometheus.Counter
	writeConflicts      prometheus.Counter
	networkFlags        *prometheus.CounterVec
	defaultersRemoved   prometheus.Counter
}

// New registers the attendance counters on the default registry.
func New() *Metrics {
	return &Metrics{
		submissionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_submissions_accepted_total",
			Help: "Attendance submissions committed to a ledger",
		}),
		submissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_submissions_rejected_total",
			Help: "Attendance submissions rejected, by reason",
		}, []string{"reason"}),
		duplicatesFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_duplicates_flagged_total",
			Help: "Submissions accepted with the duplicate flag set",
		}),
		writeConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_ledger_write_conflicts_total",
			Help: "Optimistic-concurrency conflicts hit while committing",
		}),
		networkFlags: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_network_flags_total",
			Help: "Network classifier outcomes, by flag",
		}, []string{"flag"}),
		defaultersRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_defaulters_removed_total",
			Help: "Ledger rows removed by the defaulter endpoint",
		}),
	}
}

// All increments are nil-safe so tests can pass a nil *Metrics.

func (m *Metrics) SubmissionAccepted() {
	if m != nil {
		m.submissionsAccepted.Inc()
	}
}

func (m *Metrics) SubmissionRejected(reason string) {
	if m != nil {
		m.submissionsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) DuplicateFlagged() {
	if m != nil {
		m.duplicatesFlagged.Inc()
	}
}

func (m *Metrics) WriteConflict() {
	if m != nil {
		m.writeConflicts.Inc()
	}
}

func (m *Metrics) NetworkFlag(flag string) {
	if m != nil {
		m.networkFlags.WithLabelValues(flag).Inc()
	}
}

func (m *Metrics) DefaulterRemoved() {
	if m != nil {
		m.defaultersRemoved.Inc()
	}
}
