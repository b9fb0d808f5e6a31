package account

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess            = "success"
	OutcomeInvalid            = "invalid"
	OutcomeConflict           = "conflict"
	OutcomeConflictOnInsert   = "conflict_on_insert"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInactive           = "inactive"
	OutcomeNotFound           = "not_found"
	OutcomeError              = "error"
)

// Metrics counts workflow outcomes and times the hashing work. A nil
// *Metrics records nothing.
type Metrics struct {
	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	profileLookups  *prometheus.CounterVec
	hashingDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Name:      "registrations_total",
				Help:      "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Name:      "logins_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		profileLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Name:      "profile_lookups_total",
				Help:      "Profile lookups by outcome",
			},
			[]string{"outcome"},
		),
		hashingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "accounts",
				Name:      "password_hashing_duration_seconds",
				Help:      "Time spent hashing or verifying passwords, including pool wait",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) profile(outcome string) {
	if m == nil {
		return
	}
	m.profileLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeHashing(op string, start time.Time) {
	if m == nil {
		return
	}
	m.hashingDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
