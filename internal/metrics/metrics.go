package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EnrollmentsTotal counts Generate operations by outcome.
	EnrollmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biodid_enrollments_total",
			Help: "Total number of enrollment attempts",
		},
		[]string{"outcome"},
	)

	// VerificationsTotal counts Verify operations by decision and reason.
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biodid_verifications_total",
			Help: "Total number of verification attempts",
		},
		[]string{"outcome", "reason"},
	)

	// RegistryLookupDuration tracks duplicate-check latency against the
	// identity registry.
	RegistryLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "biodid_registry_lookup_duration_seconds",
			Help:    "Identity registry lookup duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MatchedFingers tracks how many fingers reproduced per verification.
	// Bucketed by finger count only; no distance or closeness information
	// is ever exported.
	MatchedFingers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "biodid_verification_matched_fingers",
			Help:    "Number of fingers that reproduced during verification",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	// BundleWrites counts durable bundle mutations by kind and status.
	BundleWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biodid_bundle_writes_total",
			Help: "Total number of metadata bundle writes",
		},
		[]string{"kind", "status"},
	)
)

// Outcome label values.
const (
	OutcomeSuccess             = "success"
	OutcomeNoMatch             = "no_match"
	OutcomeDuplicate           = "duplicate"
	OutcomeInvalid             = "invalid"
	OutcomeRegistryUnavailable = "registry_unavailable"
	OutcomeError               = "error"
)
