package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics. Credential migrations are worth watching:
// the count should trend to zero as legacy plaintext rows get upgraded.
var (
	Signups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atttracker_signups_total",
		Help: "Accounts created.",
	})

	Signins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atttracker_signins_total",
		Help: "Signin attempts by outcome.",
	}, []string{"outcome"})

	CredentialMigrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atttracker_credential_migrations_total",
		Help: "Legacy plaintext credentials re-hashed on signin.",
	})

	PredictFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atttracker_predict_fallbacks_total",
		Help: "Predictions served by the local heuristic because the prediction service was unreachable.",
	})
)
