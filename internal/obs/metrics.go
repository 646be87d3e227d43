// Package obs holds the service's Prometheus instrumentation.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	provisionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platewise",
		Subsystem: "provision",
		Name:      "outcomes_total",
		Help:      "Provisioning attempts by outcome (completed, replayed, rejected, identity_failed).",
	}, []string{"outcome"})

	linkIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "platewise",
		Subsystem: "setup_links",
		Name:      "issued_total",
		Help:      "Password-setup links issued.",
	})

	linkConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "platewise",
		Subsystem: "setup_links",
		Name:      "consumed_total",
		Help:      "Password-setup links consumed.",
	})

	linkRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platewise",
		Subsystem: "setup_links",
		Name:      "rejected_total",
		Help:      "Setup-link validations rejected, by reason (not_found, used, expired, rate_limited).",
	}, []string{"reason"})
)

func ProvisionOutcome(outcome string) {
	provisionOutcomes.WithLabelValues(outcome).Inc()
}

func LinkIssued() {
	linkIssued.Inc()
}

func LinkConsumed() {
	linkConsumed.Inc()
}

func LinkRejected(reason string) {
	linkRejected.WithLabelValues(reason).Inc()
}
