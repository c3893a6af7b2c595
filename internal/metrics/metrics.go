// Package metrics holds the Prometheus collectors of the parking agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionsStarted counts sessions that entered SESSION_ACTIVE.
var SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "campuspark",
	Subsystem: "session",
	Name:      "started_total",
	Help:      "Total parking sessions started.",
})

// SessionsEnded counts terminated sessions by end reason.
var SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "campuspark",
	Subsystem: "session",
	Name:      "ended_total",
	Help:      "Total parking sessions ended, by reason.",
}, []string{"reason"})

// Settlements counts settlement attempts by outcome.
var Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "campuspark",
	Subsystem: "settlement",
	Name:      "attempts_total",
	Help:      "Total settlement attempts, by outcome.",
}, []string{"outcome"})

// TopUps counts credit purchases by method and outcome.
var TopUps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "campuspark",
	Subsystem: "wallet",
	Name:      "topups_total",
	Help:      "Total top-up attempts, by method and outcome.",
}, []string{"method", "outcome"})

// BalanceFallbacks counts balance updates applied to the local copy only.
var BalanceFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "campuspark",
	Subsystem: "wallet",
	Name:      "balance_fallbacks_total",
	Help:      "Total balance updates that fell back to the local cache.",
})
