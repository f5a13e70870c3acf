// Package metrics exposes Prometheus collectors for the auth core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login outcomes: success, invalid_credentials,
	// throttled, error.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	// TokensIssued counts issued JWTs by kind (access, refresh).
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_tokens_issued_total",
		Help: "Issued tokens by kind.",
	}, []string{"kind"})

	// TokenVerifications counts access token verification outcomes (ok, invalid).
	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authcore_token_verifications_total",
		Help: "Access token verifications by outcome.",
	}, []string{"outcome"})

	// RequestDuration observes HTTP handler latency by route and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authcore_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)
