// Package metrics holds Prometheus instruments that are used across the
// viewer.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Backend API calls made through the authenticated proxy, by outcome.",
		},
		[]string{"outcome"}, // ok, empty, unauthenticated, unauthorized, backend_error, transport_error
	)

	AuthLoginsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Cumulative number of successful OTP verifications.",
		})

	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Failed steps of the OTP flow, by reason.",
		},
		[]string{"reason"}, // not_enrolled, delivery, invalid_code
	)

	SessionsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_issued_total",
			Help: "Cumulative number of session cookies committed.",
		})

	SessionsDestroyedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_destroyed_total",
			Help: "Cumulative number of session cookies destroyed via logout.",
		})
)

func init() {
	prometheus.MustRegister(
		BackendRequestsTotal,
		AuthLoginsTotal,
		AuthFailuresTotal,
		SessionsIssuedTotal,
		SessionsDestroyedTotal,
	)
}
