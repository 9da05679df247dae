package auth

import "github.com/prometheus/client_golang/prometheus"

var (
	loginSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_auth_login_success_total",
		Help: "Successful authorization-code logins",
	})
	loginFailure = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_auth_login_failure_total",
		Help: "Failed authorization-code logins",
	})
	refreshSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_auth_refresh_success_total",
		Help: "Successful token refreshes",
	})
	refreshFailure = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_auth_refresh_failure_total",
		Help: "Failed token refreshes",
	})
	tokenValid = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smarthq_auth_token_valid",
		Help: "Access token validity (1=valid, 0=invalid)",
	})
	statePersistOK = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smarthq_auth_state_persist_ok",
		Help: "Session state persistence health (1=ok, 0=error)",
	})
)

// MetricsCollectors returns the package's collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		loginSuccess,
		loginFailure,
		refreshSuccess,
		refreshFailure,
		tokenValid,
		statePersistOK,
	}
}
