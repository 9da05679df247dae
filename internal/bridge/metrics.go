package bridge

import "github.com/prometheus/client_golang/prometheus"

var (
	publishTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_bridge_publish_total",
		Help: "State updates published to the broker",
	})
	publishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_bridge_publish_failures_total",
		Help: "State updates the broker rejected",
	})
	commandTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_bridge_command_total",
		Help: "Inbound commands relayed to the cloud",
	})
	commandFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_bridge_command_failures_total",
		Help: "Inbound commands that failed to parse or write",
	})
)

// MetricsCollectors returns the package's collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		publishTotal,
		publishFailures,
		commandTotal,
		commandFailures,
	}
}
