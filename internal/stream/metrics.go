package stream

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "smarthq_stream_messages_total",
		Help: "Inbound telemetry messages by kind",
	}, []string{"kind"})
	keepalivesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_stream_keepalives_total",
		Help: "Keepalive pings sent",
	})
	decodeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_stream_decode_failures_total",
		Help: "Telemetry messages or property values that failed to decode",
	})
	unknownDeviceTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smarthq_stream_unknown_device_total",
		Help: "Property events dropped for unknown appliances",
	})
	connected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smarthq_stream_connected",
		Help: "Telemetry connection state (1=open, 0=closed)",
	})
)

// MetricsCollectors returns the package's collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		messagesTotal,
		keepalivesTotal,
		decodeFailures,
		unknownDeviceTotal,
		connected,
	}
}
