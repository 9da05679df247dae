// Package server exposes the daemon's health, metrics, and device
// inventory over HTTP.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshp123/smarthq/internal/discovery"
)

// DeviceSource supplies the current discovery result for /devices.
type DeviceSource interface {
	Devices() []discovery.Device
}

// Server wraps the HTTP listener.
type Server struct {
	httpServer *http.Server
}

func New(addr string, registry *prometheus.Registry, devices DeviceSource) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/devices", DevicesHandler(devices))
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
