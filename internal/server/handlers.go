package server

import (
	"encoding/json"
	"net/http"
)

// HealthHandler returns a simple OK for liveness checks.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type deviceView struct {
	ApplianceID string   `json:"applianceId"`
	UUID        string   `json:"uuid"`
	Nickname    string   `json:"nickname"`
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
	Serial      string   `json:"serial,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// DevicesHandler serves the discovered appliance inventory as JSON.
func DevicesHandler(source DeviceSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		devices := source.Devices()
		views := make([]deviceView, 0, len(devices))
		for _, d := range devices {
			views = append(views, deviceView{
				ApplianceID: d.ApplianceID,
				UUID:        d.UUID,
				Nickname:    d.Nickname,
				Brand:       d.Brand,
				Model:       d.Model,
				Serial:      d.Serial,
				Features:    d.Features,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	})
}
