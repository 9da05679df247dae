package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joshp123/smarthq/internal/discovery"
)

type staticDevices []discovery.Device

func (s staticDevices) Devices() []discovery.Device { return s }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestDevicesHandler(t *testing.T) {
	source := staticDevices{
		{
			ApplianceID: "A1",
			UUID:        "11111111-2222-3333-4444-555555555555",
			Nickname:    "Kitchen Oven",
			Brand:       "GE",
			Features:    []string{"COOKING_V1_UPPER_OVEN_FOUNDATION"},
		},
	}
	rec := httptest.NewRecorder()
	DevicesHandler(source).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var views []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d devices, want 1", len(views))
	}
	if views[0]["applianceId"] != "A1" || views[0]["nickname"] != "Kitchen Oven" {
		t.Errorf("device = %v", views[0])
	}
}

func TestDevicesHandlerEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	DevicesHandler(staticDevices{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
	if rec.Body.String() != "[]\n" {
		t.Errorf("body = %q, want empty array", rec.Body.String())
	}
}
