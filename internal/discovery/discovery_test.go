package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/joshp123/smarthq/internal/erd"
	"github.com/joshp123/smarthq/internal/smarthq"
)

type fakeAPI struct {
	list     smarthq.ApplianceList
	details  map[string]smarthq.Appliance
	features map[string][]string
	err      error
}

func (f *fakeAPI) Appliances(ctx context.Context) (smarthq.ApplianceList, error) {
	return f.list, f.err
}

func (f *fakeAPI) Appliance(ctx context.Context, id string) (smarthq.Appliance, error) {
	d, ok := f.details[id]
	if !ok {
		return smarthq.Appliance{}, errors.New("no such appliance")
	}
	return d, nil
}

func (f *fakeAPI) Features(ctx context.Context, id string) ([]string, error) {
	return f.features[id], nil
}

func TestDiscoverMergesDetailsAndFeatures(t *testing.T) {
	api := &fakeAPI{
		list: smarthq.ApplianceList{
			UserID: "user-1",
			Items: []smarthq.Appliance{
				{ApplianceID: "A1", JID: "a1@ge.com", Nickname: "Kitchen Oven"},
			},
		},
		details: map[string]smarthq.Appliance{
			"A1": {ApplianceID: "A1", Brand: "GE", Model: "PT9800", Serial: "S123"},
		},
		features: map[string][]string{
			"A1": {"COOKING_V1_UPPER_OVEN_FOUNDATION", "SOMETHING_UNKNOWN"},
		},
	}

	result, err := Discover(context.Background(), api)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if result.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", result.UserID)
	}
	if len(result.Devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(result.Devices))
	}

	d := result.Devices[0]
	if d.Nickname != "Kitchen Oven" {
		t.Errorf("Nickname = %q", d.Nickname)
	}
	if d.Brand != "GE" || d.Model != "PT9800" || d.Serial != "S123" {
		t.Errorf("details not merged: %+v", d)
	}
	if len(d.Features) != 2 {
		t.Errorf("Features = %v", d.Features)
	}
	// Unknown feature names contribute no capabilities.
	codes := map[erd.Code]bool{}
	for _, c := range d.Capabilities {
		codes[c.Code] = true
	}
	if !codes[erd.UpperOvenLight] || !codes[erd.UpperOvenCookMode] {
		t.Errorf("capabilities = %+v", d.Capabilities)
	}
	if len(d.Capabilities) != 2 {
		t.Errorf("got %d capabilities, want 2", len(d.Capabilities))
	}
}

func TestDeviceUUIDStable(t *testing.T) {
	a := DeviceUUID("a1@ge.com")
	b := DeviceUUID("a1@ge.com")
	if a != b {
		t.Errorf("same jid produced different ids: %s vs %s", a, b)
	}
	if DeviceUUID("other@ge.com") == a {
		t.Error("different jids produced the same id")
	}
}

func TestDiscoverListError(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	if _, err := Discover(context.Background(), api); err == nil {
		t.Fatal("expected error")
	}
}

func TestDiscoverDetailError(t *testing.T) {
	api := &fakeAPI{
		list: smarthq.ApplianceList{
			Items: []smarthq.Appliance{{ApplianceID: "A1", JID: "a1@ge.com"}},
		},
	}
	if _, err := Discover(context.Background(), api); err == nil {
		t.Fatal("expected error")
	}
}
