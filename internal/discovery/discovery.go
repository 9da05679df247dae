// Package discovery enumerates the account's appliances and builds one
// logical device per appliance for the accessory framework to consume.
package discovery

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joshp123/smarthq/internal/erd"
	"github.com/joshp123/smarthq/internal/smarthq"
)

// Device is one discovered appliance with its declared capabilities.
// Immutable after discovery.
type Device struct {
	ApplianceID  string
	JID          string
	Nickname     string
	Brand        string
	Model        string
	Serial       string
	Features     []string
	Capabilities []erd.Capability

	// UUID is the stable external identifier derived from JID. The same
	// JID always yields the same UUID across runs, so accessory caches
	// survive restarts.
	UUID string
}

// Result is one discovery pass.
type Result struct {
	UserID  string
	Devices []Device
}

// API is the slice of the appliance client discovery needs.
type API interface {
	Appliances(ctx context.Context) (smarthq.ApplianceList, error)
	Appliance(ctx context.Context, applianceID string) (smarthq.Appliance, error)
	Features(ctx context.Context, applianceID string) ([]string, error)
}

// Discover lists appliances and merges each one's detail and feature
// responses into a Device. Details and features are fetched concurrently
// per appliance.
func Discover(ctx context.Context, api API) (Result, error) {
	list, err := api.Appliances(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list appliances: %w", err)
	}

	result := Result{UserID: list.UserID}
	for _, item := range list.Items {
		device, err := fetchDevice(ctx, api, item)
		if err != nil {
			return Result{}, err
		}
		result.Devices = append(result.Devices, device)
	}
	return result, nil
}

func fetchDevice(ctx context.Context, api API, item smarthq.Appliance) (Device, error) {
	var (
		details     smarthq.Appliance
		features    []string
		detailsErr  error
		featuresErr error
	)

	done := make(chan struct{}, 2)
	go func() {
		details, detailsErr = api.Appliance(ctx, item.ApplianceID)
		done <- struct{}{}
	}()
	go func() {
		features, featuresErr = api.Features(ctx, item.ApplianceID)
		done <- struct{}{}
	}()
	<-done
	<-done

	if detailsErr != nil {
		return Device{}, fmt.Errorf("appliance %s details: %w", item.ApplianceID, detailsErr)
	}
	if featuresErr != nil {
		return Device{}, fmt.Errorf("appliance %s features: %w", item.ApplianceID, featuresErr)
	}

	device := Device{
		ApplianceID:  item.ApplianceID,
		JID:          item.JID,
		Nickname:     item.Nickname,
		Brand:        details.Brand,
		Model:        details.Model,
		Serial:       details.Serial,
		Features:     features,
		Capabilities: erd.Capabilities(features),
		UUID:         DeviceUUID(item.JID),
	}
	if details.Nickname != "" {
		device.Nickname = details.Nickname
	}
	return device, nil
}

// DeviceUUID derives the stable accessory identifier from an appliance's
// jid.
func DeviceUUID(jid string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(jid)).String()
}
