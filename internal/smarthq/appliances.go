package smarthq

import (
	"context"
	"fmt"
)

// Appliances lists the account's appliances together with the owning
// user id, which writes must carry.
func (c *Client) Appliances(ctx context.Context) (ApplianceList, error) {
	var list ApplianceList
	if err := c.getJSON(ctx, "/appliance", &list); err != nil {
		return ApplianceList{}, err
	}
	return list, nil
}

// Appliance fetches the detail record of one appliance.
func (c *Client) Appliance(ctx context.Context, applianceID string) (Appliance, error) {
	var details Appliance
	if err := c.getJSON(ctx, "/appliance/"+applianceID, &details); err != nil {
		return Appliance{}, err
	}
	if details.ApplianceID == "" {
		details.ApplianceID = applianceID
	}
	return details, nil
}

// Features fetches the feature strings an appliance declares.
func (c *Client) Features(ctx context.Context, applianceID string) ([]string, error) {
	var features featureList
	if err := c.getJSON(ctx, "/appliance/"+applianceID+"/feature", &features); err != nil {
		return nil, err
	}
	return features.Features, nil
}

// WebsocketEndpoint resolves the per-session telemetry endpoint.
func (c *Client) WebsocketEndpoint(ctx context.Context) (string, error) {
	var info websocketInfo
	if err := c.getJSON(ctx, "/websocket", &info); err != nil {
		return "", err
	}
	if info.Endpoint == "" {
		return "", fmt.Errorf("websocket endpoint missing from response")
	}
	return info.Endpoint, nil
}
