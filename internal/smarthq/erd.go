package smarthq

import (
	"context"
	"fmt"

	"github.com/joshp123/smarthq/internal/erd"
)

// ReadERD returns the raw hex value of one property.
func (c *Client) ReadERD(ctx context.Context, applianceID string, code erd.Code) (string, error) {
	var value erdValue
	if err := c.getJSON(ctx, erdPath(applianceID, code), &value); err != nil {
		return "", err
	}
	return value.Value, nil
}

// WriteERD writes a raw hex value to one property.
func (c *Client) WriteERD(ctx context.Context, userID, applianceID string, code erd.Code, value string) error {
	return c.postJSON(ctx, erdPath(applianceID, code), erdListEntry{
		Kind:        erdListEntryKind,
		UserID:      userID,
		ApplianceID: applianceID,
		Erd:         string(code),
		Value:       value,
	})
}

// ReadValue reads and decodes one capability's value.
func (c *Client) ReadValue(ctx context.Context, applianceID string, cap erd.Capability) (any, error) {
	raw, err := c.ReadERD(ctx, applianceID, cap.Code)
	if err != nil {
		return nil, err
	}
	value, err := cap.Codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", cap.Code, err)
	}
	return value, nil
}

// WriteValue encodes and writes one capability's value. Codecs that own
// only part of a record get the current raw bytes first, so everything
// outside the field survives the write.
func (c *Client) WriteValue(ctx context.Context, userID, applianceID string, cap erd.Capability, value any) error {
	current := ""
	if cap.Codec.NeedsCurrent() {
		raw, err := c.ReadERD(ctx, applianceID, cap.Code)
		if err != nil {
			return err
		}
		current = raw
	}
	encoded, err := cap.Codec.Encode(current, value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", cap.Code, err)
	}
	return c.WriteERD(ctx, userID, applianceID, cap.Code, encoded)
}

func erdPath(applianceID string, code erd.Code) string {
	return "/appliance/" + applianceID + "/erd/" + string(code)
}
