// Package bridge exposes discovered appliances over MQTT. Each capability
// gets a state topic the bridge publishes to and a set topic it accepts
// commands on.
package bridge

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joshp123/smarthq/internal/erd"
)

const commandTimeout = 15 * time.Second

// Commander writes capability values back to the cloud.
type Commander interface {
	WriteValue(ctx context.Context, userID, applianceID string, cap erd.Capability, value any) error
}

// Bridge publishes state changes and relays inbound commands. It is the
// sink wired behind the telemetry channel.
type Bridge struct {
	broker    Broker
	prefix    string
	userID    string
	commander Commander

	// applianceID -> code -> capability, filled by Register.
	caps map[string]map[erd.Code]erd.Capability
}

func New(broker Broker, prefix, userID string, commander Commander) *Bridge {
	return &Bridge{
		broker:    broker,
		prefix:    prefix,
		userID:    userID,
		commander: commander,
		caps:      make(map[string]map[erd.Code]erd.Capability),
	}
}

// Register subscribes the set topic for every capability of one appliance.
// Must be called before the telemetry channel starts delivering events.
func (b *Bridge) Register(applianceID string, caps []erd.Capability) error {
	byCode := make(map[erd.Code]erd.Capability, len(caps))
	for _, cap := range caps {
		byCode[cap.Code] = cap
		topic := b.topic(applianceID, cap, "set")
		err := b.broker.Subscribe(topic, func(payload []byte) {
			b.handleCommand(applianceID, cap, payload)
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	b.caps[applianceID] = byCode
	return nil
}

// DeviceStateChanged publishes a decoded telemetry value to the
// capability's state topic. Events for unregistered appliances are
// dropped.
func (b *Bridge) DeviceStateChanged(applianceID string, code erd.Code, value any) {
	cap, ok := b.caps[applianceID][code]
	if !ok {
		return
	}
	payload := formatValue(cap, value)
	if payload == "" {
		return
	}
	topic := b.topic(applianceID, cap, "state")
	if err := b.broker.Publish(topic, []byte(payload)); err != nil {
		publishFailures.Inc()
		log.Printf("bridge: publish %s: %v", topic, err)
		return
	}
	publishTotal.Inc()
}

func (b *Bridge) handleCommand(applianceID string, cap erd.Capability, payload []byte) {
	value, err := parseValue(cap, string(payload))
	if err != nil {
		commandFailures.Inc()
		log.Printf("bridge: %s/%s: %v", applianceID, cap.Name, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := b.commander.WriteValue(ctx, b.userID, applianceID, cap, value); err != nil {
		commandFailures.Inc()
		log.Printf("bridge: write %s/%s: %v", applianceID, cap.Name, err)
		return
	}
	commandTotal.Inc()
}

func (b *Bridge) topic(applianceID string, cap erd.Capability, leaf string) string {
	return b.prefix + "/" + applianceID + "/" + slug(cap.Name) + "/" + leaf
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func formatValue(cap erd.Capability, value any) string {
	switch cap.Kind {
	case erd.KindLight:
		on, ok := value.(bool)
		if !ok {
			return ""
		}
		if on {
			return "ON"
		}
		return "OFF"
	case erd.KindTemperature:
		celsius, ok := value.(float64)
		if !ok {
			return ""
		}
		return strconv.FormatFloat(celsius, 'f', 1, 64)
	}
	return ""
}

func parseValue(cap erd.Capability, payload string) (any, error) {
	payload = strings.TrimSpace(payload)
	switch cap.Kind {
	case erd.KindLight:
		switch strings.ToUpper(payload) {
		case "ON", "TRUE", "1":
			return true, nil
		case "OFF", "FALSE", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid light command %q", payload)
	case erd.KindTemperature:
		celsius, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid temperature command %q", payload)
		}
		return celsius, nil
	}
	return nil, fmt.Errorf("unsupported capability kind %q", cap.Kind)
}
