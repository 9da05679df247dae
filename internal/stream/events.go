// Package stream maintains the persistent telemetry connection to the
// SmartHQ websocket service: one subscription and one keepalive loop per
// connection, with inbound property events dispatched in arrival order.
package stream

import "github.com/joshp123/smarthq/internal/erd"

// Event is one raw property change received on the transport.
type Event struct {
	ApplianceID string
	Code        erd.Code
	Value       string
}

const (
	kindPublishERD = "publish#erd"
	kindSubscribe  = "websocket#subscribe"
	kindPing       = "websocket#ping"
)

// envelope is the wire shape of every telemetry message.
type envelope struct {
	Kind string     `json:"kind"`
	Item *eventItem `json:"item,omitempty"`
}

type eventItem struct {
	ApplianceID string `json:"applianceId"`
	Erd         string `json:"erd"`
	Value       string `json:"value"`
}

type subscribeMessage struct {
	Kind      string   `json:"kind"`
	Action    string   `json:"action"`
	Resources []string `json:"resources"`
}

type pingMessage struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Action string `json:"action"`
}

func newSubscribe() subscribeMessage {
	return subscribeMessage{
		Kind:      kindSubscribe,
		Action:    "subscribe",
		Resources: []string{"/appliance/*/erd/*"},
	}
}

func newPing() pingMessage {
	return pingMessage{
		Kind:   kindPing,
		ID:     "keepalive-ping",
		Action: "ping",
	}
}
