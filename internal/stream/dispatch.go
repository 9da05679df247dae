package stream

import (
	"log"

	"github.com/joshp123/smarthq/internal/erd"
)

// Sink receives typed device state changes. The external accessory
// framework sits behind this interface.
type Sink interface {
	DeviceStateChanged(applianceID string, code erd.Code, value any)
}

// Dispatcher matches raw events against the set of discovered appliances
// and decodes known property codes into typed notifications. Events for
// unknown appliances or codes are dropped, not errors.
type Dispatcher struct {
	known map[string]bool
	sink  Sink
}

func NewDispatcher(applianceIDs []string, sink Sink) *Dispatcher {
	known := make(map[string]bool, len(applianceIDs))
	for _, id := range applianceIDs {
		known[id] = true
	}
	return &Dispatcher{known: known, sink: sink}
}

// Handle processes one event. Safe to use as a Channel handler; it keeps
// delivery order because it runs synchronously.
func (d *Dispatcher) Handle(ev Event) {
	if !d.known[ev.ApplianceID] {
		unknownDeviceTotal.Inc()
		log.Printf("stream: event for unknown appliance %s, dropping", ev.ApplianceID)
		return
	}
	cap, ok := erd.Lookup(ev.Code)
	if !ok {
		return
	}
	value, err := cap.Codec.Decode(ev.Value)
	if err != nil {
		decodeFailures.Inc()
		log.Printf("stream: bad value for %s %s: %v", ev.ApplianceID, ev.Code, err)
		return
	}
	d.sink.DeviceStateChanged(ev.ApplianceID, ev.Code, value)
}
