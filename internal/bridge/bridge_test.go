package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/joshp123/smarthq/internal/erd"
)

type fakeBroker struct {
	mu        sync.Mutex
	published map[string]string
	subs      map[string]func([]byte)
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		published: make(map[string]string),
		subs:      make(map[string]func([]byte)),
	}
}

func (f *fakeBroker) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[topic] = string(payload)
	return nil
}

func (f *fakeBroker) Subscribe(topic string, cb func([]byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = cb
	return nil
}

func (f *fakeBroker) Close() {}

func (f *fakeBroker) deliver(t *testing.T, topic, payload string) {
	t.Helper()
	f.mu.Lock()
	cb := f.subs[topic]
	f.mu.Unlock()
	if cb == nil {
		t.Fatalf("no subscription for %s", topic)
	}
	cb([]byte(payload))
}

type recordedWrite struct {
	userID      string
	applianceID string
	code        erd.Code
	value       any
}

type fakeCommander struct {
	mu     sync.Mutex
	writes []recordedWrite
}

func (f *fakeCommander) WriteValue(ctx context.Context, userID, applianceID string, cap erd.Capability, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, recordedWrite{userID, applianceID, cap.Code, value})
	return nil
}

func ovenCaps() []erd.Capability {
	return erd.Capabilities([]string{"COOKING_V1_UPPER_OVEN_FOUNDATION"})
}

func TestStateChangePublishes(t *testing.T) {
	broker := newFakeBroker()
	b := New(broker, "smarthq", "user-1", &fakeCommander{})
	if err := b.Register("A1", ovenCaps()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	b.DeviceStateChanged("A1", erd.UpperOvenLight, true)
	b.DeviceStateChanged("A1", erd.UpperOvenCookMode, 176.5)

	if got := broker.published["smarthq/A1/upper-oven-light/state"]; got != "ON" {
		t.Errorf("light state = %q, want ON", got)
	}
	if got := broker.published["smarthq/A1/upper-oven-temperature/state"]; got != "176.5" {
		t.Errorf("temperature state = %q, want 176.5", got)
	}
}

func TestStateChangeUnknownApplianceDropped(t *testing.T) {
	broker := newFakeBroker()
	b := New(broker, "smarthq", "user-1", &fakeCommander{})

	b.DeviceStateChanged("A1", erd.UpperOvenLight, true)

	if len(broker.published) != 0 {
		t.Errorf("published = %v, want nothing", broker.published)
	}
}

func TestCommandWritesValue(t *testing.T) {
	broker := newFakeBroker()
	commander := &fakeCommander{}
	b := New(broker, "smarthq", "user-1", commander)
	if err := b.Register("A1", ovenCaps()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	broker.deliver(t, "smarthq/A1/upper-oven-light/set", "ON")
	broker.deliver(t, "smarthq/A1/upper-oven-temperature/set", "190")

	if len(commander.writes) != 2 {
		t.Fatalf("got %d writes, want 2", len(commander.writes))
	}
	first := commander.writes[0]
	if first.userID != "user-1" || first.applianceID != "A1" || first.code != erd.UpperOvenLight || first.value != true {
		t.Errorf("light write = %+v", first)
	}
	second := commander.writes[1]
	if second.code != erd.UpperOvenCookMode || second.value != 190.0 {
		t.Errorf("temperature write = %+v", second)
	}
}

func TestCommandBadPayloadIgnored(t *testing.T) {
	broker := newFakeBroker()
	commander := &fakeCommander{}
	b := New(broker, "smarthq", "user-1", commander)
	if err := b.Register("A1", ovenCaps()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	broker.deliver(t, "smarthq/A1/upper-oven-light/set", "MAYBE")
	broker.deliver(t, "smarthq/A1/upper-oven-temperature/set", "hot")

	if len(commander.writes) != 0 {
		t.Errorf("writes = %+v, want none", commander.writes)
	}
}
