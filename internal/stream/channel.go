package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joshp123/smarthq/internal/erd"
)

// State of a channel instance. Closed is terminal: a channel is not
// reused after its transport goes away; callers decide whether to build
// a new one.
type State string

const (
	Connecting State = "connecting"
	Open       State = "open"
	Closed     State = "closed"
)

const DefaultKeepalive = 30 * time.Second

// EndpointResolver resolves the per-session websocket endpoint. The
// appliance API client satisfies it.
type EndpointResolver interface {
	WebsocketEndpoint(ctx context.Context) (string, error)
}

// Channel is one telemetry connection. Events are handed to the handler
// synchronously from the read loop, preserving transport order.
type Channel struct {
	resolver  EndpointResolver
	handler   func(Event)
	keepalive time.Duration
	dialer    *websocket.Dialer

	mu    sync.Mutex
	conn  *websocket.Conn
	state State

	// writeMu serializes outbound frames without holding the state
	// lock across the network write.
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
	reason    error
}

type Option func(*Channel)

// WithKeepalive overrides the keepalive cadence.
func WithKeepalive(interval time.Duration) Option {
	return func(c *Channel) { c.keepalive = interval }
}

func New(resolver EndpointResolver, handler func(Event), opts ...Option) *Channel {
	c := &Channel{
		resolver:  resolver,
		handler:   handler,
		keepalive: DefaultKeepalive,
		dialer:    websocket.DefaultDialer,
		state:     Connecting,
		closed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect resolves the endpoint, opens the transport, sends the wildcard
// subscription and starts the read and keepalive loops. Subscription and
// keepalive setup happen exactly once per connection, after the transport
// is up.
func (c *Channel) Connect(ctx context.Context) error {
	endpoint, err := c.resolver.WebsocketEndpoint(ctx)
	if err != nil {
		return fmt.Errorf("resolve websocket endpoint: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = Open
	c.mu.Unlock()
	connected.Set(1)

	if err := c.writeJSON(newSubscribe()); err != nil {
		c.shutdown(fmt.Errorf("send subscribe: %w", err))
		return err
	}

	go c.readLoop()
	go c.keepaliveLoop()
	return nil
}

// State returns the channel's current state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the channel reaches Closed.
func (c *Channel) Done() <-chan struct{} {
	return c.closed
}

// Err returns the close reason once Done is closed. A nil reason means a
// deliberate Close.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Close shuts the transport down cleanly.
func (c *Channel) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Channel) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("transport closed: %w", err))
			return
		}

		var msg envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			decodeFailures.Inc()
			continue
		}
		messagesTotal.WithLabelValues(msg.Kind).Inc()

		if msg.Kind != kindPublishERD || msg.Item == nil {
			continue
		}
		c.handler(Event{
			ApplianceID: msg.Item.ApplianceID,
			Code:        erd.Code(msg.Item.Erd),
			Value:       msg.Item.Value,
		})
	}
}

// keepaliveLoop pings for the lifetime of the Open state so intermediaries
// do not reap the idle connection.
func (c *Channel) keepaliveLoop() {
	ticker := time.NewTicker(c.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			if err := c.writeJSON(newPing()); err != nil {
				c.shutdown(fmt.Errorf("keepalive: %w", err))
				return
			}
			keepalivesTotal.Inc()
		}
	}
}

func (c *Channel) writeJSON(v any) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if state != Open {
		return fmt.Errorf("channel %s", state)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (c *Channel) shutdown(reason error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = Closed
		c.reason = reason
		conn := c.conn
		c.mu.Unlock()

		if conn != nil {
			_ = conn.Close()
		}
		connected.Set(0)
		close(c.closed)
	})
}
