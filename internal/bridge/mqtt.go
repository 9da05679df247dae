package bridge

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/joshp123/smarthq/internal/config"
)

// Broker is the slice of an MQTT connection the bridge needs. Split out
// so tests can run against an in-memory fake.
type Broker interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, cb func(payload []byte)) error
	Close()
}

type pahoBroker struct {
	client mqtt.Client
}

// Dial connects to the configured broker. Reconnects and resubscribes
// are handled by the paho client itself.
func Dial(cfg config.MQTTConfig) (Broker, error) {
	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = randomClientID()
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetResumeSubs(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &pahoBroker{client: client}, nil
}

func (b *pahoBroker) Publish(topic string, payload []byte) error {
	if token := b.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (b *pahoBroker) Subscribe(topic string, cb func(payload []byte)) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		cb(msg.Payload())
	}
	if token := b.client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (b *pahoBroker) Close() {
	b.client.Disconnect(250)
}

func randomClientID() string {
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)
	return "smarthq-" + base64.RawURLEncoding.EncodeToString(nonce)
}
