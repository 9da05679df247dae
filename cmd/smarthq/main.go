package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshp123/smarthq/internal/auth"
	"github.com/joshp123/smarthq/internal/bridge"
	"github.com/joshp123/smarthq/internal/config"
	"github.com/joshp123/smarthq/internal/discovery"
	"github.com/joshp123/smarthq/internal/erd"
	"github.com/joshp123/smarthq/internal/server"
	"github.com/joshp123/smarthq/internal/smarthq"
	"github.com/joshp123/smarthq/internal/stream"
)

func main() {
	configPath := envOrDefault("SMARTHQ_CONFIG", config.DefaultPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	session := auth.NewSession(auth.Options{
		IssuerURL: cfg.Auth.IssuerURL,
		Timeout:   time.Duration(cfg.Auth.TimeoutSeconds) * time.Second,
	})
	persister, err := persisterFromConfig(cfg)
	if err != nil {
		log.Fatalf("auth state: %v", err)
	}

	cred, err := establishCredential(ctx, cfg, session, persister)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	store := &auth.Store{}
	refresher := auth.NewRefresher(session, store, time.Duration(cfg.Auth.RefreshMarginSeconds)*time.Second)
	if persister != nil {
		refresher.OnReplace = func(cred auth.Credential) {
			pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := persister.Persist(pctx, cfg.Auth.Username, cred); err != nil {
				log.Printf("auth state persist: %v", err)
			}
		}
	}
	refresher.Start(cred)
	defer refresher.Stop()

	httpClient := smarthq.WrapHTTP(&http.Client{Timeout: 15 * time.Second}, cfg.API.WritesPerMinute, cfg.API.WriteBurst)
	client, err := smarthq.NewClient(store,
		smarthq.WithBaseURL(cfg.API.BaseURL),
		smarthq.WithHTTPClient(httpClient))
	if err != nil {
		log.Fatalf("api client: %v", err)
	}

	result, err := discovery.Discover(ctx, client)
	if err != nil {
		log.Fatalf("discovery: %v", err)
	}
	for _, device := range result.Devices {
		log.Printf("discovered %s (%s) with %d capabilities", device.Nickname, device.ApplianceID, len(device.Capabilities))
	}

	var sink stream.Sink = logSink{}
	if cfg.MQTT.Host != "" {
		broker, err := bridge.Dial(cfg.MQTT)
		if err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		defer broker.Close()
		b := bridge.New(broker, cfg.MQTT.TopicPrefix, result.UserID, client)
		for _, device := range result.Devices {
			if err := b.Register(device.ApplianceID, device.Capabilities); err != nil {
				log.Fatalf("mqtt register %s: %v", device.ApplianceID, err)
			}
		}
		sink = b
	}

	ids := make([]string, 0, len(result.Devices))
	for _, device := range result.Devices {
		ids = append(ids, device.ApplianceID)
	}
	dispatcher := stream.NewDispatcher(ids, sink)
	channel := stream.New(client, dispatcher.Handle,
		stream.WithKeepalive(time.Duration(cfg.Stream.KeepaliveSeconds)*time.Second))
	if err := channel.Connect(ctx); err != nil {
		log.Fatalf("telemetry connect: %v", err)
	}
	defer channel.Close()

	registry := metricsRegistry()
	httpServer := server.New(cfg.HTTP.Addr, registry, staticInventory(result.Devices))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil {
			log.Fatalf("http serve: %v", err)
		}
	}()

	select {
	case err := <-refresher.Done():
		if errors.Is(err, auth.ErrSessionExpired) {
			log.Fatalf("session expired, re-login required: %v", err)
		}
		log.Fatalf("session: %v", err)
	case <-channel.Done():
		if err := channel.Err(); err != nil {
			log.Fatalf("telemetry channel closed: %v", err)
		}
		log.Print("telemetry channel closed")
	}
}

// establishCredential refreshes from persisted state when possible and
// falls back to a full browser-form login.
func establishCredential(ctx context.Context, cfg *config.Config, session *auth.Session, persister *auth.Persister) (auth.Credential, error) {
	if persister != nil {
		state, err := persister.Load(ctx)
		switch {
		case err == nil && state.Username == cfg.Auth.Username:
			cred, err := session.Refresh(ctx, state.RefreshToken)
			if err == nil {
				log.Print("session restored from persisted refresh token")
				return cred, nil
			}
			log.Printf("persisted session rejected, logging in: %v", err)
		case err != nil && !errors.Is(err, auth.ErrStateNotFound):
			log.Printf("auth state load: %v", err)
		}
	}
	return session.Login(ctx, cfg.Auth.Username, cfg.Auth.Password)
}

func persisterFromConfig(cfg *config.Config) (*auth.Persister, error) {
	if cfg.Auth.StatePath == "" {
		return nil, nil
	}
	p := &auth.Persister{Path: cfg.Auth.StatePath}
	if cfg.Auth.Blob.Endpoint != "" {
		blob, err := auth.NewS3Store(cfg.Auth.Blob)
		if err != nil {
			return nil, err
		}
		p.Blob = blob
	}
	return p, nil
}

func metricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(auth.MetricsCollectors()...)
	registry.MustRegister(stream.MetricsCollectors()...)
	registry.MustRegister(bridge.MetricsCollectors()...)
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "smarthq_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))
	return registry
}

// logSink is the telemetry sink when no broker is configured.
type logSink struct{}

func (logSink) DeviceStateChanged(applianceID string, code erd.Code, value any) {
	log.Printf("state %s %s = %v", applianceID, code, value)
}

type staticInventory []discovery.Device

func (s staticInventory) Devices() []discovery.Device { return s }

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
