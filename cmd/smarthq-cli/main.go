package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joshp123/smarthq/internal/auth"
	"github.com/joshp123/smarthq/internal/config"
	"github.com/joshp123/smarthq/internal/discovery"
	"github.com/joshp123/smarthq/internal/erd"
	"github.com/joshp123/smarthq/internal/smarthq"
	"github.com/joshp123/smarthq/internal/stream"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	configPath := envOrDefault("SMARTHQ_CONFIG", config.DefaultPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("config", err)
	}

	switch os.Args[1] {
	case "login":
		loginCmd(cfg)
	case "appliances":
		appliancesCmd(cfg)
	case "read":
		readCmd(cfg, os.Args[2:])
	case "write":
		writeCmd(cfg, os.Args[2:])
	case "watch":
		watchCmd(cfg)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: smarthq-cli <command>

commands:
  login                            log in and persist the session state
  appliances                       list the account's appliances
  read <appliance> <erd>           read one property (raw and decoded)
  write <appliance> <erd> <value>  write one property
  watch                            stream live telemetry to stdout`)
}

func loginCmd(cfg *config.Config) {
	ctx, cancel := commandContext()
	defer cancel()

	session := newSession(cfg)
	cred, err := session.Login(ctx, cfg.Auth.Username, cfg.Auth.Password)
	if err != nil {
		fatal("login", err)
	}
	fmt.Printf("logged in, token expires %s\n", cred.ExpiresAt().Format(time.RFC3339))

	if cfg.Auth.StatePath != "" {
		persister := &auth.Persister{Path: cfg.Auth.StatePath}
		if err := persister.Persist(ctx, cfg.Auth.Username, cred); err != nil {
			fatal("persist state", err)
		}
		fmt.Printf("session state written to %s\n", cfg.Auth.StatePath)
	}
}

func appliancesCmd(cfg *config.Config) {
	ctx, cancel := commandContext()
	defer cancel()

	client := connect(ctx, cfg)
	result, err := discovery.Discover(ctx, client)
	if err != nil {
		fatal("discover", err)
	}

	rows := [][]string{{"APPLIANCE", "NICKNAME", "BRAND", "MODEL", "CAPABILITIES"}}
	for _, d := range result.Devices {
		names := make([]string, 0, len(d.Capabilities))
		for _, c := range d.Capabilities {
			names = append(names, c.Name)
		}
		rows = append(rows, []string{d.ApplianceID, d.Nickname, d.Brand, d.Model, strings.Join(names, ", ")})
	}
	table(rows)
}

func readCmd(cfg *config.Config, args []string) {
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	applianceID, code := args[0], erd.Code(args[1])

	ctx, cancel := commandContext()
	defer cancel()

	client := connect(ctx, cfg)
	raw, err := client.ReadERD(ctx, applianceID, code)
	if err != nil {
		fatal("read", err)
	}
	fmt.Printf("raw: %s\n", raw)

	if cap, ok := erd.Lookup(code); ok {
		value, err := cap.Codec.Decode(raw)
		if err != nil {
			fatal("decode", err)
		}
		fmt.Printf("%s: %v\n", cap.Name, value)
	}
}

func writeCmd(cfg *config.Config, args []string) {
	if len(args) < 3 {
		usage()
		os.Exit(2)
	}
	applianceID, code, input := args[0], erd.Code(args[1]), args[2]

	cap, ok := erd.Lookup(code)
	if !ok {
		fatal("write", fmt.Errorf("unknown erd code %s", code))
	}
	value, err := parseInput(cap, input)
	if err != nil {
		fatal("write", err)
	}

	ctx, cancel := commandContext()
	defer cancel()

	client := connect(ctx, cfg)
	list, err := client.Appliances(ctx)
	if err != nil {
		fatal("resolve user", err)
	}
	if err := client.WriteValue(ctx, list.UserID, applianceID, cap, value); err != nil {
		fatal("write", err)
	}
	fmt.Printf("%s = %v\n", cap.Name, value)
}

func watchCmd(cfg *config.Config) {
	ctx := context.Background()
	client := connect(ctx, cfg)

	result, err := discovery.Discover(ctx, client)
	if err != nil {
		fatal("discover", err)
	}
	ids := make([]string, 0, len(result.Devices))
	for _, d := range result.Devices {
		ids = append(ids, d.ApplianceID)
	}

	dispatcher := stream.NewDispatcher(ids, printSink{})
	channel := stream.New(client, dispatcher.Handle,
		stream.WithKeepalive(time.Duration(cfg.Stream.KeepaliveSeconds)*time.Second))
	if err := channel.Connect(ctx); err != nil {
		fatal("connect", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-interrupt:
		_ = channel.Close()
	case <-channel.Done():
		if err := channel.Err(); err != nil {
			fatal("stream", err)
		}
	}
}

type printSink struct{}

func (printSink) DeviceStateChanged(applianceID string, code erd.Code, value any) {
	fmt.Printf("%s  %s  %s = %v\n", time.Now().Format(time.RFC3339), applianceID, code, value)
}

// connect logs in and returns an API client carrying the session token.
// Persisted refresh tokens are preferred over a fresh browser-form login.
func connect(ctx context.Context, cfg *config.Config) *smarthq.Client {
	session := newSession(cfg)
	store := &auth.Store{}

	cred, err := restoreOrLogin(ctx, cfg, session)
	if err != nil {
		fatal("login", err)
	}
	store.Replace(cred)

	client, err := smarthq.NewClient(store, smarthq.WithBaseURL(cfg.API.BaseURL))
	if err != nil {
		fatal("api client", err)
	}
	return client
}

func restoreOrLogin(ctx context.Context, cfg *config.Config, session *auth.Session) (auth.Credential, error) {
	if cfg.Auth.StatePath != "" {
		state, err := auth.LoadState(cfg.Auth.StatePath)
		if err == nil && state.Username == cfg.Auth.Username {
			cred, err := session.Refresh(ctx, state.RefreshToken)
			if err == nil {
				return cred, nil
			}
			log.Printf("persisted session rejected, logging in: %v", err)
		}
	}
	return session.Login(ctx, cfg.Auth.Username, cfg.Auth.Password)
}

func newSession(cfg *config.Config) *auth.Session {
	return auth.NewSession(auth.Options{
		IssuerURL: cfg.Auth.IssuerURL,
		Timeout:   time.Duration(cfg.Auth.TimeoutSeconds) * time.Second,
	})
}

func parseInput(cap erd.Capability, input string) (any, error) {
	switch cap.Kind {
	case erd.KindLight:
		switch strings.ToUpper(strings.TrimSpace(input)) {
		case "ON", "TRUE", "1":
			return true, nil
		case "OFF", "FALSE", "0":
			return false, nil
		}
		return nil, fmt.Errorf("light values are on or off, got %q", input)
	case erd.KindTemperature:
		celsius, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid temperature %q", input)
		}
		return celsius, nil
	}
	return nil, fmt.Errorf("cannot write %s values", cap.Kind)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
