package smarthq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joshp123/smarthq/internal/erd"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Fatalf("authorization = %q", got)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(staticToken("test-token"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestAppliancesAndFeatures(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/appliance":
			io.WriteString(w, `{"userId":"user-1","items":[{"applianceId":"A1","jid":"a1@ge.com","nickname":"Oven"}]}`)
		case "/appliance/A1":
			io.WriteString(w, `{"applianceId":"A1","brand":"GE","model":"PT7800","serial":"SN1","nickname":"Oven"}`)
		case "/appliance/A1/feature":
			io.WriteString(w, `{"applianceId":"A1","features":["COOKING_V1_UPPER_OVEN_FOUNDATION"]}`)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	ctx := context.Background()
	list, err := client.Appliances(ctx)
	if err != nil {
		t.Fatalf("appliances: %v", err)
	}
	if list.UserID != "user-1" || len(list.Items) != 1 || list.Items[0].ApplianceID != "A1" {
		t.Errorf("list = %+v", list)
	}

	details, err := client.Appliance(ctx, "A1")
	if err != nil {
		t.Fatalf("appliance: %v", err)
	}
	if details.Brand != "GE" || details.Serial != "SN1" {
		t.Errorf("details = %+v", details)
	}

	features, err := client.Features(ctx, "A1")
	if err != nil {
		t.Fatalf("features: %v", err)
	}
	if len(features) != 1 || features[0] != "COOKING_V1_UPPER_OVEN_FOUNDATION" {
		t.Errorf("features = %v", features)
	}
}

func TestWebsocketEndpoint(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		io.WriteString(w, `{"endpoint":"wss://ws.example.com/v1?token=abc"}`)
	}))

	endpoint, err := client.WebsocketEndpoint(context.Background())
	if err != nil {
		t.Fatalf("websocket endpoint: %v", err)
	}
	if endpoint != "wss://ws.example.com/v1?token=abc" {
		t.Errorf("endpoint = %q", endpoint)
	}
}

func TestWriteValueReadModifyWrite(t *testing.T) {
	// cook-mode record: mode byte + BE uint16 temperature + trailing bytes
	record := "0a015effee"
	var written erdListEntry

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		if r.URL.Path != "/appliance/A1/erd/0x5100" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"value":"`+record+`"}`)
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&written); err != nil {
				t.Fatalf("decode write: %v", err)
			}
			record = written.Value
			w.WriteHeader(http.StatusOK)
		}
	}))

	cap := erd.Capability{
		Code:  erd.UpperOvenCookMode,
		Codec: erd.TempCodec{Offset: erd.CookModeTempOffset},
	}
	ctx := context.Background()

	if err := client.WriteValue(ctx, "user-1", "A1", cap, erd.FahrenheitToCelsius(400)); err != nil {
		t.Fatalf("write value: %v", err)
	}

	if written.Kind != "appliance#erdListEntry" || written.UserID != "user-1" ||
		written.ApplianceID != "A1" || written.Erd != "0x5100" {
		t.Errorf("envelope = %+v", written)
	}
	// 400F = 0x0190; mode and trailing bytes untouched
	if record != "0a0190ffee" {
		t.Errorf("record = %q", record)
	}

	got, err := client.ReadValue(ctx, "A1", cap)
	if err != nil {
		t.Fatalf("read value: %v", err)
	}
	celsius := got.(float64)
	if c := erd.FahrenheitToCelsius(400); celsius < c-1e-9 || celsius > c+1e-9 {
		t.Errorf("read back %v", celsius)
	}
}

func TestWriteBool(t *testing.T) {
	var written erdListEntry
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			t.Fatal("bool write must not read first")
		}
		if err := json.NewDecoder(r.Body).Decode(&written); err != nil {
			t.Fatalf("decode write: %v", err)
		}
	}))

	cap := erd.Capability{Code: erd.UpperOvenLight, Codec: erd.BoolCodec{}}
	if err := client.WriteValue(context.Background(), "user-1", "A1", cap, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	if written.Value != "01" {
		t.Errorf("value = %q", written.Value)
	}
}

func TestHTTPStatusError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "token expired")
	}))

	_, err := client.ReadERD(context.Background(), "A1", erd.UpperOvenLight)
	var statusErr HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPStatusError, got %v", err)
	}
}

func TestWriteRateGuard(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			io.WriteString(w, `{"value":"01"}`)
			return
		}
		calls++
	}))
	defer server.Close()

	guarded := WrapHTTP(&http.Client{Timeout: 5 * time.Second}, 60, 2)
	client, err := NewClient(staticToken("test-token"), WithBaseURL(server.URL), WithHTTPClient(guarded))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	cap := erd.Capability{Code: erd.UpperOvenLight, Codec: erd.BoolCodec{}}
	for i := 0; i < 2; i++ {
		if err := client.WriteValue(ctx, "u", "A1", cap, true); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	err = client.WriteValue(ctx, "u", "A1", cap, true)
	var rateErr RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if calls != 2 {
		t.Errorf("server saw %d writes", calls)
	}

	// reads are never guarded
	if _, err := client.ReadERD(ctx, "A1", erd.UpperOvenLight); err != nil {
		t.Errorf("read while throttled: %v", err)
	}
}
