package openaq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/infra/backoff"
)

func testPolicy(maxRetries int) backoff.Policy {
	return backoff.Policy{
		MaxRetries:      maxRetries,
		BaseDelay:       time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		ExponentialBase: 2.0,
	}
}

func newTestClient(serverURL string, maxRetries int, opts ...Option) *Client {
	cfg := Config{BaseURL: serverURL, APIKey: "test-key", Timeout: 5 * time.Second}
	opts = append([]Option{WithPolicy(testPolicy(maxRetries))}, opts...)
	return NewClient(cfg, opts...)
}

func TestCountries(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		if r.URL.Path != "/countries" {
			t.Errorf("path = %q, want /countries", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"id":1,"code":"PL","name":"Poland"},{"id":2,"code":"GB","name":"United Kingdom"}]}`))
	}))
	defer server.Close()

	countries, err := newTestClient(server.URL, 0).Countries(context.Background())
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", gotKey)
	}
	if len(countries) != 2 || countries[0].Code != "PL" {
		t.Errorf("unexpected countries: %+v", countries)
	}
}

func TestCountries_NotFoundNoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Countries(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (404 must not be retried)", calls)
	}
}

func TestCountries_AuthFailureNoRetry(t *testing.T) {
	for _, status := range []int{401, 403} {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(status)
			w.Write([]byte("denied"))
		}))

		_, err := newTestClient(server.URL, 3).Countries(context.Background())
		server.Close()

		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("status %d: err = %v, want ErrAuthentication", status, err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != status {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, status)
		}
		if calls != 1 {
			t.Errorf("status %d: calls = %d, want 1", status, calls)
		}
	}
}

func TestCountries_RetryableStatusExhausts(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Rate limit exceeded"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 2).Countries(context.Background())

	var exhausted *backoff.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *backoff.ExhaustedError", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	// The server's last answer must survive into the terminal error.
	var se *backoff.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *backoff.StatusError in chain", err)
	}
	if string(se.Body) != "Rate limit exceeded" {
		t.Errorf("Body = %q, want %q", se.Body, "Rate limit exceeded")
	}
	if !strings.Contains(err.Error(), "Rate limit exceeded") {
		t.Errorf("Error() = %q, want it to include the response body", err.Error())
	}
}

func TestFailureLabel(t *testing.T) {
	exhausted := &backoff.ExhaustedError{Attempts: 4, Last: &backoff.StatusError{Code: 429}}
	if got := failureLabel(exhausted); got != "retry_exhausted" {
		t.Errorf("failureLabel(exhausted) = %q, want retry_exhausted", got)
	}
	if got := failureLabel(fmt.Errorf("call: %w", exhausted)); got != "retry_exhausted" {
		t.Errorf("failureLabel(wrapped exhausted) = %q, want retry_exhausted", got)
	}
	if got := failureLabel(context.Canceled); got != "transport" {
		t.Errorf("failureLabel(canceled) = %q, want transport", got)
	}
	if got := failureLabel(&backoff.TransportError{Kind: backoff.KindUnknown, Err: errors.New("boom")}); got != "transport" {
		t.Errorf("failureLabel(transport) = %q, want transport", got)
	}
}

func TestCountries_RecoversAfterServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"results":[{"id":1,"code":"PL","name":"Poland"}]}`))
	}))
	defer server.Close()

	countries, err := newTestClient(server.URL, 3).Countries(context.Background())
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(countries) != 1 {
		t.Errorf("got %d countries, want 1", len(countries))
	}
}

const locationsPayload = `{"results":[
	{"id":10,"name":"Warszawa-Centrum","locality":"Warszawa","sensors":[
		{"id":101,"parameter":{"name":"pm25","units":"µg/m³"}},
		{"id":102,"parameter":{"name":"pm10","units":"µg/m³"}},
		{"id":103,"parameter":{"name":"so2","units":"µg/m³"}}
	]},
	{"id":20,"name":"Gdansk-Wrzeszcz","locality":"Gdansk","sensors":[
		{"id":201,"parameter":{"name":"no2","units":"µg/m³"}}
	]}
]}`

func TestMeasurementsForPlace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/locations":
			if iso := r.URL.Query().Get("iso"); iso != "PL" {
				t.Errorf("iso = %q, want PL", iso)
			}
			w.Write([]byte(locationsPayload))
		case "/locations/10/latest":
			w.Write([]byte(`{"results":[
				{"sensorsId":101,"value":12.5,"datetime":{"utc":"2026-08-30T10:00:00Z"}},
				{"sensorsId":102,"value":20.1,"datetime":{"utc":"2026-08-30T10:00:00Z"}},
				{"sensorsId":103,"value":3.0,"datetime":{"utc":"2026-08-30T10:00:00Z"}},
				{"sensorsId":999,"value":1.0,"datetime":{"utc":"2026-08-30T10:00:00Z"}}
			]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	place := domain.Place{CountryISO: "PL", CityAliases: []string{"Warszawa", "Warsaw"}}
	measurements, err := newTestClient(server.URL, 0).MeasurementsForPlace(context.Background(), place, 3)
	if err != nil {
		t.Fatalf("MeasurementsForPlace failed: %v", err)
	}

	// so2 is not a recognized parameter and sensor 999 is unmapped:
	// only pm25 and pm10 survive.
	if len(measurements) != 2 {
		t.Fatalf("got %d measurements, want 2: %+v", len(measurements), measurements)
	}

	first := measurements[0]
	if first.Parameter != domain.ParameterPM25 || first.Value != 12.5 {
		t.Errorf("first = %+v, want pm25 12.5", first)
	}
	if first.City != "Warszawa" || first.Location != "Warszawa-Centrum" {
		t.Errorf("first place = (%q, %q)", first.City, first.Location)
	}
	want := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, want)
	}
}

func TestMeasurementsForPlace_LocationsLimit(t *testing.T) {
	latestCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/locations" {
			w.Write([]byte(`{"results":[
				{"id":1,"name":"Krakow-A","locality":"Krakow","sensors":[]},
				{"id":2,"name":"Krakow-B","locality":"Krakow","sensors":[]},
				{"id":3,"name":"Krakow-C","locality":"Krakow","sensors":[]}
			]}`))
			return
		}
		latestCalls++
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	place := domain.Place{CountryISO: "PL", CityAliases: []string{"Krakow"}}
	_, err := newTestClient(server.URL, 0).MeasurementsForPlace(context.Background(), place, 2)
	if err != nil {
		t.Fatalf("MeasurementsForPlace failed: %v", err)
	}
	if latestCalls != 2 {
		t.Errorf("latest calls = %d, want 2 (locations limit)", latestCalls)
	}
}

type stubCache struct {
	locations map[string][]Location
	sets      int
}

func (c *stubCache) GetLocations(_ context.Context, iso string) ([]Location, bool) {
	locs, ok := c.locations[iso]
	return locs, ok
}

func (c *stubCache) SetLocations(_ context.Context, iso string, locs []Location) {
	c.sets++
	c.locations[iso] = locs
}

func TestLocations_Cache(t *testing.T) {
	apiCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		w.Write([]byte(`{"results":[{"id":1,"name":"Lisboa-Olivais","locality":"Lisboa","sensors":[]}]}`))
	}))
	defer server.Close()

	cache := &stubCache{locations: make(map[string][]Location)}
	client := newTestClient(server.URL, 0, WithCache(cache))

	for i := 0; i < 3; i++ {
		locs, err := client.Locations(context.Background(), "PT")
		if err != nil {
			t.Fatalf("Locations failed: %v", err)
		}
		if len(locs) != 1 {
			t.Fatalf("got %d locations, want 1", len(locs))
		}
	}

	if apiCalls != 1 {
		t.Errorf("api calls = %d, want 1 (cache must absorb repeats)", apiCalls)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
}
