// Package openaq implements the air quality repository against the
// OpenAQ v3 HTTP API.
package openaq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/infra/backoff"
	"github.com/vietddude/airwatch/internal/pipeline/metrics"
)

// Response is a completed HTTP exchange: status plus raw body.
type Response struct {
	StatusCode int
	Body       []byte
}

// HTTPStatus lets the backoff executor detect retryable statuses.
func (r *Response) HTTPStatus() int { return r.StatusCode }

// HTTPBody lets the backoff executor carry the last response payload
// into its terminal error.
func (r *Response) HTTPBody() []byte { return r.Body }

// LocationsCache caches per-country location listings between runs.
// Implementations may be absent; the client works without one.
type LocationsCache interface {
	GetLocations(ctx context.Context, countryISO string) ([]Location, bool)
	SetLocations(ctx context.Context, countryISO string, locations []Location)
}

// Config holds OpenAQ client settings.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client fetches air quality data from OpenAQ.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	policy     backoff.Policy
	cache      LocationsCache
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy overrides the retry policy for every endpoint; use
// backoff.RateLimitPolicy() for heavily throttled keys.
func WithPolicy(p backoff.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithCache attaches a locations cache.
func WithCache(cache LocationsCache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient creates an OpenAQ API client. The underlying HTTP client
// and its connection pool are reused across calls and retries.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy: backoff.DefaultPolicy,
		log:    slog.Default().With("component", "openaq"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs one GET exchange. Transport failures come back tagged
// with their failure kind; any received response is returned whole,
// whatever its status.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, backoff.WrapTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backoff.WrapTransport(err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// getJSON runs a retry-wrapped GET and decodes the classified payload
// into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	metrics.APICallsTotal.WithLabelValues(endpoint).Inc()

	policy := c.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.APIRetriesTotal.WithLabelValues(endpoint).Inc()
	}

	resp, err := backoff.Do(ctx, policy, func() (*Response, error) {
		return c.get(ctx, path, query)
	})
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, failureLabel(err)).Inc()
		return err
	}

	payload, err := classify(resp)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint, errorType(err)).Inc()
		return err
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// Countries fetches all countries known to the API.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	c.log.Debug("fetching countries")

	var result countriesResponse
	if err := c.getJSON(ctx, "countries", "/countries", nil, &result); err != nil {
		return nil, err
	}

	c.log.Info("fetched countries", "count", len(result.Results))
	return result.Results, nil
}

// Locations fetches all monitoring locations for a country, consulting
// the cache first when one is attached.
func (c *Client) Locations(ctx context.Context, countryISO string) ([]Location, error) {
	if c.cache != nil {
		if locations, ok := c.cache.GetLocations(ctx, countryISO); ok {
			c.log.Debug("locations cache hit", "country", countryISO)
			return locations, nil
		}
	}

	c.log.Debug("fetching locations", "country", countryISO)

	query := url.Values{}
	query.Set("iso", countryISO)
	query.Set("limit", "1000")

	var result locationsResponse
	if err := c.getJSON(ctx, "locations", "/locations", query, &result); err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.SetLocations(ctx, countryISO, result.Results)
	}

	c.log.Info("fetched locations", "country", countryISO, "count", len(result.Results))
	return result.Results, nil
}

// LatestForLocation fetches the latest sensor readings at a station.
func (c *Client) LatestForLocation(ctx context.Context, locationID int64) ([]LatestReading, error) {
	c.log.Debug("fetching latest measurements", "location_id", locationID)

	var result latestResponse
	path := fmt.Sprintf("/locations/%d/latest", locationID)
	if err := c.getJSON(ctx, "latest", path, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// MeasurementsForPlace fetches the latest readings for the required
// parameters from up to locationsLimit stations matching the place.
func (c *Client) MeasurementsForPlace(ctx context.Context, place domain.Place, locationsLimit int) ([]domain.Measurement, error) {
	locations, err := c.Locations(ctx, place.CountryISO)
	if err != nil {
		return nil, err
	}

	var matched []Location
	for _, loc := range locations {
		if place.MatchesLocation(loc.Locality, loc.Name) {
			matched = append(matched, loc)
		}
	}
	if len(matched) > locationsLimit {
		matched = matched[:locationsLimit]
	}

	var all []domain.Measurement
	for _, loc := range matched {
		measurements, err := c.latestByParameter(ctx, loc)
		if err != nil {
			return nil, err
		}
		all = append(all, measurements...)
	}
	return all, nil
}

// latestByParameter returns at most one measurement per required
// parameter at a station. Parameters without data are omitted.
func (c *Client) latestByParameter(ctx context.Context, loc Location) ([]domain.Measurement, error) {
	sensorMap := loc.sensorParameterMap()

	readings, err := c.LatestForLocation(ctx, loc.ID)
	if err != nil {
		return nil, err
	}

	byParameter := make(map[domain.Parameter]domain.Measurement)
	for _, reading := range readings {
		info, ok := sensorMap[reading.SensorsID]
		if !ok {
			continue
		}

		ts, err := time.Parse(time.RFC3339, reading.Datetime.UTC)
		if err != nil {
			c.log.Warn("skipping reading with bad timestamp",
				"location_id", loc.ID, "sensor_id", reading.SensorsID, "error", err)
			continue
		}

		byParameter[info.Parameter] = domain.Measurement{
			City:      loc.Locality,
			Location:  loc.Name,
			Parameter: info.Parameter,
			Value:     reading.Value,
			Unit:      info.Unit,
			Timestamp: ts,
		}
	}

	measurements := make([]domain.Measurement, 0, len(byParameter))
	for _, param := range domain.RequiredParameters {
		if m, ok := byParameter[param]; ok {
			measurements = append(measurements, m)
		}
	}
	return measurements, nil
}

// failureLabel distinguishes an exhausted retry budget from errors
// that never entered the retry path: non-retryable transport failures
// and cancellation.
func failureLabel(err error) string {
	var exhausted *backoff.ExhaustedError
	if errors.As(err, &exhausted) {
		return "retry_exhausted"
	}
	return "transport"
}

func errorType(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "unknown"
	}
	switch apiErr.kind {
	case ErrAuthentication:
		return "authentication"
	case ErrNotFound:
		return "not_found"
	case ErrRateLimited:
		return "rate_limited"
	default:
		return "api"
	}
}
