// Package openweather implements domain.WeatherProvider against the
// OpenWeatherMap current weather API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public OpenWeatherMap endpoint.
const DefaultBaseURL = "https://api.openweathermap.org"

// Options configures the client.
type Options struct {
	APIKey         string
	BaseURL        string
	RequestsPerSec float64
	MaxRetries     uint64
}

// Client fetches last-hour rainfall for a coordinate.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	maxRetries uint64
	// initialBackoff is the first retry delay; tests shorten it.
	initialBackoff time.Duration
	logger         *slog.Logger
}

// NewClient creates an OpenWeatherMap client. The per-request deadline comes
// from the caller's context, so the http.Client carries no timeout of its own.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 10
	}
	burst := int(opts.RequestsPerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		apiKey:         opts.APIKey,
		httpClient:     &http.Client{},
		baseURL:        opts.BaseURL,
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSec), burst),
		maxRetries:     opts.MaxRetries,
		initialBackoff: 200 * time.Millisecond,
		logger:         logger,
	}
}

// Rainfall returns rain accumulated over the last hour in millimetres.
//
// Transient failures (transport errors, 429, 5xx) are retried with
// exponential backoff until ctx expires or retries run out. Everything else
// fails fast with a *domain.FetchError.
func (c *Client) Rainfall(ctx context.Context, coord domain.Coordinate) (float64, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(coord.Lat, 'f', 6, 64)},
		"lon":   {strconv.FormatFloat(coord.Lon, 'f', 6, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := c.baseURL + "/data/2.5/weather?" + params.Encode()

	var rain float64
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(&domain.FetchError{Kind: domain.FailureTimeout, Err: fmt.Errorf("rate limit wait: %w", err)})
		}
		r, err := c.doRequest(ctx, fullURL)
		if err != nil {
			if isRetryable(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		rain = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	notify := func(err error, next time.Duration) {
		c.logger.Debug("retrying weather lookup",
			"lat", coord.Lat,
			"lon", coord.Lon,
			"backoff", next,
			"error", err,
		)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return 0, err
	}
	return rain, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, &domain.FetchError{
			Kind: domain.FailureUpstream,
			Err:  &StatusError{StatusCode: resp.StatusCode, Body: string(body)},
		}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, &domain.FetchError{Kind: domain.FailureMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Rain == nil || payload.Rain.OneHour == nil {
		return 0, &domain.FetchError{Kind: domain.FailureMissingField, Err: errors.New("rain.1h not present")}
	}
	if *payload.Rain.OneHour < 0 {
		return 0, &domain.FetchError{Kind: domain.FailureMalformed, Err: fmt.Errorf("negative rainfall %v", *payload.Rain.OneHour)}
	}
	return *payload.Rain.OneHour, nil
}

// StatusError is a non-200 response from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openweathermap API error: status %d: %s", e.StatusCode, e.Body)
}

func isRetryable(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500
	}
	var fe *domain.FetchError
	return !errors.As(err, &fe)
}

// OpenWeatherMap API response types.

type response struct {
	Rain *rain `json:"rain"`
}

type rain struct {
	OneHour *float64 `json:"1h"`
}
