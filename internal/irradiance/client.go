package irradiance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client fetches the mean daytime irradiance for a location.
type Client interface {
	DailyIrradiance(ctx context.Context, latitude, longitude float64) (float64, error)
}

// HTTPClient implements Client against an Open-Meteo compatible forecast API.
type HTTPClient struct {
	baseURL         string
	apiKey          string
	timeout         time.Duration
	initialInterval time.Duration
	client          *http.Client
}

// NewHTTPClient creates a client whose every lookup, retries included, is
// bounded by timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:         baseURL,
		apiKey:          apiKey,
		timeout:         timeout,
		initialInterval: 200 * time.Millisecond,
		client:          &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) DailyIrradiance(ctx context.Context, latitude, longitude float64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{
		"latitude":      {strconv.FormatFloat(latitude, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(longitude, 'f', 4, 64)},
		"daily":         {"shortwave_radiation_sum,daylight_duration"},
		"forecast_days": {"1"},
		"timezone":      {"auto"},
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	u := fmt.Sprintf("%s/v1/forecast?%s", c.baseURL, params.Encode())

	var body []byte
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("building request: %w", err))
		}

		resp, err := c.client.Do(httpReq)
		if err != nil {
			return backoff.Permanent(classifyError(err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrMissingAPIKey, resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("%w: status %d", ErrAPIStatus, resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrAPIStatus, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(classifyError(err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxElapsedTime = c.timeout
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		if errors.Is(err, ErrExternalAPIFailure) {
			return 0, err
		}
		return 0, classifyError(err)
	}

	return parseForecast(body)
}

// parseForecast converts the daily radiation sum (MJ/m²) and daylight
// duration (s) into mean daytime irradiance in W/m².
func parseForecast(body []byte) (float64, error) {
	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	d := resp.Daily
	if len(d.ShortwaveRadiationSum) == 0 || len(d.DaylightDuration) == 0 ||
		d.ShortwaveRadiationSum[0] == nil || d.DaylightDuration[0] == nil {
		return 0, fmt.Errorf("%w: missing daily values", ErrMalformedPayload)
	}

	radiation, daylight := *d.ShortwaveRadiationSum[0], *d.DaylightDuration[0]
	if radiation <= 0 || daylight <= 0 {
		return 0, fmt.Errorf("%w: non-positive daily values (radiation %v, daylight %v)", ErrMalformedPayload, radiation, daylight)
	}

	return radiation * 1e6 / daylight, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrAPICancelled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAPITimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrAPITimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrAPIUnreachable, err)
}

type forecastResponse struct {
	Daily struct {
		Time                  []string   `json:"time"`
		ShortwaveRadiationSum []*float64 `json:"shortwave_radiation_sum"`
		DaylightDuration      []*float64 `json:"daylight_duration"`
	} `json:"daily"`
}

var _ Client = (*HTTPClient)(nil)
