// Package aemet implements the segmented, retrying fetch client for
// the AEMET OpenData antarctica endpoint. The upstream silently
// truncates or rejects long query windows and enforces a low
// per-minute quota, so ranges are split into safe sub-windows fetched
// strictly sequentially, each with bounded retry and backoff.
package aemet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/aemet-tools/antartida-api/internal/common"
	"github.com/aemet-tools/antartida-api/internal/metrics"
	"github.com/aemet-tools/antartida-api/internal/weather"
)

const defaultBaseURL = "https://opendata.aemet.es/opendata/api/antartida"

const (
	defaultSafeWindowDays = 30
	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
)

// Config controls the fetch client. Zero values fall back to the
// defaults above.
type Config struct {
	APIKey         string
	BaseURL        string
	SafeWindowDays int
	MaxRetries     int
	InitialBackoff time.Duration
}

// Client talks to the AEMET antarctica API. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	apiKey         string
	baseURL        string
	window         time.Duration
	maxRetries     uint64
	initialBackoff time.Duration
	client         *http.Client
	circuit        *gobreaker.CircuitBreaker
}

// NewClient creates a Client using the shared HTTP client.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.SafeWindowDays <= 0 {
		cfg.SafeWindowDays = defaultSafeWindowDays
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "aemet",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:         cfg.APIKey,
		baseURL:        cfg.BaseURL,
		window:         time.Duration(cfg.SafeWindowDays) * 24 * time.Hour,
		maxRetries:     uint64(cfg.MaxRetries),
		initialBackoff: cfg.InitialBackoff,
		client:         httpClient,
		circuit:        cb,
	}
}

// pointerResponse is the first-step reply: the datos field carries a
// short-lived URL to the actual payload, not the payload itself.
type pointerResponse struct {
	Descripcion string `json:"descripcion"`
	Estado      int    `json:"estado"`
	Datos       string `json:"datos"`
}

// Fetch retrieves all observations for the station between two
// wire-format instants, splitting the range into upstream-safe
// segments. A failed segment fails the whole fetch; partial data
// would misrepresent the requested range. An empty result with a nil
// error means the range genuinely holds no observations.
func (c *Client) Fetch(ctx context.Context, initDate, endDate, station string) ([]weather.Observation, error) {
	start, err := weather.ParseWire(initDate)
	if err != nil {
		return nil, err
	}
	end, err := weather.ParseWire(endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, &weather.ValidationError{Msg: fmt.Sprintf("end date %s before init date %s", endDate, initDate)}
	}
	if station == "" {
		return nil, &weather.ValidationError{Msg: "missing station identifier"}
	}

	var all []weather.Observation
	for _, seg := range split(start, end, c.window) {
		recs, err := c.fetchSegment(ctx, seg, station)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}

	metrics.ObservationsFetched.WithLabelValues(station).Add(float64(len(all)))
	return all, nil
}

// fetchSegment performs the two-step pointer/dereference fetch for one
// segment, retrying the whole pair with exponential backoff. Any
// failure mode (transport error, bad status, malformed pointer or
// payload) counts as an attempt.
func (c *Client) fetchSegment(ctx context.Context, seg segment, station string) ([]weather.Observation, error) {
	var recs []weather.Observation

	operation := func() error {
		recs = nil

		dataURL, err := c.requestPointer(ctx, seg, station)
		if err != nil {
			return err
		}
		if dataURL == "" {
			// Upstream reported no data for this window.
			return nil
		}

		recs, err = c.dereference(ctx, dataURL)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)); err != nil {
		return nil, &weather.FetchError{Station: station, Segment: seg.String(), Err: err}
	}
	return recs, nil
}

// requestPointer performs the first upstream call and extracts the
// payload URL. It returns an empty URL with a nil error when the
// upstream definitively reports no data for the window.
func (c *Client) requestPointer(ctx context.Context, seg segment, station string) (string, error) {
	url := fmt.Sprintf("%s/datos/fechaini/%s/fechafin/%s/estacion/%s",
		c.baseURL,
		seg.start.Format(weather.WireTimeLayout),
		seg.end.Format(weather.WireTimeLayout),
		station,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("api_key", c.apiKey)

	reply, err := c.do(req, "datos")
	if err != nil {
		return "", err
	}

	var ptr pointerResponse
	if err := json.Unmarshal(reply.body, &ptr); err != nil {
		if reply.status != http.StatusOK {
			return "", fmt.Errorf("pointer request: status %d", reply.status)
		}
		return "", fmt.Errorf("malformed pointer response: %w", err)
	}

	// AEMET answers 404 with a JSON body when the window holds no
	// observations. That is a successful empty reply, not a failure.
	if (reply.status == http.StatusNotFound || ptr.Estado == http.StatusNotFound) &&
		common.HasAnyFold(ptr.Descripcion, "no hay datos", "no data") {
		return "", nil
	}

	if reply.status == http.StatusUnauthorized || reply.status == http.StatusForbidden {
		return "", backoff.Permanent(fmt.Errorf("upstream rejected credentials: status %d: %s", reply.status, ptr.Descripcion))
	}
	if reply.status != http.StatusOK {
		return "", fmt.Errorf("pointer request: status %d: %s", reply.status, ptr.Descripcion)
	}
	if ptr.Datos == "" {
		return "", fmt.Errorf("pointer response missing datos URL: %s", ptr.Descripcion)
	}
	return ptr.Datos, nil
}

// dereference fetches the payload URL returned by the pointer call and
// decodes the observation array. Unknown upstream fields disappear
// through the typed decode.
func (c *Client) dereference(ctx context.Context, url string) ([]weather.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	reply, err := c.do(req, "payload")
	if err != nil {
		return nil, err
	}
	if reply.status != http.StatusOK {
		return nil, fmt.Errorf("payload request: status %d", reply.status)
	}

	var recs []weather.Observation
	if err := json.Unmarshal(reply.body, &recs); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	return recs, nil
}

type upstreamReply struct {
	status int
	body   []byte
}

// do executes one upstream HTTP call through the circuit breaker.
// Transport errors, 429 and 5xx count as breaker failures; any other
// status is handed back to the caller with its body. An open breaker
// is permanent from the retry loop's point of view.
func (c *Client) do(req *http.Request, endpoint string) (*upstreamReply, error) {
	started := time.Now()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: status %d", errRateLimited, resp.StatusCode)
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
		}
		return &upstreamReply{status: resp.StatusCode, body: body}, nil
	})

	metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, backoff.Permanent(fmt.Errorf("circuit breaker open: %w", err))
		}
		return nil, err
	}

	reply := result.(*upstreamReply)
	metrics.UpstreamCallsTotal.WithLabelValues(endpoint, strconv.Itoa(reply.status)).Inc()
	return reply, nil
}
