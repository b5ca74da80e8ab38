package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/facility"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	geocodePath = "/maps/api/geocode/json"
	nearbyPath  = "/maps/api/place/nearbysearch/json"
	detailsPath = "/maps/api/place/details/json"

	// MaxNearbyResults caps how many nearby results get a details lookup
	MaxNearbyResults = 10
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      utils.RetryConfig
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:  utils.DefaultRetryConfig(),
		logger: logger,
	}
}

// WithRetry replaces the retry policy
func (c *Client) WithRetry(cfg utils.RetryConfig) *Client {
	c.retry = cfg
	return c
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Geocode resolves a free-text address to coordinates
func (c *Client) Geocode(ctx context.Context, address string) (facility.Coordinates, error) {
	var response GeocodeResponse
	params := url.Values{"address": {address}}

	if err := c.getWithRetry(ctx, "geocode", geocodePath, params, &response); err != nil {
		return facility.Coordinates{}, err
	}

	switch response.Status {
	case statusOK:
	case statusZeroResults:
		return facility.Coordinates{}, fmt.Errorf("%w: %s", ErrGeocodeFailed, address)
	default:
		return facility.Coordinates{}, fmt.Errorf("geocode returned %s: %s", response.Status, response.ErrorMessage)
	}
	if len(response.Results) == 0 {
		return facility.Coordinates{}, fmt.Errorf("%w: %s", ErrGeocodeFailed, address)
	}

	loc := response.Results[0].Geometry.Location
	return facility.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// NearbyHospitals lists hospitals within radius meters of center
func (c *Client) NearbyHospitals(ctx context.Context, center facility.Coordinates, radius int) ([]PlaceResult, error) {
	var response NearbySearchResponse
	params := url.Values{
		"location": {formatLatLng(center)},
		"radius":   {strconv.Itoa(radius)},
		"type":     {"hospital"},
	}

	if err := c.getWithRetry(ctx, "nearby_search", nearbyPath, params, &response); err != nil {
		return nil, err
	}

	switch response.Status {
	case statusOK:
	case statusZeroResults:
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("nearby search returned %s: %s", response.Status, response.ErrorMessage)
	}

	results := response.Results
	if len(results) > MaxNearbyResults {
		results = results[:MaxNearbyResults]
	}
	return results, nil
}

// Details fetches phone, website and opening hours for a place
func (c *Client) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	var response PlaceDetailsResponse
	params := url.Values{
		"place_id": {placeID},
		"fields":   {detailFields},
	}

	if err := c.getWithRetry(ctx, "place_details", detailsPath, params, &response); err != nil {
		return nil, err
	}
	if response.Status != statusOK {
		return nil, fmt.Errorf("place details returned %s: %s", response.Status, response.ErrorMessage)
	}
	return &response.Result, nil
}

// getWithRetry retries transport errors, 5xx responses and provider
// throttling. Other failures are returned straight away.
func (c *Client) getWithRetry(ctx context.Context, name, endpoint string, params url.Values, result statusCarrier) error {
	return utils.Retry(ctx, c.retry, c.logger, "places_"+name, func() error {
		if err := c.makeRequest(ctx, endpoint, params, result); err != nil {
			return err
		}
		switch result.status() {
		case statusOverLimit, statusUnknown:
			return fmt.Errorf("provider status %s", result.status())
		}
		return nil
	})
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if !c.Enabled() {
		return utils.Permanent(ErrNotConfigured)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("key", c.apiKey)
	reqURL := c.baseURL + endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return utils.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
	}).Debug("Making places API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return utils.Permanent(ctx.Err())
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint":      endpoint,
		"status_code":   resp.StatusCode,
		"response_size": len(body),
		"duration":      time.Since(start),
	}).Debug("Places API response received")

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return utils.Permanent(fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return utils.Permanent(fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

type statusCarrier interface {
	status() string
}

func (r *GeocodeResponse) status() string      { return r.Status }
func (r *NearbySearchResponse) status() string { return r.Status }
func (r *PlaceDetailsResponse) status() string { return r.Status }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
