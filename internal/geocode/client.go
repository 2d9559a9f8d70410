package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"sheet_geocoder/internal/geo"

	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// ErrNotFound is returned when the provider answers with zero candidates.
var ErrNotFound = errors.New("no geocoding candidates found")

type Client struct {
	apiKey          string
	baseURL         string
	client          *http.Client
	cacheTTL        time.Duration
	queryCache      sync.Map
	lookupCount     int64
	lookupCountLock sync.Mutex
}

type Option func(*Client)

// WithBaseURL points the client at a different geocoding endpoint
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.client = httpClient }
}

// WithCacheTTL reuses resolved queries for ttl. Caching is off by default.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location location `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, ...
	ErrorMessage string `json:"error_message"`
}

type cachedCoordinate struct {
	coord     geo.Coordinate
	timestamp time.Time
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// incrementLookup safely increments the outbound lookup counter
func (c *Client) incrementLookup() {
	c.lookupCountLock.Lock()
	c.lookupCount++
	c.lookupCountLock.Unlock()
}

// LookupCount returns the number of outbound requests made so far
func (c *Client) LookupCount() int64 {
	c.lookupCountLock.Lock()
	defer c.lookupCountLock.Unlock()
	return c.lookupCount
}

// ResetLookupCount resets the outbound request counter to zero
func (c *Client) ResetLookupCount() {
	c.lookupCountLock.Lock()
	c.lookupCount = 0
	c.lookupCountLock.Unlock()
}

// Resolve looks up a single place and returns the first candidate's location.
// Every call issues one outbound request unless WithCacheTTL was given.
// Incomplete queries are logged and still sent.
func (c *Client) Resolve(ctx context.Context, query geo.Query) (geo.Coordinate, error) {
	address := query.String()

	if query.Incomplete() {
		log.Warn().
			Str("city", query.City).
			Str("country", query.Country).
			Msg("City or country missing, looking up with what is present")
	}

	if c.cacheTTL > 0 {
		if cached, ok := c.queryCache.Load(address); ok {
			entry := cached.(cachedCoordinate)
			if time.Since(entry.timestamp) < c.cacheTTL {
				log.Debug().Str("address", address).Msg("Geocode cache hit")
				return entry.coord, nil
			}
		}
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to create request: %w", err)
	}

	c.incrementLookup()

	resp, err := c.client.Do(req)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return geo.Coordinate{}, fmt.Errorf("geocoding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Results) == 0 {
		log.Debug().
			Str("address", address).
			Str("status", result.Status).
			Str("error_message", result.ErrorMessage).
			Msg("Geocoding returned no candidates")
		return geo.Coordinate{}, fmt.Errorf("%w for %q (status %s)", ErrNotFound, address, result.Status)
	}

	first := result.Results[0]
	coord := geo.Coordinate{
		Lat: first.Geometry.Location.Lat,
		Lng: first.Geometry.Location.Lng,
	}

	log.Debug().
		Str("address", address).
		Str("formatted_address", first.FormattedAddress).
		Float64("lat", coord.Lat).
		Float64("lng", coord.Lng).
		Msg("Resolved location")

	if c.cacheTTL > 0 {
		c.queryCache.Store(address, cachedCoordinate{
			coord:     coord,
			timestamp: time.Now(),
		})
	}

	return coord, nil
}
