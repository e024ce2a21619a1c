// Package geo resolves college locations to coordinates and renders the
// geographic competition views: distance categories, an interactive HTML
// map, and a plain-text distance report.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	domerrors "github.com/collegeradar/collegeradar-go/internal/errors"
	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/scraper"
)

const geocoderUserAgent = "collegeradar/1.0 (competition analysis)"

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MetricsRecorder defines the interface for recording geocoder metrics
type MetricsRecorder interface {
	RecordGeocodeCacheHit(source string)
	RecordGeocodeCacheMiss(source string)
}

// Geocoder resolves location strings through a Nominatim-compatible
// search endpoint. Results are cached in memory, including lookups that
// returned nothing, so a location is only ever sent upstream once per
// process. Requests are spaced out by the configured delay; Nominatim's
// usage policy asks for at most one request per second.
type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	delay      time.Duration
	log        *logger.Logger
	metrics    MetricsRecorder

	mu          sync.Mutex
	cache       map[string]*Point // nil entry means a cached "not found"
	lastRequest time.Time
}

// NewGeocoder creates a Geocoder against the given search endpoint.
func NewGeocoder(baseURL string, delay time.Duration, log *logger.Logger) *Geocoder {
	return &Geocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		delay:      delay,
		log:        log.WithModule("geocoder"),
		cache:      make(map[string]*Point),
	}
}

// SetMetrics sets the metrics recorder
func (g *Geocoder) SetMetrics(m MetricsRecorder) {
	g.metrics = m
}

// Geocode resolves a location string to coordinates. A nil Point with a
// nil error means the location could not be found; that outcome is
// cached so it is not retried. Transport failures return a GeocodeError
// and are not cached.
func (g *Geocoder) Geocode(ctx context.Context, location string) (*Point, error) {
	if location == "" {
		return nil, nil
	}

	g.mu.Lock()
	if point, ok := g.cache[location]; ok {
		g.mu.Unlock()
		if g.metrics != nil {
			g.metrics.RecordGeocodeCacheHit("memory")
		}
		return point, nil
	}
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.RecordGeocodeCacheMiss("memory")
	}

	if err := g.throttle(ctx); err != nil {
		return nil, err
	}

	point, err := g.lookup(ctx, location)
	if err != nil {
		return nil, &domerrors.GeocodeError{Location: location, Err: err}
	}

	g.mu.Lock()
	g.cache[location] = point
	g.mu.Unlock()

	if point == nil {
		g.log.WithField("location", location).Warn("could not geocode location")
	} else {
		g.log.WithFields(map[string]any{
			"location": location,
			"lat":      point.Lat,
			"lon":      point.Lon,
		}).Debug("geocoded location")
	}
	return point, nil
}

// throttle enforces the minimum delay between upstream requests.
func (g *Geocoder) throttle(ctx context.Context) error {
	g.mu.Lock()
	wait := g.delay - time.Since(g.lastRequest)
	g.lastRequest = time.Now().Add(wait)
	g.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return scraper.Sleep(ctx, wait)
}

// nominatimResult is one entry of the Nominatim search response. The API
// returns coordinates as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) lookup(ctx context.Context, location string) (*Point, error) {
	query := url.Values{}
	query.Set("q", location)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", geocoderUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}
	return &Point{Lat: lat, Lon: lon}, nil
}
