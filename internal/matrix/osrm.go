// Package matrix builds the distance and travel-time matrices the solver
// consumes, using an external OSRM routing service. It runs once per
// solve request, before the optimizer; the optimizer never imports it.
package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fleetplan/internal/metrics"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Matrices are the solver's view of the road network: pairwise distances
// in kilometers and travel times in minutes over {depot}+customers.
type Matrices struct {
	DistanceKm [][]float64 `json:"distanceKm"`
	TravelMin  [][]float64 `json:"travelMin"`
}

// Client talks to an OSRM table endpoint. Outbound calls go through an
// optional rate limiter so a burst of solve requests cannot hammer a
// shared routing service.
type Client struct {
	baseURL string
	profile string
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
}

// NewClient builds a Client. rps <= 0 disables rate limiting; cache may
// be nil to always fetch.
func NewClient(baseURL, profile string, rps float64, cache Cache) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

type tableResponse struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// Table fetches the full pairwise matrix for coords (depot first) and
// converts OSRM's meters/seconds into the solver's km/minutes.
func (c *Client) Table(ctx context.Context, coords []Point) (*Matrices, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("matrix: need at least depot and one customer, got %d points", len(coords))
	}
	key := cacheKey(c.profile, coords)
	if c.cache != nil {
		if m, ok := c.cache.Get(ctx, key); ok {
			metrics.MatrixRequests.WithLabelValues("cache").Inc()
			return m, nil
		}
	}
	metrics.MatrixRequests.WithLabelValues("osrm").Inc()

	// OSRM wants lng,lat pairs joined by semicolons.
	parts := make([]string, len(coords))
	for i, p := range coords {
		parts[i] = fmt.Sprintf("%f,%f", p.Lng, p.Lat)
	}
	endpoint := fmt.Sprintf("%s/table/v1/%s/%s?annotations=duration,distance", c.baseURL, c.profile, strings.Join(parts, ";"))

	resp, err := c.doWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("matrix: table request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matrix: table request: unexpected status %d", resp.StatusCode)
	}

	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("matrix: decode table response: %w", err)
	}
	if tr.Code != "Ok" {
		return nil, fmt.Errorf("matrix: routing service returned code %q", tr.Code)
	}

	m, err := convert(tr, len(coords))
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Put(ctx, key, m)
	}
	return m, nil
}

// convert validates shape and units. A null entry means OSRM could not
// route between two points the request actually references, which the
// solver treats as a configuration error, so fail here.
func convert(tr tableResponse, n int) (*Matrices, error) {
	if len(tr.Durations) != n || len(tr.Distances) != n {
		return nil, fmt.Errorf("matrix: expected %d rows, got durations=%d distances=%d", n, len(tr.Durations), len(tr.Distances))
	}
	m := &Matrices{
		DistanceKm: make([][]float64, n),
		TravelMin:  make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		if len(tr.Durations[i]) != n || len(tr.Distances[i]) != n {
			return nil, fmt.Errorf("matrix: row %d is not square", i)
		}
		m.DistanceKm[i] = make([]float64, n)
		m.TravelMin[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if tr.Distances[i][j] == nil || tr.Durations[i][j] == nil {
				return nil, fmt.Errorf("matrix: no route between points %d and %d", i, j)
			}
			m.DistanceKm[i][j] = *tr.Distances[i][j] / 1000.0
			m.TravelMin[i][j] = *tr.Durations[i][j] / 60.0
		}
	}
	return m, nil
}

// doWithRetry retries transient failures (network errors, 429, 5xx) with
// a short linear backoff, honoring the rate limiter and ctx.
func (c *Client) doWithRetry(ctx context.Context, url string) (*http.Response, error) {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * 250 * time.Millisecond):
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
