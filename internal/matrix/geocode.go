package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Geocoder resolves free-text addresses to coordinates through an
// ORS-style /geocode/search endpoint. Like the table client it is a
// pre-solve collaborator only.
type Geocoder struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewGeocoder(baseURL, apiKey string) *Geocoder {
	return &Geocoder{baseURL: baseURL, apiKey: apiKey, http: &http.Client{Timeout: 10 * time.Second}}
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lng, lat
		} `json:"geometry"`
	} `json:"features"`
}

// Search returns the best match for an address.
func (g *Geocoder) Search(ctx context.Context, address string) (Point, error) {
	q := url.Values{}
	q.Set("text", address)
	q.Set("size", "1")
	if g.apiKey != "" {
		q.Set("api_key", g.apiKey)
	}
	endpoint := g.baseURL + "/geocode/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Point{}, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("matrix: geocode %q: %w", address, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("matrix: geocode %q: unexpected status %d", address, resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Point{}, fmt.Errorf("matrix: decode geocode response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return Point{}, fmt.Errorf("matrix: no geocode results for %q", address)
	}
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return Point{}, fmt.Errorf("matrix: invalid coordinates for %q", address)
	}
	return Point{Lat: coords[1], Lng: coords[0]}, nil
}
