package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetplan/internal/metrics"
)

func fakeOSRM(t *testing.T, n int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.True(t, strings.HasPrefix(r.URL.Path, "/table/v1/driving/"), "path %s", r.URL.Path)
		require.Equal(t, "duration,distance", r.URL.Query().Get("annotations"))

		dur := make([][]*float64, n)
		dist := make([][]*float64, n)
		for i := range dur {
			dur[i] = make([]*float64, n)
			dist[i] = make([]*float64, n)
			for j := range dur[i] {
				d := float64(60 * (i + j)) // seconds
				m := float64(1000 * (i + j))
				dur[i][j] = &d
				dist[i][j] = &m
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "Ok", "durations": dur, "distances": dist})
	}))
}

func TestTableConvertsUnits(t *testing.T) {
	var calls int32
	srv := fakeOSRM(t, 3, &calls)
	defer srv.Close()

	c := NewClient(srv.URL, "driving", 0, nil)
	m, err := c.Table(context.Background(), []Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}, {Lat: 5, Lng: 6}})
	require.NoError(t, err)
	require.Len(t, m.DistanceKm, 3)
	assert.InDelta(t, 1.0, m.DistanceKm[0][1], 1e-9, "1000 m = 1 km")
	assert.InDelta(t, 1.0, m.TravelMin[0][1], 1e-9, "60 s = 1 min")
	assert.InDelta(t, 3.0, m.DistanceKm[1][2], 1e-9)
}

func TestTableMissingEntryFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		d := 60.0
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":      "Ok",
			"durations": [][]*float64{{&d, nil}, {&d, &d}},
			"distances": [][]*float64{{&d, &d}, {&d, &d}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "driving", 0, nil)
	_, err := c.Table(context.Background(), []Point{{}, {Lat: 1, Lng: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route")
}

func TestTableRetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		d := 60.0
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":      "Ok",
			"durations": [][]*float64{{&d, &d}, {&d, &d}},
			"distances": [][]*float64{{&d, &d}, {&d, &d}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "driving", 0, nil)
	m, err := c.Table(context.Background(), []Point{{}, {Lat: 1, Lng: 1}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.InDelta(t, 1.0, m.TravelMin[0][1], 1e-9)
}

func TestTableUsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := NewRedisCache("redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)

	var calls int32
	srv := fakeOSRM(t, 2, &calls)
	defer srv.Close()

	c := NewClient(srv.URL, "driving", 0, cache)
	coords := []Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}

	cacheHits := testutil.ToFloat64(metrics.MatrixRequests.WithLabelValues("cache"))
	fetches := testutil.ToFloat64(metrics.MatrixRequests.WithLabelValues("osrm"))

	first, err := c.Table(context.Background(), coords)
	require.NoError(t, err)
	second, err := c.Table(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call must hit the cache")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MatrixRequests.WithLabelValues("cache"))-cacheHits, 1e-9,
		"the cached call counts as cache, not osrm")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MatrixRequests.WithLabelValues("osrm"))-fetches, 1e-9,
		"only the real fetch counts as osrm")

	// A different coordinate list is a different key.
	_, err = c.Table(context.Background(), []Point{{Lat: 9, Lng: 9}, {Lat: 3, Lng: 4}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGeocoderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geocode/search", r.URL.Path)
		require.Equal(t, "Kalyani Central Park", r.URL.Query().Get("text"))
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[88.4468,22.9788]}}]}`)
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "test-key")
	p, err := g.Search(context.Background(), "Kalyani Central Park")
	require.NoError(t, err)
	assert.InDelta(t, 22.9788, p.Lat, 1e-9)
	assert.InDelta(t, 88.4468, p.Lng, 1e-9)
}

func TestGeocoderNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL, "")
	_, err := g.Search(context.Background(), "nowhere")
	require.Error(t, err)
}
