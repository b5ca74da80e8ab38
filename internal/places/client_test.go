package places

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/facility"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func fastRetry() utils.RetryConfig {
	return utils.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 1.5}
}

func newTestClient(url string) *Client {
	return NewClient(url, "test-key", time.Second, testLogger()).WithRetry(fastRetry())
}

func boolPtr(b bool) *bool { return &b }

// fakeProvider serves the three endpoints the client uses
func fakeProvider(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case geocodePath:
			json.NewEncoder(w).Encode(GeocodeResponse{
				Status:  statusOK,
				Results: []GeocodeResult{{Geometry: Geometry{Location: LatLng{Lat: 40.7128, Lng: -74.0060}}}},
			})
		case nearbyPath:
			assert.Equal(t, "hospital", r.URL.Query().Get("type"))
			assert.Equal(t, "5000", r.URL.Query().Get("radius"))
			json.NewEncoder(w).Encode(NearbySearchResponse{
				Status: statusOK,
				Results: []PlaceResult{
					{PlaceID: "p1", Name: "Downtown Emergency Hospital", Vicinity: "1 Main St",
						Geometry: Geometry{Location: LatLng{Lat: 40.7138, Lng: -74.0060}}},
					{PlaceID: "p2", Name: "Harbor Clinic", Vicinity: "9 Dock Rd", Rating: facility.Float(3.9),
						Geometry: Geometry{Location: LatLng{Lat: 40.7528, Lng: -74.0060}},
						OpeningHours: &OpeningHours{OpenNow: boolPtr(false)}},
				},
			})
		case detailsPath:
			if r.URL.Query().Get("place_id") == "p2" {
				json.NewEncoder(w).Encode(PlaceDetailsResponse{Status: "NOT_FOUND"})
				return
			}
			json.NewEncoder(w).Encode(PlaceDetailsResponse{
				Status: statusOK,
				Result: PlaceDetails{
					PlaceID:          "p1",
					Name:             "Downtown Emergency Hospital",
					FormattedAddress: "1 Main St, New York, NY",
					PhoneNumber:      "(212) 555-0100",
					Website:          "https://downtown.example",
					Rating:           facility.Float(4.4),
					OpeningHours:     &OpeningHours{OpenNow: boolPtr(true)},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClient_Geocode(t *testing.T) {
	server := fakeProvider(t)
	defer server.Close()

	coords, err := newTestClient(server.URL).Geocode(context.Background(), "New York, NY")
	require.NoError(t, err)
	assert.InDelta(t, 40.7128, coords.Lat, 1e-9)
	assert.InDelta(t, -74.0060, coords.Lng, 1e-9)
}

func TestClient_GeocodeZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GeocodeResponse{Status: statusZeroResults})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Geocode(context.Background(), "nowhere")
	assert.True(t, errors.Is(err, ErrGeocodeFailed))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(GeocodeResponse{
			Status:  statusOK,
			Results: []GeocodeResult{{Geometry: Geometry{Location: LatLng{Lat: 1, Lng: 2}}}},
		})
	}))
	defer server.Close()

	coords, err := newTestClient(server.URL).Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, facility.Coordinates{Lat: 1, Lng: 2}, coords)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("denied"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Geocode(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", time.Second, testLogger())
	assert.False(t, client.Enabled())

	_, err := client.Geocode(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestClient_NearbyCapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := make([]PlaceResult, 15)
		for i := range results {
			results[i] = PlaceResult{PlaceID: "p", Name: "H"}
		}
		json.NewEncoder(w).Encode(NearbySearchResponse{Status: statusOK, Results: results})
	}))
	defer server.Close()

	results, err := newTestClient(server.URL).NearbyHospitals(context.Background(), facility.Coordinates{}, 1000)
	require.NoError(t, err)
	assert.Len(t, results, MaxNearbyResults)
}

func TestPlacesSource_Nearby(t *testing.T) {
	server := fakeProvider(t)
	defer server.Close()

	source := NewPlacesSource(newTestClient(server.URL), testLogger())
	found, err := source.Nearby(context.Background(), Query{Location: "New York, NY", Radius: 5000})
	require.NoError(t, err)
	require.Len(t, found, 2)

	first := found[0]
	assert.Equal(t, "Downtown Emergency Hospital", first.Name)
	assert.Equal(t, "1 Main St, New York, NY", first.Address)
	assert.Equal(t, "(212) 555-0100", first.Phone)
	assert.Equal(t, facility.Open, first.Open)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.4, *first.Rating)
	require.NotNil(t, first.DistanceKm)
	assert.InDelta(t, 0.11, *first.DistanceKm, 0.01)
	assert.Equal(t, SourcePlaces, first.Source)

	second := found[1]
	assert.Equal(t, "9 Dock Rd", second.Address)
	assert.Equal(t, facility.Closed, second.Open)
	assert.Equal(t, 3.9, *second.Rating)
	assert.InDelta(t, 4.45, *second.DistanceKm, 0.05)
}

func TestPlacesSource_SkipsGeocodeForCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == geocodePath {
			t.Error("geocode must not be called for coordinates")
		}
		json.NewEncoder(w).Encode(NearbySearchResponse{Status: statusZeroResults})
	}))
	defer server.Close()

	source := NewPlacesSource(newTestClient(server.URL), testLogger())
	_, err := source.Nearby(context.Background(), Query{Location: "40.7,-74.0"})
	assert.True(t, errors.Is(err, ErrNoResults))
}
