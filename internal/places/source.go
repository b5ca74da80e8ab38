package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Ayash-Bera/mediguide/internal/facility"
	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	SourcePlaces    = "places"
	SourceDirectory = "directory"

	DefaultRadius = 5000
	detailWorkers = 4
)

// Query describes where to look for facilities. Location is either "lat,lng"
// or free text. Radius is in meters.
type Query struct {
	Location string
	Radius   int
}

// Source finds candidate facilities near a location
type Source interface {
	Name() string
	Nearby(ctx context.Context, q Query) ([]facility.Facility, error)
}

// PlacesSource adapts the HTTP client to a Source
type PlacesSource struct {
	client *Client
	logger *logrus.Logger
}

func NewPlacesSource(client *Client, logger *logrus.Logger) *PlacesSource {
	return &PlacesSource{client: client, logger: logger}
}

func (s *PlacesSource) Name() string { return SourcePlaces }

func (s *PlacesSource) Nearby(ctx context.Context, q Query) ([]facility.Facility, error) {
	if !s.client.Enabled() {
		return nil, ErrNotConfigured
	}

	center, ok := ParseLatLng(q.Location)
	if !ok {
		var err error
		center, err = s.client.Geocode(ctx, q.Location)
		if err != nil {
			return nil, err
		}
	}

	radius := q.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}

	results, err := s.client.NearbyHospitals(ctx, center, radius)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	facilities := make([]facility.Facility, len(results))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < detailWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				facilities[i] = s.resolve(ctx, center, results[i])
			}
		}()
	}
	for i := range results {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return facilities, nil
}

// resolve merges a nearby result with its details. A failed details lookup
// keeps whatever the nearby result carried.
func (s *PlacesSource) resolve(ctx context.Context, center facility.Coordinates, place PlaceResult) facility.Facility {
	f := facility.Facility{
		ID:      place.PlaceID,
		Name:    place.Name,
		Address: place.Vicinity,
		Rating:  place.Rating,
		Source:  SourcePlaces,
	}
	loc := place.Geometry.Location
	if place.OpeningHours != nil {
		f.Open = facility.OpenStatusFromBool(place.OpeningHours.OpenNow)
	}

	details, err := s.client.Details(ctx, place.PlaceID)
	if err != nil {
		s.logger.WithError(err).WithField("place_id", place.PlaceID).Warn("Place details lookup failed")
	} else {
		if details.Name != "" {
			f.Name = details.Name
		}
		if details.FormattedAddress != "" {
			f.Address = details.FormattedAddress
		}
		f.Phone = details.PhoneNumber
		f.Website = details.Website
		if details.Rating != nil {
			f.Rating = details.Rating
		}
		if details.OpeningHours != nil {
			f.Open = facility.OpenStatusFromBool(details.OpeningHours.OpenNow)
		}
		if details.Geometry.Location != (LatLng{}) {
			loc = details.Geometry.Location
		}
	}

	if f.Name == "" {
		f.Name = "Unknown"
	}
	if loc != (LatLng{}) {
		coords := facility.Coordinates{Lat: loc.Lat, Lng: loc.Lng}
		f.Location = &coords
		f.DistanceKm = facility.Float(roundKm(DistanceKm(center, coords)))
	}
	return f
}

// DirectorySource serves facilities collected by the directory crawler
type DirectorySource struct {
	repo   models.DirectoryRepository
	limit  int
	logger *logrus.Logger
}

func NewDirectorySource(repo models.DirectoryRepository, logger *logrus.Logger) *DirectorySource {
	return &DirectorySource{repo: repo, limit: 20, logger: logger}
}

func (s *DirectorySource) Name() string { return SourceDirectory }

func (s *DirectorySource) Nearby(ctx context.Context, q Query) ([]facility.Facility, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	center, hasCenter := ParseLatLng(q.Location)
	radiusKm := float64(q.Radius) / 1000
	if radiusKm <= 0 {
		radiusKm = DefaultRadius / 1000
	}

	var entries []models.DirectoryFacility
	var err error
	if hasCenter {
		entries, err = s.repo.SearchNear(center.Lat, center.Lng, radiusKm, s.limit)
	} else {
		entries, err = s.repo.SearchByLocation(q.Location, s.limit)
	}
	if err != nil {
		return nil, fmt.Errorf("directory search failed: %w", err)
	}

	facilities := make([]facility.Facility, 0, len(entries))
	for _, e := range entries {
		f := FromDirectory(e)
		if hasCenter {
			// the repository box is wider than the circle
			if f.Location == nil {
				continue
			}
			d := DistanceKm(center, *f.Location)
			if d > radiusKm {
				continue
			}
			f.DistanceKm = facility.Float(roundKm(d))
		}
		facilities = append(facilities, f)
	}
	if len(facilities) == 0 {
		return nil, ErrNoResults
	}
	return facilities, nil
}

// FromDirectory converts a crawled directory row into a facility
func FromDirectory(e models.DirectoryFacility) facility.Facility {
	f := facility.Facility{
		ID:          fmt.Sprintf("directory-%d", e.ID),
		Name:        e.Name,
		Address:     e.Address,
		Phone:       e.Phone,
		Website:     e.Website,
		Rating:      e.Rating,
		Specialties: []string(e.Specialties),
		Source:      SourceDirectory,
	}
	if e.Latitude != nil && e.Longitude != nil {
		f.Location = &facility.Coordinates{Lat: *e.Latitude, Lng: *e.Longitude}
	}
	if e.Emergency && !f.HasEmergencyDesignation() && !containsFold(f.Specialties, "emergency") {
		f.Specialties = append(f.Specialties, "emergency")
	}
	return f
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// IsNoResults reports whether err means a source simply had nothing
func IsNoResults(err error) bool {
	return errors.Is(err, ErrNoResults) || errors.Is(err, ErrGeocodeFailed) || errors.Is(err, ErrNotConfigured)
}
