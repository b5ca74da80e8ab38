package places

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Ayash-Bera/mediguide/internal/facility"
)

const earthRadiusKm = 6371.0

// DistanceKm uses the haversine formula to compute the great-circle distance
// between two coordinates in kilometers
func DistanceKm(from, to facility.Coordinates) float64 {
	dLat := toRadians(to.Lat - from.Lat)
	dLng := toRadians(to.Lng - from.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(from.Lat))*math.Cos(toRadians(to.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ParseLatLng parses "lat,lng". ok is false for anything else, including
// out-of-range values.
func ParseLatLng(s string) (facility.Coordinates, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return facility.Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return facility.Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return facility.Coordinates{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return facility.Coordinates{}, false
	}

	return facility.Coordinates{Lat: lat, Lng: lng}, true
}

func formatLatLng(c facility.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// roundKm keeps distances readable in responses
func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
