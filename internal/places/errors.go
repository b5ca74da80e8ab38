package places

import "errors"

var (
	// ErrNoResults is returned when a source found no facilities
	ErrNoResults = errors.New("no facilities found")
	// ErrGeocodeFailed is returned when a location could not be resolved
	ErrGeocodeFailed = errors.New("location could not be geocoded")
	// ErrNotConfigured is returned by the HTTP source when no API key is set
	ErrNotConfigured = errors.New("places provider not configured")
)
