// Package facility models candidate medical facilities and ranks them for a
// triage result.
package facility

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// OpenStatus is a tri-state open flag. The zero value is OpenUnknown.
type OpenStatus int

const (
	OpenUnknown OpenStatus = iota
	Open
	Closed
)

func (s OpenStatus) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// OpenStatusFromBool maps a provider's nullable open_now flag
func OpenStatusFromBool(open *bool) OpenStatus {
	if open == nil {
		return OpenUnknown
	}
	if *open {
		return Open
	}
	return Closed
}

func (s OpenStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts "open"/"closed"/"unknown", true/false and null
func (s *OpenStatus) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*s = OpenUnknown
	case bool:
		*s = OpenStatusFromBool(&v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "open", "true":
			*s = Open
		case "closed", "false":
			*s = Closed
		case "", "unknown":
			*s = OpenUnknown
		default:
			return fmt.Errorf("invalid open status %q", v)
		}
	default:
		return fmt.Errorf("invalid open status %s", string(data))
	}
	return nil
}

// Coordinates is a lat/lng pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Facility is a candidate hospital or clinic. Rating and DistanceKm are nil
// when the source did not report them.
type Facility struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	Phone       string       `json:"phone,omitempty"`
	Website     string       `json:"website,omitempty"`
	Rating      *float64     `json:"rating"`
	DistanceKm  *float64     `json:"distance_km"`
	Open        OpenStatus   `json:"open_status"`
	Specialties []string     `json:"specialties,omitempty"`
	Location    *Coordinates `json:"location,omitempty"`
	Source      string       `json:"source,omitempty"`
}

// Float returns a pointer to v, for building facilities with known values
func Float(v float64) *float64 {
	return &v
}

// HasEmergencyDesignation reports whether the name marks an emergency facility
func (f Facility) HasEmergencyDesignation() bool {
	return strings.Contains(strings.ToLower(f.Name), "emergency")
}

// rating returns the usable rating in [0, 5], or 0 when unknown
func (f Facility) rating() float64 {
	if f.Rating == nil || math.IsNaN(*f.Rating) {
		return 0
	}
	return math.Min(math.Max(*f.Rating, 0), 5)
}

// distance returns the distance and whether it is usable
func (f Facility) distance() (float64, bool) {
	if f.DistanceKm == nil {
		return 0, false
	}
	d := *f.DistanceKm
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, false
	}
	return d, true
}

// OffersAny returns the requested specialties this facility lists
func (f Facility) OffersAny(specializations []string) []string {
	if len(specializations) == 0 || len(f.Specialties) == 0 {
		return nil
	}

	var matched []string
	for _, want := range specializations {
		w := normalizeSpecialty(want)
		for _, have := range f.Specialties {
			if normalizeSpecialty(have) == w || strings.Contains(normalizeSpecialty(have), w) {
				matched = append(matched, want)
				break
			}
		}
	}
	return matched
}

func normalizeSpecialty(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
