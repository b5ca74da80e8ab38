package facility

// SourceFallback marks facilities from the static placeholder list
const SourceFallback = "fallback"

// FallbackFacilities returns the placeholder list used when no provider can
// answer. A fresh slice is returned on every call.
func FallbackFacilities() []Facility {
	return []Facility{
		{
			ID:          "fallback-1",
			Name:        "City General Hospital",
			Address:     "123 Main St, Downtown",
			Phone:       "+1-555-0123",
			Website:     "https://citygeneral.com",
			Rating:      Float(4.2),
			DistanceKm:  Float(2.5),
			Open:        Open,
			Specialties: []string{"emergency", "cardiology", "internal_medicine"},
			Source:      SourceFallback,
		},
		{
			ID:          "fallback-2",
			Name:        "Metro Medical Center",
			Address:     "456 Health Ave, Midtown",
			Phone:       "+1-555-0456",
			Website:     "https://metromedical.com",
			Rating:      Float(4.5),
			DistanceKm:  Float(3.8),
			Open:        Open,
			Specialties: []string{"internal_medicine", "pediatrics", "orthopedics"},
			Source:      SourceFallback,
		},
		{
			ID:          "fallback-3",
			Name:        "Emergency Care Hospital",
			Address:     "789 Emergency Blvd, Uptown",
			Phone:       "+1-555-0789",
			Website:     "https://emergencycare.com",
			Rating:      Float(4.0),
			DistanceKm:  Float(5.2),
			Open:        Open,
			Specialties: []string{"emergency", "radiology"},
			Source:      SourceFallback,
		},
	}
}
