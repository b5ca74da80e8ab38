package places

// Response shapes of the Places-style HTTP provider

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusOverLimit   = "OVER_QUERY_LIMIT"
	statusUnknown     = "UNKNOWN_ERROR"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location LatLng `json:"location"`
}

type GeocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	PlaceID          string   `json:"place_id"`
}

type GeocodeResponse struct {
	Results      []GeocodeResult `json:"results"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

type OpeningHours struct {
	OpenNow *bool `json:"open_now,omitempty"`
}

type PlaceResult struct {
	PlaceID      string        `json:"place_id"`
	Name         string        `json:"name"`
	Vicinity     string        `json:"vicinity"`
	Rating       *float64      `json:"rating,omitempty"`
	Geometry     Geometry      `json:"geometry"`
	OpeningHours *OpeningHours `json:"opening_hours,omitempty"`
	Types        []string      `json:"types"`
}

type NearbySearchResponse struct {
	Results      []PlaceResult `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

type PlaceDetails struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	FormattedAddress string        `json:"formatted_address"`
	PhoneNumber      string        `json:"formatted_phone_number"`
	Website          string        `json:"website"`
	Rating           *float64      `json:"rating,omitempty"`
	Geometry         Geometry      `json:"geometry"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
}

type PlaceDetailsResponse struct {
	Result       PlaceDetails `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// detailFields are requested from the details endpoint
const detailFields = "place_id,name,formatted_address,formatted_phone_number,rating,opening_hours,geometry,website"
