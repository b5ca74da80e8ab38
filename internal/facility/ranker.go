package facility

import "sort"

const (
	DefaultLimit              = 5
	DefaultEmergencyThreshold = 70

	ratingMultiplier = 8.0
	emergencyBonus   = 10.0
	openBonus        = 20.0
	unknownOpenBonus = 10.0
)

// Breakdown lists each additive component of a recommendation score
type Breakdown struct {
	Rating    float64 `json:"rating"`
	Distance  float64 `json:"distance"`
	Open      float64 `json:"open"`
	Emergency float64 `json:"emergency"`
}

// Total sums the components
func (b Breakdown) Total() float64 {
	return b.Rating + b.Distance + b.Open + b.Emergency
}

// RankedFacility is a facility with its recommendation score
type RankedFacility struct {
	Facility
	RecommendationScore float64   `json:"recommendation_score"`
	Breakdown           Breakdown `json:"score_breakdown"`
	MatchedSpecialties  []string  `json:"matched_specialties,omitempty"`
}

// Ranker orders facilities by suitability for a severity score
type Ranker struct {
	Limit              int
	EmergencyThreshold int
}

// NewRanker returns a ranker with the default top-5 limit and emergency cut-off
func NewRanker() *Ranker {
	return &Ranker{Limit: DefaultLimit, EmergencyThreshold: DefaultEmergencyThreshold}
}

// Rank scores every facility and returns the best ones, highest score first.
// Equal scores keep their input order. The input slice is not modified.
func (r *Ranker) Rank(facilities []Facility, severity int, specializations []string) []RankedFacility {
	ranked := make([]RankedFacility, 0, len(facilities))
	for _, f := range facilities {
		b := r.breakdown(f, severity)
		ranked = append(ranked, RankedFacility{
			Facility:            f,
			RecommendationScore: b.Total(),
			Breakdown:           b,
			MatchedSpecialties:  f.OffersAny(specializations),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RecommendationScore > ranked[j].RecommendationScore
	})

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Score computes the recommendation score of a single facility
func (r *Ranker) Score(f Facility, severity int) float64 {
	return r.breakdown(f, severity).Total()
}

func (r *Ranker) breakdown(f Facility, severity int) Breakdown {
	threshold := r.EmergencyThreshold
	if threshold <= 0 {
		threshold = DefaultEmergencyThreshold
	}

	b := Breakdown{
		Rating:   f.rating() * ratingMultiplier,
		Distance: distancePoints(f),
	}

	switch f.Open {
	case Open:
		b.Open = openBonus
	case OpenUnknown:
		b.Open = unknownOpenBonus
	}

	if severity >= threshold && f.HasEmergencyDesignation() {
		b.Emergency = emergencyBonus
	}
	return b
}

// distancePoints rewards nearby facilities; unknown distance earns nothing
func distancePoints(f Facility) float64 {
	d, ok := f.distance()
	switch {
	case !ok:
		return 0
	case d <= 2:
		return 30
	case d <= 5:
		return 20
	case d <= 10:
		return 10
	default:
		return 0
	}
}

// Rank ranks with the default ranker
func Rank(facilities []Facility, severity int, specializations []string) []RankedFacility {
	return NewRanker().Rank(facilities, severity, specializations)
}
