package triage

import (
	"regexp"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 100

	// DefaultWeight applies to tags missing from the weight table
	DefaultWeight = 5

	EmergencyKeywordBonus = 20
	DurationBonus         = 10
	IntensityBonus        = 15
)

// DefaultWeights is the canonical per-symptom weight table
var DefaultWeights = map[SymptomTag]int{
	ChestPain:         30,
	ShortnessOfBreath: 25,
	Headache:          20,
	Fever:             15,
	Dizziness:         15,
	Swelling:          12,
	Nausea:            10,
	StomachPain:       10,
	BackPain:          8,
	Cough:             8,
	JointPain:         5,
	Rash:              5,
	Fatigue:           5,
	SoreThroat:        5,
}

var (
	emergencyKeywords = []string{"emergency", "urgent", "severe", "intense", "unbearable", "can't breathe", "chest pain"}
	durationWords     = []string{"days", "weeks", "chronic"}
	intensityWords    = []string{"very", "extremely", "really", "badly"}

	emergencyMatchers = compileKeywords(emergencyKeywords)
	durationMatchers  = compileKeywords(durationWords)
	intensityMatchers = compileKeywords(intensityWords)
)

// Keywords match whole words plus a few inflections, so "severely" counts
// as "severe" while "every" and "daystar" match nothing.
func compileKeywords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `(?:ly|s|ed|ing)?\b`)
	}
	return out
}

// EmergencyKeywords returns the keyword phrases that earn the per-keyword bonus
func EmergencyKeywords() []string {
	return append([]string(nil), emergencyKeywords...)
}

// Scorer turns extracted symptoms and raw text into a bounded severity score
type Scorer struct {
	weights map[SymptomTag]int
}

// NewScorer builds a scorer from DefaultWeights with overrides merged on top.
// The overrides map is copied, so later changes by the caller are not seen.
func NewScorer(overrides map[SymptomTag]int) *Scorer {
	weights := make(map[SymptomTag]int, len(DefaultWeights)+len(overrides))
	for tag, w := range DefaultWeights {
		weights[tag] = w
	}
	for tag, w := range overrides {
		weights[tag] = w
	}
	return &Scorer{weights: weights}
}

// Weight returns the weight for tag, or DefaultWeight when it has none
func (s *Scorer) Weight(tag SymptomTag) int {
	if w, ok := s.weights[tag]; ok {
		return w
	}
	return DefaultWeight
}

// Score computes the clamped severity for the given symptoms and text
func (s *Scorer) Score(symptoms Symptoms, text string) int {
	total := 0
	for _, tag := range symptoms {
		total += s.Weight(tag)
	}

	text = normalize(text)
	if strings.TrimSpace(text) != "" {
		total += EmergencyKeywordBonus * countMatches(emergencyMatchers, text)
		if countMatches(durationMatchers, text) > 0 {
			total += DurationBonus
		}
		if countMatches(intensityMatchers, text) > 0 {
			total += IntensityBonus
		}
	}

	return Clamp(total)
}

// countMatches counts distinct matchers found in text
func countMatches(matchers []*regexp.Regexp, text string) int {
	n := 0
	for _, m := range matchers {
		if m.MatchString(text) {
			n++
		}
	}
	return n
}

// Clamp bounds a raw accumulator into [MinScore, MaxScore]
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
