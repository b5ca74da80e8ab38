package triage

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Symptoms
	}{
		{"empty", "", Symptoms{}},
		{"no symptoms", "hello, how are you today?", Symptoms{}},
		{"chest pain and breathing", "I have severe chest pain and can't breathe", Symptoms{ChestPain, ShortnessOfBreath}},
		{"mild headache", "mild headache", Symptoms{Headache}},
		{"case insensitive", "MIGRAINE since morning", Symptoms{Headache}},
		{"curly apostrophe", "I can’t breathe", Symptoms{ShortnessOfBreath}},
		{"whole word only", "the hotel was nice", Symptoms{}},
		{"vocabulary order", "itchy rash and a fever with cough", Symptoms{Fever, Cough, Rash}},
		{"synonym", "feeling lightheaded and exhausted", Symptoms{Dizziness, Fatigue}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtract_NoDuplicates(t *testing.T) {
	got := Extract("cough cough coughing, so much coughing")
	assert.Equal(t, Symptoms{Cough}, got)
}

func TestScorer_Scenarios(t *testing.T) {
	scorer := NewScorer(nil)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"nothing recognised", "just checking in", 0},
		{"mild headache", "mild headache", 20},
		{"clamped emergency", "I have severe chest pain and can't breathe", 100},
		{"duration once", "sore throat for days and weeks, chronic", 5 + DurationBonus},
		{"intensity once", "very very really dizzy", 15 + IntensityBonus},
		{"every is not very", "tired every morning", 5},
		{"keyword counted once", "urgent, urgent, urgent", EmergencyKeywordBonus},
		{"distinct keywords add", "urgent and unbearable", 2 * EmergencyKeywordBonus},
		{"inflected keyword", "severely bloated", 12 + EmergencyKeywordBonus},
		{"adverb keyword", "urgently need help", EmergencyKeywordBonus},
		{"duration word inside longer word", "tired after the daystar festival", 5},
		{"intensity word inside longer word", "tired and veryfied", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Score(Extract(tt.text), tt.text))
		})
	}
}

func TestScorer_EmptyInputsYieldZero(t *testing.T) {
	assert.Equal(t, 0, NewScorer(nil).Score(Symptoms{}, ""))
	assert.Equal(t, 0, NewScorer(nil).Score(nil, ""))
}

func TestScorer_UnknownTagUsesDefaultWeight(t *testing.T) {
	scorer := NewScorer(nil)
	assert.Equal(t, DefaultWeight, scorer.Weight(SymptomTag("hiccups")))
	assert.Equal(t, DefaultWeight, scorer.Score(Symptoms{"hiccups"}, ""))
}

func TestScorer_Overrides(t *testing.T) {
	overrides := map[SymptomTag]int{Headache: 50}
	scorer := NewScorer(overrides)
	overrides[Headache] = 1

	assert.Equal(t, 50, scorer.Weight(Headache))
	assert.Equal(t, 30, scorer.Weight(ChestPain))
	assert.Equal(t, 20, NewScorer(nil).Weight(Headache))
}

func TestScorer_Bounded(t *testing.T) {
	scorer := NewScorer(map[SymptomTag]int{Rash: -500})
	inputs := []string{
		"",
		"rash",
		strings.Repeat("emergency urgent severe intense unbearable can't breathe chest pain ", 10),
		"fever headache cough sore throat nausea dizzy chest pain shortness of breath tired stomach pain back pain joint pain rash swelling very days",
	}
	for _, in := range inputs {
		score := scorer.Score(Extract(in), in)
		assert.GreaterOrEqual(t, score, MinScore, in)
		assert.LessOrEqual(t, score, MaxScore, in)
	}
}

func TestScorer_EmergencyKeywordNeverLowersScore(t *testing.T) {
	scorer := NewScorer(nil)
	bases := []string{"", "mild headache", "tired", "stomach ache for days", "I have severe chest pain"}

	for _, base := range bases {
		before := scorer.Score(Extract(base), base)
		for _, kw := range EmergencyKeywords() {
			text := base + " " + kw
			after := scorer.Score(Extract(text), text)
			assert.GreaterOrEqual(t, after, before, "%q + %q", base, kw)
		}
	}
}

func TestSpecializations(t *testing.T) {
	assert.Equal(t, []Specialization{InternalMedicine}, Specializations(Symptoms{}))
	assert.Equal(t, []Specialization{InternalMedicine}, Specializations(Symptoms{Fatigue}))
	assert.Equal(t, []Specialization{Cardiology, Emergency, Pulmonology},
		Specializations(Symptoms{ChestPain, ShortnessOfBreath}))
	assert.Equal(t, []Specialization{Dermatology}, Specializations(Symptoms{Rash}))
}

func TestThresholds_Tier(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, EmergencyER, th.Tier(100))
	assert.Equal(t, EmergencyER, th.Tier(70))
	assert.Equal(t, DoctorVisit, th.Tier(69))
	assert.Equal(t, DoctorVisit, th.Tier(40))
	assert.Equal(t, HomeRemedy, th.Tier(39))
	assert.Equal(t, HomeRemedy, th.Tier(0))
}

func TestThresholds_WithDefaults(t *testing.T) {
	th := Thresholds{}.withDefaults()
	assert.Equal(t, DefaultThresholds(), th)

	th = Thresholds{Emergency: 50, Doctor: 60}.withDefaults()
	assert.Equal(t, 50, th.Doctor)
}

func TestCompose_TipsFollowVocabularyOrder(t *testing.T) {
	adv := DefaultThresholds().Compose(30, Symptoms{Cough, Fever})

	require.Equal(t, HomeRemedy, adv.Tier)
	assert.True(t, strings.HasPrefix(adv.Text, tierTemplates[HomeRemedy]))

	feverAt := strings.Index(adv.Text, symptomTips[Fever])
	coughAt := strings.Index(adv.Text, symptomTips[Cough])
	require.NotEqual(t, -1, feverAt)
	require.NotEqual(t, -1, coughAt)
	assert.Less(t, feverAt, coughAt)
}

func TestCompose_NoTipForUntippedSymptom(t *testing.T) {
	adv := DefaultThresholds().Compose(5, Symptoms{Fatigue})
	assert.Equal(t, tierTemplates[HomeRemedy], adv.Text)
}

func TestEngine_Assess(t *testing.T) {
	engine := NewEngine(Config{})

	a := engine.Assess("I have severe chest pain and can't breathe")
	assert.Equal(t, Symptoms{ChestPain, ShortnessOfBreath}, a.Symptoms)
	assert.Equal(t, 100, a.Score)
	assert.Equal(t, EmergencyER, a.Tier)
	assert.Contains(t, a.Advice, "**URGENT**")
	assert.Contains(t, a.Specializations, Cardiology)

	a = engine.Assess("mild headache")
	assert.Equal(t, 20, a.Score)
	assert.Equal(t, HomeRemedy, a.Tier)

	a = engine.Assess("nothing to report")
	assert.Empty(t, a.Symptoms)
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, HomeRemedy, a.Tier)
	assert.Equal(t, []Specialization{InternalMedicine}, a.Specializations)
}

func TestEngine_ConfigOverrides(t *testing.T) {
	engine := NewEngine(Config{
		Weights:    map[SymptomTag]int{Headache: 45},
		Thresholds: Thresholds{Emergency: 90, Doctor: 45},
	})

	a := engine.Assess("headache")
	assert.Equal(t, 45, a.Score)
	assert.Equal(t, DoctorVisit, a.Tier)
	assert.Equal(t, 45, engine.Score("headache"))
}

func TestEngine_DeterministicUnderConcurrency(t *testing.T) {
	engine := NewEngine(Config{})
	inputs := []string{
		"I have severe chest pain and can't breathe",
		"mild headache",
		"fever and cough for days, really tired",
		"",
		"itchy rash, very swollen",
	}

	want := make([]Assessment, len(inputs))
	for i, in := range inputs {
		want[i] = engine.Assess(in)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				idx := i % len(inputs)
				assert.Equal(t, want[idx], engine.Assess(inputs[idx]))
			}
		}()
	}
	wg.Wait()
}

func TestParseSymptoms(t *testing.T) {
	got := ParseSymptoms([]string{"fever", " Cough ", "fever", "unknown"})
	assert.Equal(t, Symptoms{Fever, Cough}, got)
	assert.Equal(t, []string{"fever", "cough"}, got.Strings())
}
