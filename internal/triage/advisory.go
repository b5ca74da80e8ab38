package triage

import "strings"

// ActionTier is the coarse recommended response for a severity score
type ActionTier string

const (
	HomeRemedy  ActionTier = "home_remedy"
	DoctorVisit ActionTier = "doctor_visit"
	EmergencyER ActionTier = "emergency"
)

const (
	DefaultEmergencyThreshold = 70
	DefaultDoctorThreshold    = 40
)

// Disclaimer accompanies every advisory response
const Disclaimer = "This is automated triage guidance, not a medical diagnosis. Consult a healthcare professional for proper evaluation."

var tierTemplates = map[ActionTier]string{
	EmergencyER: "**URGENT**: Your symptoms suggest you need immediate medical attention. Please visit the nearest emergency room or call emergency services right away.",
	DoctorVisit: "**Doctor Consultation Recommended**: Your symptoms warrant a visit to a healthcare professional. Please schedule an appointment with a doctor soon.",
	HomeRemedy:  "**Home Care**: Your symptoms appear mild. Try rest, hydration, and over-the-counter remedies. Monitor your condition and seek medical help if symptoms worsen.",
}

var symptomTips = map[SymptomTag]string{
	Fever:             "**Fever Care**: Stay hydrated, rest, and consider fever-reducing medication if temperature is high.",
	Headache:          "**Headache Relief**: Try rest in a dark room, stay hydrated, and consider pain relievers if needed.",
	Cough:             "**Cough Care**: Stay hydrated, use throat lozenges, and avoid irritants. See a doctor if persistent.",
	SoreThroat:        "**Sore Throat**: Gargle with warm salt water and drink warm fluids. See a doctor if it lasts more than a week or swallowing becomes hard.",
	Nausea:            "**Nausea**: Sip clear fluids slowly and eat bland food. Seek care if you cannot keep fluids down.",
	Dizziness:         "**Dizziness**: Sit or lie down until it passes and avoid driving. Seek care if it comes with fainting or slurred speech.",
	ChestPain:         "**Chest Pain**: Stop all physical activity and rest. Call emergency services if the pain is crushing or spreads to the arm, jaw, or back.",
	ShortnessOfBreath: "**Breathing Difficulty**: Sit upright and stay calm. Call emergency services if breathing does not ease quickly or lips turn blue.",
	StomachPain:       "**Stomach Pain**: Avoid heavy meals and stay hydrated. Seek care if the pain is sharp, localized, or comes with fever.",
	BackPain:          "**Back Pain**: Keep gently active and use heat or cold packs. Seek care if you notice numbness or weakness in the legs.",
	Rash:              "**Rash**: Keep the area clean and avoid scratching. Seek care if it spreads quickly or comes with swelling of the face.",
}

// Advisory is the deterministic composer output
type Advisory struct {
	Tier ActionTier `json:"recommended_action"`
	Text string     `json:"advice"`
}

// Thresholds are the score cut-offs for the action tiers
type Thresholds struct {
	Emergency int
	Doctor    int
}

// DefaultThresholds returns the fixed policy cut-offs (70 / 40)
func DefaultThresholds() Thresholds {
	return Thresholds{Emergency: DefaultEmergencyThreshold, Doctor: DefaultDoctorThreshold}
}

// withDefaults fills unset values and keeps Doctor at or below Emergency
func (t Thresholds) withDefaults() Thresholds {
	if t.Emergency <= 0 {
		t.Emergency = DefaultEmergencyThreshold
	}
	if t.Doctor <= 0 {
		t.Doctor = DefaultDoctorThreshold
	}
	if t.Doctor > t.Emergency {
		t.Doctor = t.Emergency
	}
	return t
}

// Tier classifies a severity score
func (t Thresholds) Tier(score int) ActionTier {
	switch {
	case score >= t.Emergency:
		return EmergencyER
	case score >= t.Doctor:
		return DoctorVisit
	default:
		return HomeRemedy
	}
}

// Compose builds the tier advice followed by one tip per present symptom,
// in vocabulary order
func (t Thresholds) Compose(score int, symptoms Symptoms) Advisory {
	tier := t.Tier(score)

	var b strings.Builder
	b.WriteString(tierTemplates[tier])
	for _, p := range symptomPatterns {
		if !symptoms.Has(p.tag) {
			continue
		}
		if tip, ok := symptomTips[p.tag]; ok {
			b.WriteString("\n\n")
			b.WriteString(tip)
		}
	}

	return Advisory{Tier: tier, Text: b.String()}
}
