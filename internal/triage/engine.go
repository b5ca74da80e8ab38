// Package triage holds the deterministic symptom triage core: extraction,
// severity scoring, specialization mapping and advisory composition.
//
// Everything here is pure. Pattern tables are compiled at init and only read
// afterwards, so an Engine may be shared by any number of goroutines.
package triage

// Assessment is the combined core output for one message
type Assessment struct {
	Symptoms        Symptoms         `json:"symptoms"`
	Score           int              `json:"severity_score"`
	Tier            ActionTier       `json:"recommended_action"`
	Advice          string           `json:"advice"`
	Specializations []Specialization `json:"specializations"`
}

// Config overrides the policy tables. Zero values keep the defaults.
type Config struct {
	Weights    map[SymptomTag]int
	Thresholds Thresholds
}

// Engine runs the full triage pipeline
type Engine struct {
	scorer     *Scorer
	thresholds Thresholds
}

// NewEngine builds an engine from the default tables plus cfg overrides
func NewEngine(cfg Config) *Engine {
	return &Engine{
		scorer:     NewScorer(cfg.Weights),
		thresholds: cfg.Thresholds.withDefaults(),
	}
}

// Thresholds returns the tier cut-offs in effect
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Score extracts symptoms from text and scores them
func (e *Engine) Score(text string) int {
	return e.scorer.Score(Extract(text), text)
}

// Assess runs extraction, scoring, composition and specialization mapping
func (e *Engine) Assess(text string) Assessment {
	symptoms := Extract(text)
	score := e.scorer.Score(symptoms, text)
	advisory := e.thresholds.Compose(score, symptoms)

	return Assessment{
		Symptoms:        symptoms,
		Score:           score,
		Tier:            advisory.Tier,
		Advice:          advisory.Text,
		Specializations: Specializations(symptoms),
	}
}
