package triage

import (
	"regexp"
	"strings"
)

// SymptomTag is a canonical symptom from the closed vocabulary below
type SymptomTag string

const (
	Fever             SymptomTag = "fever"
	Headache          SymptomTag = "headache"
	Cough             SymptomTag = "cough"
	SoreThroat        SymptomTag = "sore_throat"
	Nausea            SymptomTag = "nausea"
	Dizziness         SymptomTag = "dizziness"
	ChestPain         SymptomTag = "chest_pain"
	ShortnessOfBreath SymptomTag = "shortness_of_breath"
	Fatigue           SymptomTag = "fatigue"
	StomachPain       SymptomTag = "stomach_pain"
	BackPain          SymptomTag = "back_pain"
	JointPain         SymptomTag = "joint_pain"
	Rash              SymptomTag = "rash"
	Swelling          SymptomTag = "swelling"
)

type symptomPattern struct {
	tag     SymptomTag
	matcher *regexp.Regexp
}

// Vocabulary order. Extraction, tips and specialization lookups all walk this
// table so their output order never depends on the input.
var symptomPatterns = []symptomPattern{
	{Fever, regexp.MustCompile(`(?i)\b(fever|temperature|hot|burning up)\b`)},
	{Headache, regexp.MustCompile(`(?i)\b(headache|head pain|migraine)\b`)},
	{Cough, regexp.MustCompile(`(?i)\b(cough|coughing)\b`)},
	{SoreThroat, regexp.MustCompile(`(?i)\b(sore throat|throat pain)\b`)},
	{Nausea, regexp.MustCompile(`(?i)\b(nausea|nauseous|sick|vomit)\b`)},
	{Dizziness, regexp.MustCompile(`(?i)\b(dizzy|dizziness|lightheaded)\b`)},
	{ChestPain, regexp.MustCompile(`(?i)\b(chest pain|chest hurt)\b`)},
	{ShortnessOfBreath, regexp.MustCompile(`(?i)\b(shortness of breath|can't breathe|cannot breathe|breathing problem)\b`)},
	{Fatigue, regexp.MustCompile(`(?i)\b(tired|fatigue|exhausted|weak)\b`)},
	{StomachPain, regexp.MustCompile(`(?i)\b(stomach pain|stomach ache|abdominal pain)\b`)},
	{BackPain, regexp.MustCompile(`(?i)\b(back pain|backache)\b`)},
	{JointPain, regexp.MustCompile(`(?i)\b(joint pain|arthritis|stiff)\b`)},
	{Rash, regexp.MustCompile(`(?i)\b(rash|skin irritation|itchy)\b`)},
	{Swelling, regexp.MustCompile(`(?i)\b(swelling|swollen|bloated)\b`)},
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Vocabulary returns every known tag in vocabulary order
func Vocabulary() []SymptomTag {
	tags := make([]SymptomTag, len(symptomPatterns))
	for i, p := range symptomPatterns {
		tags[i] = p.tag
	}
	return tags
}

// IsKnown reports whether tag belongs to the vocabulary
func IsKnown(tag SymptomTag) bool {
	for _, p := range symptomPatterns {
		if p.tag == tag {
			return true
		}
	}
	return false
}

// Symptoms is an ordered set of extracted tags
type Symptoms []SymptomTag

// Has reports whether tag is present
func (s Symptoms) Has(tag SymptomTag) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Strings converts the set for storage and JSON payloads
func (s Symptoms) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = string(t)
	}
	return out
}

// ParseSymptoms turns stored tag names back into a Symptoms set, dropping
// unknown names and duplicates
func ParseSymptoms(names []string) Symptoms {
	out := make(Symptoms, 0, len(names))
	for _, name := range names {
		tag := SymptomTag(strings.TrimSpace(strings.ToLower(name)))
		if !IsKnown(tag) || out.Has(tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// Extract returns the tags whose pattern occurs anywhere in text
func Extract(text string) Symptoms {
	text = normalize(text)
	found := make(Symptoms, 0, 4)
	if text == "" {
		return found
	}

	for _, p := range symptomPatterns {
		if p.matcher.MatchString(text) {
			found = append(found, p.tag)
		}
	}
	return found
}

func normalize(text string) string {
	return apostrophes.Replace(text)
}
