package triage

// Specialization is a medical specialty used to match facilities to symptoms
type Specialization string

const (
	Cardiology       Specialization = "cardiology"
	Neurology        Specialization = "neurology"
	Dermatology      Specialization = "dermatology"
	InternalMedicine Specialization = "internal_medicine"
	Emergency        Specialization = "emergency"
	Pulmonology      Specialization = "pulmonology"
	Gastroenterology Specialization = "gastroenterology"
	Orthopedics      Specialization = "orthopedics"
	Rheumatology     Specialization = "rheumatology"
	ENT              Specialization = "ent"
)

var specializationMap = map[SymptomTag][]Specialization{
	ChestPain:         {Cardiology, Emergency},
	ShortnessOfBreath: {Pulmonology, Cardiology, Emergency},
	Headache:          {Neurology, InternalMedicine},
	StomachPain:       {Gastroenterology, InternalMedicine},
	BackPain:          {Orthopedics, Neurology},
	JointPain:         {Rheumatology, Orthopedics},
	Rash:              {Dermatology},
	Fever:             {InternalMedicine, Emergency},
	SoreThroat:        {ENT},
	Cough:             {Pulmonology},
	Dizziness:         {Neurology},
	Swelling:          {InternalMedicine},
}

// Specializations maps symptoms to the union of their specialties, in the
// order they are first seen. An empty union falls back to internal medicine.
func Specializations(symptoms Symptoms) []Specialization {
	seen := make(map[Specialization]bool)
	out := make([]Specialization, 0, 4)

	for _, tag := range symptoms {
		for _, spec := range specializationMap[tag] {
			if seen[spec] {
				continue
			}
			seen[spec] = true
			out = append(out, spec)
		}
	}

	if len(out) == 0 {
		return []Specialization{InternalMedicine}
	}
	return out
}

// SpecializationStrings converts specialties for JSON and ranking input
func SpecializationStrings(specs []Specialization) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = string(s)
	}
	return out
}

// AllSpecializations lists every known specialty in declaration order
func AllSpecializations() []Specialization {
	return []Specialization{
		Cardiology, Neurology, Dermatology, InternalMedicine, Emergency,
		Pulmonology, Gastroenterology, Orthopedics, Rheumatology, ENT,
	}
}
