package models

import (
	"time"

	"github.com/Ayash-Bera/mediguide/internal/facility"
	"github.com/Ayash-Bera/mediguide/internal/triage"
)

type TriageRequest struct {
	Message  string `json:"message" binding:"required"`
	Location string `json:"location"`
	Radius   int    `json:"radius"`
}

type TriageResponse struct {
	ID                uint                      `json:"id,omitempty"`
	Message           string                    `json:"message"`
	SeverityScore     int                       `json:"severity_score"`
	Symptoms          []string                  `json:"symptoms"`
	RecommendedAction triage.ActionTier         `json:"recommended_action"`
	Advice            string                    `json:"advice"`
	Narrative         string                    `json:"narrative,omitempty"`
	Specializations   []string                  `json:"specializations"`
	Hospitals         []facility.RankedFacility `json:"hospitals,omitempty"`
	FacilitySource    string                    `json:"facility_source,omitempty"`
	Disclaimer        string                    `json:"disclaimer"`
	Timestamp         time.Time                 `json:"timestamp"`
	ResponseTime      int                       `json:"response_time_ms"`
}

type HospitalSearchResponse struct {
	Location  string                    `json:"location"`
	Radius    int                       `json:"radius"`
	Severity  int                       `json:"severity"`
	Source    string                    `json:"source"`
	Hospitals []facility.RankedFacility `json:"hospitals"`
	Total     int                       `json:"total"`
}

type FeedbackRequest struct {
	ConsultationID uint   `json:"consultation_id" binding:"required"`
	FeedbackType   string `json:"feedback_type" binding:"required"`
	FeedbackText   string `json:"feedback_text"`
}

type ConsultationSummary struct {
	ID                uint      `json:"id"`
	Symptoms          []string  `json:"symptoms"`
	SeverityScore     int       `json:"severity_score"`
	RecommendedAction string    `json:"recommended_action"`
	Advice            string    `json:"advice"`
	Location          string    `json:"location,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
