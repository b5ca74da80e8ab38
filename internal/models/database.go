package models

// GORM models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray for PostgreSQL array support
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		parts := strings.Split(v, ",")
		for i, p := range parts {
			parts[i] = strings.Trim(p, `"`)
		}
		*s = StringArray(parts)
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Valid recommended actions, mirrored in the consultations check constraint
var validActions = map[string]bool{
	"home_remedy":  true,
	"doctor_visit": true,
	"emergency":    true,
}

var validFeedbackTypes = map[string]bool{
	"helpful":           true,
	"not_helpful":       true,
	"partially_helpful": true,
}

// IsValidFeedbackType reports whether t is an accepted feedback type
func IsValidFeedbackType(t string) bool {
	return validFeedbackTypes[t]
}

// ChatMessage is one user message and the advice returned for it
type ChatMessage struct {
	BaseModel
	UserSession       string      `json:"user_session" gorm:"index;not null"`
	Message           string      `json:"message" gorm:"not null"`
	Response          string      `json:"response" gorm:"not null"`
	SeverityScore     int         `json:"severity_score" gorm:"default:0"`
	ExtractedSymptoms StringArray `json:"extracted_symptoms" gorm:"type:text[]"`
	ResponseTimeMs    int         `json:"response_time_ms"`
	UserAgent         string      `json:"user_agent"`
	IPAddress         string      `json:"ip_address" gorm:"type:inet"`
}

// Consultation is the triage outcome recorded for a chat message
type Consultation struct {
	BaseModel
	ChatMessageID        uint        `json:"chat_message_id" gorm:"index"`
	UserSession          string      `json:"user_session" gorm:"index;not null"`
	Symptoms             StringArray `json:"symptoms" gorm:"type:text[]"`
	SeverityScore        int         `json:"severity_score" gorm:"not null"`
	RecommendedAction    string      `json:"recommended_action" gorm:"not null;check:recommended_action IN ('home_remedy','doctor_visit','emergency')"`
	Advice               string      `json:"advice"`
	Narrative            string      `json:"narrative"`
	Specializations      StringArray `json:"specializations" gorm:"type:text[]"`
	RecommendedHospitals string      `json:"recommended_hospitals" gorm:"type:jsonb;default:'[]'"`
	Location             string      `json:"location"`

	// Associations
	ChatMessage ChatMessage            `json:"-" gorm:"foreignKey:ChatMessageID"`
	Feedback    []ConsultationFeedback `json:"feedback" gorm:"foreignKey:ConsultationID"`
}

// ConsultationFeedback is a user's rating of a consultation
type ConsultationFeedback struct {
	BaseModel
	ConsultationID uint   `json:"consultation_id" gorm:"not null"`
	FeedbackType   string `json:"feedback_type" gorm:"not null;check:feedback_type IN ('helpful','not_helpful','partially_helpful')"`
	FeedbackText   string `json:"feedback_text"`
	UserSession    string `json:"user_session"`
}

// SymptomStat tracks how often a symptom is reported
type SymptomStat struct {
	BaseModel
	Symptom         string    `json:"symptom" gorm:"unique;not null"`
	OccurrenceCount int       `json:"occurrence_count" gorm:"default:1"`
	AvgSeverity     float64   `json:"avg_severity" gorm:"type:decimal(5,2);default:0"`
	LastSeen        time.Time `json:"last_seen" gorm:"default:NOW()"`
}

// DirectoryFacility is a facility listing collected by the directory crawler
type DirectoryFacility struct {
	BaseModel
	Name        string      `json:"name" gorm:"not null;uniqueIndex:idx_directory_name_address"`
	Address     string      `json:"address" gorm:"uniqueIndex:idx_directory_name_address"`
	City        string      `json:"city" gorm:"index"`
	Phone       string      `json:"phone"`
	Website     string      `json:"website"`
	Rating      *float64    `json:"rating"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	Specialties StringArray `json:"specialties" gorm:"type:text[]"`
	Emergency   bool        `json:"emergency" gorm:"default:false"`
	SourceURL   string      `json:"source_url" gorm:"index"`
	ContentHash string      `json:"content_hash"`
	LastCrawled *time.Time  `json:"last_crawled"`
	IsActive    bool        `json:"is_active" gorm:"default:true"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

// Database interfaces for repository pattern
type ChatMessageRepository interface {
	Create(msg *ChatMessage) error
	GetBySession(session string, limit int) ([]ChatMessage, error)
}

type ConsultationRepository interface {
	Create(consultation *Consultation) error
	GetByID(id uint) (*Consultation, error)
	GetBySession(session string, limit int) ([]Consultation, error)
	CountByAction(from, to time.Time) (map[string]int64, error)
}

type FeedbackRepository interface {
	Create(feedback *ConsultationFeedback) error
	GetByConsultationID(consultationID uint) ([]ConsultationFeedback, error)
}

type SymptomStatRepository interface {
	Record(symptom string, severity int) error
	GetTop(limit int) ([]SymptomStat, error)
}

type DirectoryRepository interface {
	Upsert(entry *DirectoryFacility) error
	GetByNameAndAddress(name, address string) (*DirectoryFacility, error)
	SearchByLocation(location string, limit int) ([]DirectoryFacility, error)
	SearchNear(lat, lng, radiusKm float64, limit int) ([]DirectoryFacility, error)
	ListBySource(sourceURL string) ([]DirectoryFacility, error)
	Deactivate(id uint) error
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetServiceHealth(serviceName string) (*SystemHealth, error)
	GetAllServicesHealth() ([]SystemHealth, error)
}

// TableName methods for custom table names
func (ChatMessage) TableName() string          { return "chat_messages" }
func (Consultation) TableName() string         { return "consultations" }
func (ConsultationFeedback) TableName() string { return "consultation_feedback" }
func (SymptomStat) TableName() string          { return "symptom_stats" }
func (DirectoryFacility) TableName() string    { return "directory_facilities" }
func (SystemHealth) TableName() string         { return "system_health" }

// Model validation methods
func (m *ChatMessage) Validate() error {
	if strings.TrimSpace(m.Message) == "" {
		return fmt.Errorf("message is required")
	}
	if m.UserSession == "" {
		return fmt.Errorf("user session is required")
	}
	if m.SeverityScore < 0 || m.SeverityScore > 100 {
		return fmt.Errorf("severity score out of range: %d", m.SeverityScore)
	}
	return nil
}

func (c *Consultation) Validate() error {
	if c.UserSession == "" {
		return fmt.Errorf("user session is required")
	}
	if !validActions[c.RecommendedAction] {
		return fmt.Errorf("invalid recommended action: %s", c.RecommendedAction)
	}
	if c.SeverityScore < 0 || c.SeverityScore > 100 {
		return fmt.Errorf("severity score out of range: %d", c.SeverityScore)
	}
	return nil
}

func (f *ConsultationFeedback) Validate() error {
	if f.ConsultationID == 0 {
		return fmt.Errorf("consultation ID is required")
	}
	if !validFeedbackTypes[f.FeedbackType] {
		return fmt.Errorf("invalid feedback type: %s", f.FeedbackType)
	}
	return nil
}

func (d *DirectoryFacility) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("facility name is required")
	}
	if d.Rating != nil && (*d.Rating < 0 || *d.Rating > 5) {
		return fmt.Errorf("rating out of range: %.1f", *d.Rating)
	}
	return nil
}

// GORM hooks
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	return m.Validate()
}

func (c *Consultation) BeforeCreate(tx *gorm.DB) error {
	return c.Validate()
}

func (f *ConsultationFeedback) BeforeCreate(tx *gorm.DB) error {
	return f.Validate()
}

func (d *DirectoryFacility) BeforeSave(tx *gorm.DB) error {
	return d.Validate()
}
