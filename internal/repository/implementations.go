package repository

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatMessageRepositoryImpl implements ChatMessageRepository
type ChatMessageRepositoryImpl struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) models.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{db: db}
}

func (r *ChatMessageRepositoryImpl) Create(msg *models.ChatMessage) error {
	return r.db.Create(msg).Error
}

func (r *ChatMessageRepositoryImpl) GetBySession(session string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("user_session = ?", session).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// ConsultationRepositoryImpl implements ConsultationRepository
type ConsultationRepositoryImpl struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) models.ConsultationRepository {
	return &ConsultationRepositoryImpl{db: db}
}

func (r *ConsultationRepositoryImpl) Create(consultation *models.Consultation) error {
	return r.db.Create(consultation).Error
}

func (r *ConsultationRepositoryImpl) GetByID(id uint) (*models.Consultation, error) {
	var consultation models.Consultation
	err := r.db.Preload("Feedback").First(&consultation, id).Error
	if err != nil {
		return nil, err
	}
	return &consultation, nil
}

func (r *ConsultationRepositoryImpl) GetBySession(session string, limit int) ([]models.Consultation, error) {
	var consultations []models.Consultation
	err := r.db.Where("user_session = ?", session).
		Order("created_at DESC").
		Limit(limit).
		Find(&consultations).Error
	return consultations, err
}

func (r *ConsultationRepositoryImpl) CountByAction(from, to time.Time) (map[string]int64, error) {
	var rows []struct {
		RecommendedAction string
		Total             int64
	}
	err := r.db.Model(&models.Consultation{}).
		Select("recommended_action, COUNT(*) AS total").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("recommended_action").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.RecommendedAction] = row.Total
	}
	return counts, nil
}

// FeedbackRepositoryImpl implements FeedbackRepository
type FeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) models.FeedbackRepository {
	return &FeedbackRepositoryImpl{db: db}
}

func (r *FeedbackRepositoryImpl) Create(feedback *models.ConsultationFeedback) error {
	return r.db.Create(feedback).Error
}

func (r *FeedbackRepositoryImpl) GetByConsultationID(consultationID uint) ([]models.ConsultationFeedback, error) {
	var feedback []models.ConsultationFeedback
	err := r.db.Where("consultation_id = ?", consultationID).
		Order("created_at DESC").
		Find(&feedback).Error
	return feedback, err
}

// SymptomStatRepositoryImpl implements SymptomStatRepository
type SymptomStatRepositoryImpl struct {
	db *gorm.DB
}

func NewSymptomStatRepository(db *gorm.DB) models.SymptomStatRepository {
	return &SymptomStatRepositoryImpl{db: db}
}

// Record bumps the occurrence count and folds severity into the running average
func (r *SymptomStatRepositoryImpl) Record(symptom string, severity int) error {
	return r.db.Exec(`
		INSERT INTO symptom_stats (symptom, occurrence_count, avg_severity, last_seen, created_at, updated_at)
		VALUES (?, 1, ?, NOW(), NOW(), NOW())
		ON CONFLICT (symptom)
		DO UPDATE SET
			avg_severity = (symptom_stats.avg_severity * symptom_stats.occurrence_count + EXCLUDED.avg_severity)
				/ (symptom_stats.occurrence_count + 1),
			occurrence_count = symptom_stats.occurrence_count + 1,
			last_seen = NOW(),
			updated_at = NOW()
	`, symptom, severity).Error
}

func (r *SymptomStatRepositoryImpl) GetTop(limit int) ([]models.SymptomStat, error) {
	var stats []models.SymptomStat
	err := r.db.Order("occurrence_count DESC").
		Order("symptom").
		Limit(limit).
		Find(&stats).Error
	return stats, err
}

// DirectoryRepositoryImpl implements DirectoryRepository
type DirectoryRepositoryImpl struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) models.DirectoryRepository {
	return &DirectoryRepositoryImpl{db: db}
}

// Upsert inserts a listing or refreshes the one with the same name and address
func (r *DirectoryRepositoryImpl) Upsert(entry *models.DirectoryFacility) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"city", "phone", "website", "rating", "latitude", "longitude",
			"specialties", "emergency", "source_url", "content_hash",
			"last_crawled", "is_active", "updated_at",
		}),
	}).Create(entry).Error
}

func (r *DirectoryRepositoryImpl) GetByNameAndAddress(name, address string) (*models.DirectoryFacility, error) {
	var entry models.DirectoryFacility
	err := r.db.Where("name = ? AND address = ?", name, address).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SearchByLocation matches the first component of location ("Springfield"
// from "Springfield, IL") against city and address. An empty location
// lists every active entry.
func (r *DirectoryRepositoryImpl) SearchByLocation(location string, limit int) ([]models.DirectoryFacility, error) {
	query := r.db.Where("is_active = ?", true)

	if term := locationTerm(location); term != "" {
		pattern := fmt.Sprintf("%%%s%%", term)
		query = query.Where("city ILIKE ? OR address ILIKE ?", pattern, pattern)
	}

	var entries []models.DirectoryFacility
	err := query.Order("emergency DESC").
		Order("rating DESC NULLS LAST").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// SearchNear returns active entries inside the bounding box around
// (lat, lng), nearest first. Rows without coordinates never match.
func (r *DirectoryRepositoryImpl) SearchNear(lat, lng, radiusKm float64, limit int) ([]models.DirectoryFacility, error) {
	box := boundingBox(lat, lng, radiusKm)

	query := r.db.Where("is_active = ?", true).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.minLat, box.maxLat)
	if !box.allLng {
		query = query.Where("longitude BETWEEN ? AND ?", box.minLng, box.maxLng)
	}

	scale := math.Cos(lat * math.Pi / 180)
	var entries []models.DirectoryFacility
	err := query.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:                "(latitude - ?) * (latitude - ?) + (longitude - ?) * (longitude - ?) * ?",
		Vars:               []interface{}{lat, lat, lng, lng, scale * scale},
		WithoutParentheses: true,
	}}).
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

type latLngBox struct {
	minLat, maxLat float64
	minLng, maxLng float64
	allLng         bool
}

// boundingBox widens a radius into degree bounds. Near the poles or across
// the antimeridian the longitude bound is dropped instead of wrapped.
func boundingBox(lat, lng, radiusKm float64) latLngBox {
	const kmPerDegree = 111.0

	dLat := radiusKm / kmPerDegree
	box := latLngBox{
		minLat: math.Max(lat-dLat, -90),
		maxLat: math.Min(lat+dLat, 90),
	}

	cos := math.Cos(lat * math.Pi / 180)
	if cos < 0.01 {
		box.allLng = true
		return box
	}
	dLng := radiusKm / (kmPerDegree * cos)
	box.minLng, box.maxLng = lng-dLng, lng+dLng
	if box.minLng < -180 || box.maxLng > 180 {
		box.allLng = true
	}
	return box
}

// ListBySource returns the active listings crawled from one page
func (r *DirectoryRepositoryImpl) ListBySource(sourceURL string) ([]models.DirectoryFacility, error) {
	var entries []models.DirectoryFacility
	err := r.db.Where("source_url = ? AND is_active = ?", sourceURL, true).
		Order("name").
		Find(&entries).Error
	return entries, err
}

func (r *DirectoryRepositoryImpl) Deactivate(id uint) error {
	return r.db.Model(&models.DirectoryFacility{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func locationTerm(location string) string {
	term := strings.TrimSpace(strings.Split(location, ",")[0])
	return strings.NewReplacer("%", "", "_", "").Replace(term)
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Exec(`
		INSERT INTO system_health (service_name, status, response_time_ms, error_message, checked_at)
		VALUES (?, ?, ?, ?, NOW())
	`, serviceName, status, responseTime, errorMsg).Error
}

func (r *SystemHealthRepositoryImpl) GetServiceHealth(serviceName string) (*models.SystemHealth, error) {
	var health models.SystemHealth
	err := r.db.Where("service_name = ?", serviceName).
		Order("checked_at DESC").
		First(&health).Error
	if err != nil {
		return nil, err
	}
	return &health, nil
}

func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT DISTINCT ON (service_name) *
		FROM system_health
		ORDER BY service_name, checked_at DESC
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	ChatMessage  models.ChatMessageRepository
	Consultation models.ConsultationRepository
	Feedback     models.FeedbackRepository
	SymptomStat  models.SymptomStatRepository
	Directory    models.DirectoryRepository
	SystemHealth models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		ChatMessage:  NewChatMessageRepository(db),
		Consultation: NewConsultationRepository(db),
		Feedback:     NewFeedbackRepository(db),
		SymptomStat:  NewSymptomStatRepository(db),
		Directory:    NewDirectoryRepository(db),
		SystemHealth: NewSystemHealthRepository(db),
	}
}
