package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ayash-Bera/mediguide/internal/database"
	"github.com/Ayash-Bera/mediguide/internal/facility"
	"github.com/Ayash-Bera/mediguide/internal/metrics"
	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/Ayash-Bera/mediguide/internal/places"
	"github.com/Ayash-Bera/mediguide/internal/repository"
	"github.com/Ayash-Bera/mediguide/internal/triage"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	MaxMessageLength   = 4000
	DefaultHistorySize = 20
	MaxHistorySize     = 100
	DefaultPopularSize = 10

	popularCacheTTL = 5 * time.Minute
)

var (
	ErrEmptyMessage         = errors.New("message is required")
	ErrMessageTooLong       = fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	ErrInvalidFeedbackType  = errors.New("feedback_type must be helpful, not_helpful or partially_helpful")
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrStorageUnavailable   = errors.New("storage not configured")
)

// FacilityFinder resolves candidate facilities for a location
type FacilityFinder interface {
	Find(ctx context.Context, q places.Query) places.Result
}

// Narrator produces optional narrative prose for an assessment
type Narrator interface {
	Enabled() bool
	Narrative(ctx context.Context, text string, a triage.Assessment) (string, error)
}

// Cache holds facility lookups and symptom statistics between requests
type Cache interface {
	GetCachedFacilities(ctx context.Context, location string, radius int, result interface{}) error
	CacheFacilities(ctx context.Context, location string, radius int, result interface{}, expiration time.Duration) error
	GetCachedPopularSymptoms(ctx context.Context, limit int) ([]models.SymptomStat, error)
	CachePopularSymptoms(ctx context.Context, limit int, stats []models.SymptomStat, expiration time.Duration) error
}

// Options tune the service; zero values fall back to defaults
type Options struct {
	DefaultLocation string
	DefaultRadius   int
	FacilityTTL     time.Duration
	FacilityTimeout time.Duration
	AdvisorTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultLocation == "" {
		o.DefaultLocation = "New York, NY"
	}
	if o.DefaultRadius <= 0 {
		o.DefaultRadius = places.DefaultRadius
	}
	if o.FacilityTTL <= 0 {
		o.FacilityTTL = 10 * time.Minute
	}
	if o.FacilityTimeout <= 0 {
		o.FacilityTimeout = 15 * time.Second
	}
	if o.AdvisorTimeout <= 0 {
		o.AdvisorTimeout = 20 * time.Second
	}
	return o
}

// AssessInput is one triage request with its client context
type AssessInput struct {
	Message   string
	Location  string
	Radius    int
	Session   string
	UserAgent string
	IPAddress string
}

// HospitalQuery drives a standalone facility search
type HospitalQuery struct {
	Location string
	Radius   int
	Severity int
	Symptoms []string
}

type TriageService struct {
	engine      *triage.Engine
	ranker      *facility.Ranker
	finder      FacilityFinder
	narrator    Narrator
	cache       Cache
	repoManager *repository.RepositoryManager
	opts        Options
	logger      *logrus.Logger
}

func NewTriageService(
	engine *triage.Engine,
	finder FacilityFinder,
	narrator Narrator,
	cache Cache,
	repoManager *repository.RepositoryManager,
	opts Options,
	logger *logrus.Logger,
) *TriageService {
	return &TriageService{
		engine: engine,
		ranker: &facility.Ranker{
			Limit:              facility.DefaultLimit,
			EmergencyThreshold: engine.Thresholds().Emergency,
		},
		finder:      finder,
		narrator:    narrator,
		cache:       cache,
		repoManager: repoManager,
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

// ValidateMessage trims the message and enforces the length bounds
func ValidateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return message, nil
}

// Assess runs the triage core and enriches the result with facilities,
// narrative and persistence. Only invalid input is an error.
func (s *TriageService) Assess(ctx context.Context, in AssessInput) (*models.TriageResponse, error) {
	start := time.Now()

	message, err := ValidateMessage(in.Message)
	if err != nil {
		return nil, err
	}

	assessment := s.engine.Assess(message)
	metrics.RecordAssessment(string(assessment.Tier), assessment.Score)

	s.logger.WithFields(logrus.Fields{
		"session":  in.Session,
		"symptoms": assessment.Symptoms.Strings(),
		"score":    assessment.Score,
		"tier":     assessment.Tier,
	}).Info("Symptoms assessed")

	response := &models.TriageResponse{
		Message:           message,
		SeverityScore:     assessment.Score,
		Symptoms:          assessment.Symptoms.Strings(),
		RecommendedAction: assessment.Tier,
		Advice:            assessment.Advice,
		Specializations:   triage.SpecializationStrings(assessment.Specializations),
		Disclaimer:        triage.Disclaimer,
		Timestamp:         time.Now().UTC(),
	}

	location := s.location(in.Location)
	if s.needsFacilities(assessment, message) {
		result := s.lookupFacilities(ctx, location, s.radius(in.Radius))
		response.Hospitals = s.ranker.Rank(result.Facilities, assessment.Score, response.Specializations)
		response.FacilitySource = result.Source
	}

	response.Narrative = s.narrative(ctx, message, assessment)
	response.ResponseTime = int(time.Since(start).Milliseconds())

	if id, err := s.persist(in, location, response); err != nil {
		s.logger.WithError(err).WithField("session", in.Session).Error("Failed to persist consultation")
	} else {
		response.ID = id
	}

	return response, nil
}

// needsFacilities is true from the doctor threshold up, or when the user
// asks for a hospital outright
func (s *TriageService) needsFacilities(a triage.Assessment, message string) bool {
	if a.Score >= s.engine.Thresholds().Doctor {
		return true
	}
	return strings.Contains(strings.ToLower(message), "hospital")
}

func (s *TriageService) narrative(ctx context.Context, message string, a triage.Assessment) string {
	if s.narrator == nil || !s.narrator.Enabled() {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.AdvisorTimeout)
	defer cancel()

	text, err := s.narrator.Narrative(ctx, message, a)
	if err != nil {
		s.logger.WithError(err).Warn("Narrative unavailable, returning deterministic advice only")
		return ""
	}
	return text
}

// FindHospitals ranks facilities for an explicit search
func (s *TriageService) FindHospitals(ctx context.Context, q HospitalQuery) *models.HospitalSearchResponse {
	location := s.location(q.Location)
	radius := s.radius(q.Radius)
	severity := triage.Clamp(q.Severity)

	specs := triage.SpecializationStrings(triage.Specializations(triage.ParseSymptoms(q.Symptoms)))
	if len(q.Symptoms) == 0 {
		specs = nil
	}

	result := s.lookupFacilities(ctx, location, radius)
	ranked := s.ranker.Rank(result.Facilities, severity, specs)

	return &models.HospitalSearchResponse{
		Location:  location,
		Radius:    radius,
		Severity:  severity,
		Source:    result.Source,
		Hospitals: ranked,
		Total:     len(ranked),
	}
}

// lookupFacilities serves from cache when possible. Fallback answers are
// never cached so a recovered provider is used on the next request.
func (s *TriageService) lookupFacilities(ctx context.Context, location string, radius int) places.Result {
	if s.cache != nil {
		var cached places.Result
		err := s.cache.GetCachedFacilities(ctx, location, radius, &cached)
		switch {
		case err == nil && len(cached.Facilities) > 0:
			s.logger.WithField("location", location).Debug("Facility cache hit")
			return cached
		case err != nil && !database.IsMiss(err):
			s.logger.WithError(err).Warn("Facility cache read failed")
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.FacilityTimeout)
	defer cancel()

	var result places.Result
	if s.finder != nil {
		result = s.finder.Find(lookupCtx, places.Query{Location: location, Radius: radius})
	}
	if len(result.Facilities) == 0 {
		return places.Result{Facilities: facility.FallbackFacilities(), Source: facility.SourceFallback}
	}

	if s.cache != nil && result.Source != facility.SourceFallback {
		if err := s.cache.CacheFacilities(ctx, location, radius, result, s.opts.FacilityTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache facilities")
		}
	}
	return result
}

func (s *TriageService) persist(in AssessInput, location string, resp *models.TriageResponse) (uint, error) {
	if s.repoManager == nil {
		return 0, nil
	}

	msg := &models.ChatMessage{
		UserSession:       in.Session,
		Message:           resp.Message,
		Response:          resp.Advice,
		SeverityScore:     resp.SeverityScore,
		ExtractedSymptoms: models.StringArray(resp.Symptoms),
		ResponseTimeMs:    resp.ResponseTime,
		UserAgent:         in.UserAgent,
		IPAddress:         in.IPAddress,
	}
	if err := s.repoManager.ChatMessage.Create(msg); err != nil {
		return 0, fmt.Errorf("failed to save chat message: %w", err)
	}

	hospitals, err := json.Marshal(resp.Hospitals)
	if err != nil || resp.Hospitals == nil {
		hospitals = []byte("[]")
	}

	consultation := &models.Consultation{
		ChatMessageID:        msg.ID,
		UserSession:          in.Session,
		Symptoms:             models.StringArray(resp.Symptoms),
		SeverityScore:        resp.SeverityScore,
		RecommendedAction:    string(resp.RecommendedAction),
		Advice:               resp.Advice,
		Narrative:            resp.Narrative,
		Specializations:      models.StringArray(resp.Specializations),
		RecommendedHospitals: string(hospitals),
		Location:             location,
	}
	if err := s.repoManager.Consultation.Create(consultation); err != nil {
		return 0, fmt.Errorf("failed to save consultation: %w", err)
	}

	for _, symptom := range resp.Symptoms {
		if err := s.repoManager.SymptomStat.Record(symptom, resp.SeverityScore); err != nil {
			s.logger.WithError(err).WithField("symptom", symptom).Warn("Failed to record symptom stat")
		}
	}

	return consultation.ID, nil
}

// History lists the most recent consultations of a session
func (s *TriageService) History(session string, limit int) ([]models.ConsultationSummary, error) {
	if s.repoManager == nil {
		return nil, ErrStorageUnavailable
	}
	limit = clampLimit(limit, DefaultHistorySize, MaxHistorySize)

	consultations, err := s.repoManager.Consultation.GetBySession(session, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load consultations: %w", err)
	}

	summaries := make([]models.ConsultationSummary, 0, len(consultations))
	for _, c := range consultations {
		summaries = append(summaries, models.ConsultationSummary{
			ID:                c.ID,
			Symptoms:          []string(c.Symptoms),
			SeverityScore:     c.SeverityScore,
			RecommendedAction: c.RecommendedAction,
			Advice:            c.Advice,
			Location:          c.Location,
			CreatedAt:         c.CreatedAt,
		})
	}
	return summaries, nil
}

// SubmitFeedback records a rating of an earlier consultation
func (s *TriageService) SubmitFeedback(session string, req models.FeedbackRequest) error {
	if s.repoManager == nil {
		return ErrStorageUnavailable
	}
	if !models.IsValidFeedbackType(req.FeedbackType) {
		return ErrInvalidFeedbackType
	}

	if _, err := s.repoManager.Consultation.GetByID(req.ConsultationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConsultationNotFound
		}
		return fmt.Errorf("failed to load consultation: %w", err)
	}

	feedback := &models.ConsultationFeedback{
		ConsultationID: req.ConsultationID,
		FeedbackType:   req.FeedbackType,
		FeedbackText:   strings.TrimSpace(req.FeedbackText),
		UserSession:    session,
	}
	if err := s.repoManager.Feedback.Create(feedback); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	metrics.RecordFeedback(req.FeedbackType)
	return nil
}

// ConsultationFeedback lists the feedback left on one consultation
func (s *TriageService) ConsultationFeedback(consultationID uint) ([]models.ConsultationFeedback, error) {
	if s.repoManager == nil {
		return nil, ErrStorageUnavailable
	}

	if _, err := s.repoManager.Consultation.GetByID(consultationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConsultationNotFound
		}
		return nil, fmt.Errorf("failed to load consultation: %w", err)
	}

	feedback, err := s.repoManager.Feedback.GetByConsultationID(consultationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	return feedback, nil
}

// ActionCounts tallies recommended actions over the trailing window. Every
// tier is present in the result, zero when unused.
func (s *TriageService) ActionCounts(window time.Duration) (map[string]int64, error) {
	if s.repoManager == nil {
		return nil, ErrStorageUnavailable
	}
	if window <= 0 {
		window = 24 * time.Hour
	}

	to := time.Now()
	counts, err := s.repoManager.Consultation.CountByAction(to.Add(-window), to)
	if err != nil {
		return nil, fmt.Errorf("failed to count consultations: %w", err)
	}
	if counts == nil {
		counts = make(map[string]int64, 3)
	}

	for _, tier := range []triage.ActionTier{triage.HomeRemedy, triage.DoctorVisit, triage.EmergencyER} {
		if _, ok := counts[string(tier)]; !ok {
			counts[string(tier)] = 0
		}
	}
	return counts, nil
}

// PopularSymptoms returns the most reported symptoms
func (s *TriageService) PopularSymptoms(ctx context.Context, limit int) ([]models.SymptomStat, error) {
	if s.repoManager == nil {
		return nil, ErrStorageUnavailable
	}
	limit = clampLimit(limit, DefaultPopularSize, len(triage.Vocabulary()))

	if s.cache != nil {
		if stats, err := s.cache.GetCachedPopularSymptoms(ctx, limit); err == nil {
			return stats, nil
		}
	}

	stats, err := s.repoManager.SymptomStat.GetTop(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load symptom stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.CachePopularSymptoms(ctx, limit, stats, popularCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache symptom stats")
		}
	}
	return stats, nil
}

func (s *TriageService) location(requested string) string {
	if loc := strings.TrimSpace(requested); loc != "" {
		return loc
	}
	return s.opts.DefaultLocation
}

func (s *TriageService) radius(requested int) int {
	if requested > 0 && requested <= 50000 {
		return requested
	}
	return s.opts.DefaultRadius
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
