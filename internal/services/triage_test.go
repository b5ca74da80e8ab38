package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/database"
	"github.com/Ayash-Bera/mediguide/internal/facility"
	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/Ayash-Bera/mediguide/internal/places"
	"github.com/Ayash-Bera/mediguide/internal/repository"
	"github.com/Ayash-Bera/mediguide/internal/triage"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakes

type fakeFinder struct {
	result  places.Result
	queries []places.Query
}

func (f *fakeFinder) Find(ctx context.Context, q places.Query) places.Result {
	f.queries = append(f.queries, q)
	return f.result
}

type fakeNarrator struct {
	enabled bool
	text    string
	err     error
	calls   int
}

func (n *fakeNarrator) Enabled() bool { return n.enabled }

func (n *fakeNarrator) Narrative(ctx context.Context, text string, a triage.Assessment) (string, error) {
	n.calls++
	return n.text, n.err
}

type fakeCache struct {
	facilities map[string]places.Result
	popular    map[int][]models.SymptomStat
	readErr    error
	writes     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{facilities: map[string]places.Result{}, popular: map[int][]models.SymptomStat{}}
}

func (c *fakeCache) GetCachedFacilities(ctx context.Context, location string, radius int, result interface{}) error {
	if c.readErr != nil {
		return c.readErr
	}
	r, ok := c.facilities[database.FacilitiesCacheKey(location, radius)]
	if !ok {
		return redis.Nil
	}
	*result.(*places.Result) = r
	return nil
}

func (c *fakeCache) CacheFacilities(ctx context.Context, location string, radius int, result interface{}, expiration time.Duration) error {
	c.writes++
	c.facilities[database.FacilitiesCacheKey(location, radius)] = result.(places.Result)
	return nil
}

func (c *fakeCache) GetCachedPopularSymptoms(ctx context.Context, limit int) ([]models.SymptomStat, error) {
	stats, ok := c.popular[limit]
	if !ok {
		return nil, redis.Nil
	}
	return stats, nil
}

func (c *fakeCache) CachePopularSymptoms(ctx context.Context, limit int, stats []models.SymptomStat, expiration time.Duration) error {
	c.popular[limit] = stats
	return nil
}

type memStore struct {
	mu            sync.Mutex
	messages      []models.ChatMessage
	consultations []models.Consultation
	feedback      []models.ConsultationFeedback
	stats         map[string]int
	failCreate    bool
}

func (m *memStore) Create(msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errors.New("db down")
	}
	msg.ID = uint(len(m.messages) + 1)
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memStore) GetBySession(session string, limit int) ([]models.ChatMessage, error) {
	return nil, nil
}

type memConsultations struct{ *memStore }

func (m memConsultations) Create(c *models.Consultation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uint(len(m.consultations) + 1)
	c.CreatedAt = time.Now()
	m.consultations = append(m.consultations, *c)
	return nil
}

func (m memConsultations) GetByID(id uint) (*models.Consultation, error) {
	for _, c := range m.consultations {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memConsultations) GetBySession(session string, limit int) ([]models.Consultation, error) {
	var out []models.Consultation
	for i := len(m.consultations) - 1; i >= 0 && len(out) < limit; i-- {
		if m.consultations[i].UserSession == session {
			out = append(out, m.consultations[i])
		}
	}
	return out, nil
}

func (m memConsultations) CountByAction(from, to time.Time) (map[string]int64, error) {
	return nil, nil
}

type memFeedback struct{ *memStore }

func (m memFeedback) Create(f *models.ConsultationFeedback) error {
	m.feedback = append(m.feedback, *f)
	return nil
}

func (m memFeedback) GetByConsultationID(id uint) ([]models.ConsultationFeedback, error) {
	return nil, nil
}

type memStats struct{ *memStore }

func (m memStats) Record(symptom string, severity int) error {
	m.stats[symptom]++
	return nil
}

func (m memStats) GetTop(limit int) ([]models.SymptomStat, error) {
	var out []models.SymptomStat
	for _, tag := range triage.Vocabulary() {
		if n := m.stats[string(tag)]; n > 0 && len(out) < limit {
			out = append(out, models.SymptomStat{Symptom: string(tag), OccurrenceCount: n})
		}
	}
	return out, nil
}

func newRepos(store *memStore) *repository.RepositoryManager {
	return &repository.RepositoryManager{
		ChatMessage:  store,
		Consultation: memConsultations{store},
		Feedback:     memFeedback{store},
		SymptomStat:  memStats{store},
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fixture struct {
	service  *TriageService
	finder   *fakeFinder
	narrator *fakeNarrator
	cache    *fakeCache
	store    *memStore
}

func newFixture() *fixture {
	f := &fixture{
		finder: &fakeFinder{result: places.Result{
			Source: places.SourcePlaces,
			Facilities: []facility.Facility{
				{Name: "City General", Rating: facility.Float(4.5), DistanceKm: facility.Float(1.5), Open: facility.Open},
				{Name: "Metro Emergency", Rating: facility.Float(4.0), DistanceKm: facility.Float(1.5), Open: facility.Open},
			},
		}},
		narrator: &fakeNarrator{},
		cache:    newFakeCache(),
		store:    &memStore{stats: map[string]int{}},
	}
	f.service = NewTriageService(
		triage.NewEngine(triage.Config{}),
		f.finder, f.narrator, f.cache, newRepos(f.store),
		Options{DefaultLocation: "Springfield"},
		quietLogger(),
	)
	return f
}

// tests

func TestAssess_EmergencyFindsAndRanksFacilities(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Assess(context.Background(), AssessInput{
		Message: "  I have severe chest pain and can't breathe ",
		Session: "abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "I have severe chest pain and can't breathe", resp.Message)
	assert.Equal(t, 100, resp.SeverityScore)
	assert.Equal(t, triage.EmergencyER, resp.RecommendedAction)
	assert.Equal(t, []string{"chest_pain", "shortness_of_breath"}, resp.Symptoms)
	assert.Equal(t, triage.Disclaimer, resp.Disclaimer)

	require.Len(t, resp.Hospitals, 2)
	assert.Equal(t, "Metro Emergency", resp.Hospitals[0].Name)
	assert.Equal(t, places.SourcePlaces, resp.FacilitySource)

	require.Len(t, f.finder.queries, 1)
	assert.Equal(t, "Springfield", f.finder.queries[0].Location)
	assert.Equal(t, places.DefaultRadius, f.finder.queries[0].Radius)

	assert.Equal(t, uint(1), resp.ID)
	require.Len(t, f.store.consultations, 1)
	assert.Equal(t, "emergency", f.store.consultations[0].RecommendedAction)
	assert.Contains(t, f.store.consultations[0].RecommendedHospitals, "Metro Emergency")
	assert.Equal(t, 1, f.store.stats["chest_pain"])
}

func TestAssess_MildSkipsFacilities(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Assess(context.Background(), AssessInput{Message: "mild headache", Session: "abc"})
	require.NoError(t, err)

	assert.Equal(t, 20, resp.SeverityScore)
	assert.Equal(t, triage.HomeRemedy, resp.RecommendedAction)
	assert.Empty(t, resp.Hospitals)
	assert.Empty(t, f.finder.queries)
}

func TestAssess_HospitalMentionForcesLookup(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Assess(context.Background(), AssessInput{Message: "where is the nearest Hospital?", Location: "Boston, MA"})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.SeverityScore)
	assert.NotEmpty(t, resp.Hospitals)
	assert.Equal(t, "Boston, MA", f.finder.queries[0].Location)
}

func TestAssess_InvalidMessage(t *testing.T) {
	f := newFixture()

	_, err := f.service.Assess(context.Background(), AssessInput{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.service.Assess(context.Background(), AssessInput{Message: strings.Repeat("a", MaxMessageLength+1)})
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = f.service.Assess(context.Background(), AssessInput{Message: strings.Repeat("é", MaxMessageLength)})
	assert.NoError(t, err)
}

func TestAssess_NarrativeIsOptional(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Assess(context.Background(), AssessInput{Message: "fever"})
	require.NoError(t, err)
	assert.Empty(t, resp.Narrative)
	assert.Zero(t, f.narrator.calls)

	f.narrator.enabled = true
	f.narrator.text = "Rest and drink fluids."
	resp, err = f.service.Assess(context.Background(), AssessInput{Message: "fever"})
	require.NoError(t, err)
	assert.Equal(t, "Rest and drink fluids.", resp.Narrative)

	f.narrator.err = errors.New("quota")
	resp, err = f.service.Assess(context.Background(), AssessInput{Message: "fever"})
	require.NoError(t, err)
	assert.Empty(t, resp.Narrative)
	assert.Equal(t, 15, resp.SeverityScore)
}

func TestAssess_PersistenceFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.store.failCreate = true

	resp, err := f.service.Assess(context.Background(), AssessInput{Message: "fever"})
	require.NoError(t, err)
	assert.Zero(t, resp.ID)
	assert.Empty(t, f.store.consultations)
}

func TestAssess_WithoutStorage(t *testing.T) {
	service := NewTriageService(triage.NewEngine(triage.Config{}), nil, nil, nil, nil, Options{}, quietLogger())

	resp, err := service.Assess(context.Background(), AssessInput{Message: "severe chest pain"})
	require.NoError(t, err)
	assert.Equal(t, facility.SourceFallback, resp.FacilitySource)
	assert.Len(t, resp.Hospitals, 3)

	_, err = service.History("s", 5)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestLookupFacilities_CachesProviderResults(t *testing.T) {
	f := newFixture()

	first := f.service.FindHospitals(context.Background(), HospitalQuery{Location: "Boston", Severity: 80})
	second := f.service.FindHospitals(context.Background(), HospitalQuery{Location: " boston ", Severity: 80})

	assert.Len(t, f.finder.queries, 1)
	assert.Equal(t, 1, f.cache.writes)
	assert.Equal(t, first.Hospitals, second.Hospitals)
}

func TestLookupFacilities_FallbackNotCached(t *testing.T) {
	f := newFixture()
	f.finder.result = places.Result{Facilities: facility.FallbackFacilities(), Source: facility.SourceFallback}

	resp := f.service.FindHospitals(context.Background(), HospitalQuery{Location: "Nowhere"})
	assert.Equal(t, facility.SourceFallback, resp.Source)
	assert.Zero(t, f.cache.writes)
}

func TestLookupFacilities_CacheErrorFallsThrough(t *testing.T) {
	f := newFixture()
	f.cache.readErr = errors.New("redis down")

	resp := f.service.FindHospitals(context.Background(), HospitalQuery{Location: "Boston"})
	assert.Equal(t, places.SourcePlaces, resp.Source)
	assert.Len(t, f.finder.queries, 1)
}

func TestFindHospitals_ClampsAndMatchesSpecialties(t *testing.T) {
	f := newFixture()
	f.finder.result = places.Result{Source: places.SourceDirectory, Facilities: []facility.Facility{
		{Name: "Heart Clinic", Specialties: []string{"Cardiology"}},
	}}

	resp := f.service.FindHospitals(context.Background(), HospitalQuery{Severity: 250, Radius: -4, Symptoms: []string{"chest_pain"}})

	assert.Equal(t, 100, resp.Severity)
	assert.Equal(t, places.DefaultRadius, resp.Radius)
	assert.Equal(t, "Springfield", resp.Location)
	require.Len(t, resp.Hospitals, 1)
	assert.Equal(t, []string{"cardiology"}, resp.Hospitals[0].MatchedSpecialties)
	assert.Equal(t, 1, resp.Total)
}

func TestHistoryAndFeedback(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.service.Assess(ctx, AssessInput{Message: "fever", Session: "s1"})
	require.NoError(t, err)
	second, err := f.service.Assess(ctx, AssessInput{Message: "rash", Session: "s1"})
	require.NoError(t, err)
	_, err = f.service.Assess(ctx, AssessInput{Message: "cough", Session: "s2"})
	require.NoError(t, err)

	history, err := f.service.History("s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, []string{"rash"}, history[0].Symptoms)

	err = f.service.SubmitFeedback("s1", models.FeedbackRequest{ConsultationID: second.ID, FeedbackType: "helpful", FeedbackText: " thanks "})
	require.NoError(t, err)
	require.Len(t, f.store.feedback, 1)
	assert.Equal(t, "thanks", f.store.feedback[0].FeedbackText)

	err = f.service.SubmitFeedback("s1", models.FeedbackRequest{ConsultationID: second.ID, FeedbackType: "great"})
	assert.ErrorIs(t, err, ErrInvalidFeedbackType)

	err = f.service.SubmitFeedback("s1", models.FeedbackRequest{ConsultationID: 999, FeedbackType: "helpful"})
	assert.ErrorIs(t, err, ErrConsultationNotFound)
}

func TestPopularSymptoms(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, msg := range []string{"fever", "fever and cough", "rash"} {
		_, err := f.service.Assess(ctx, AssessInput{Message: msg})
		require.NoError(t, err)
	}

	stats, err := f.service.PopularSymptoms(ctx, 2)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "fever", stats[0].Symptom)
	assert.Equal(t, 2, stats[0].OccurrenceCount)

	f.store.stats["fever"] = 50
	cached, err := f.service.PopularSymptoms(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cached[0].OccurrenceCount)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0, 20, 100))
	assert.Equal(t, 100, clampLimit(500, 20, 100))
	assert.Equal(t, 7, clampLimit(7, 20, 100))
}
