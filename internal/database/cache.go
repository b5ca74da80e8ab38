package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cache implementation
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	FacilitiesKey      = "facilities:%s:%d"
	PopularSymptomsKey = "popular:symptoms:%d"
	SystemHealthKey    = "system:health"
)

// IsMiss reports whether err is a plain cache miss
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// FacilitiesCacheKey normalises the location so "New York, NY" and
// " new york, ny" share an entry
func FacilitiesCacheKey(location string, radius int) string {
	loc := strings.Join(strings.Fields(strings.ToLower(location)), " ")
	return fmt.Sprintf(FacilitiesKey, loc, radius)
}

// CacheFacilities caches a facility lookup result
func (c *Cache) CacheFacilities(ctx context.Context, location string, radius int, result interface{}, expiration time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal facilities: %w", err)
	}

	return c.client.Set(ctx, FacilitiesCacheKey(location, radius), data, expiration).Err()
}

// GetCachedFacilities loads a cached lookup into result
func (c *Cache) GetCachedFacilities(ctx context.Context, location string, radius int, result interface{}) error {
	data, err := c.client.Get(ctx, FacilitiesCacheKey(location, radius)).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// CachePopularSymptoms caches the top-N symptom statistics
func (c *Cache) CachePopularSymptoms(ctx context.Context, limit int, stats []models.SymptomStat, expiration time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal symptom stats: %w", err)
	}

	return c.client.Set(ctx, fmt.Sprintf(PopularSymptomsKey, limit), data, expiration).Err()
}

// GetCachedPopularSymptoms retrieves cached symptom statistics
func (c *Cache) GetCachedPopularSymptoms(ctx context.Context, limit int) ([]models.SymptomStat, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(PopularSymptomsKey, limit)).Result()
	if err != nil {
		return nil, err
	}

	var stats []models.SymptomStat
	err = json.Unmarshal([]byte(data), &stats)
	return stats, err
}

// CacheSystemHealth caches system health status
func (c *Cache) CacheSystemHealth(ctx context.Context, health interface{}, expiration time.Duration) error {
	data, err := json.Marshal(health)
	if err != nil {
		return fmt.Errorf("failed to marshal system health: %w", err)
	}

	return c.client.Set(ctx, SystemHealthKey, data, expiration).Err()
}

// GetCachedSystemHealth retrieves cached system health
func (c *Cache) GetCachedSystemHealth(ctx context.Context, result interface{}) error {
	data, err := c.client.Get(ctx, SystemHealthKey).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

// Cache statistics
func (c *Cache) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	info, err := c.client.Info(ctx, "stats").Result()
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"keyspace_hits":   extractStat(info, "keyspace_hits"),
		"keyspace_misses": extractStat(info, "keyspace_misses"),
	}

	return stats, nil
}

func extractStat(info, key string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, key+":") {
			return strings.TrimPrefix(line, key+":")
		}
	}
	return "0"
}
