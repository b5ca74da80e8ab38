package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Check probes one dependency. A failing non-critical check degrades the
// overall status instead of failing it.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// SnapshotCache stores the last periodic result
type SnapshotCache interface {
	CacheSystemHealth(ctx context.Context, health interface{}, expiration time.Duration) error
	GetCachedSystemHealth(ctx context.Context, result interface{}) error
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	checks     []Check
	healthRepo models.SystemHealthRepository
	cache      SnapshotCache
	timeout    time.Duration
	logger     *logrus.Logger
}

func NewHealthChecker(healthRepo models.SystemHealthRepository, cache SnapshotCache, logger *logrus.Logger, checks ...Check) *HealthChecker {
	return &HealthChecker{
		checks:     checks,
		healthRepo: healthRepo,
		cache:      cache,
		timeout:    5 * time.Second,
		logger:     logger,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

// HTTPProbe reports an endpoint unhealthy on transport errors or 5xx
func HTTPProbe(url string) func(ctx context.Context) error {
	client := &http.Client{Timeout: 10 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return nil
	}
}

func (h *HealthChecker) run(ctx context.Context, check Check) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Probe(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = StatusUnhealthy
		if !check.Critical {
			status = StatusDegraded
		}
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", check.Name).Error("Health check failed")
	}

	if h.healthRepo != nil {
		if err := h.healthRepo.UpdateServiceHealth(check.Name, status, responseTime, errorMsg); err != nil {
			h.logger.WithError(err).Warn("Failed to record service health")
		}
	}

	return ServiceHealth{
		Name:         check.Name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckAll performs health checks on all services concurrently
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := make([]ServiceHealth, len(h.checks))

	var wg sync.WaitGroup
	for i, check := range h.checks {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			services[i] = h.run(ctx, check)
		}(i, check)
	}
	wg.Wait()

	return OverallHealth{
		Status:   Overall(services),
		Services: services,
		Uptime:   h.getUptime(),
	}
}

// Overall folds service statuses: any unhealthy wins, then any degraded
func Overall(services []ServiceHealth) string {
	overallStatus := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if service.Status == StatusDegraded {
			overallStatus = StatusDegraded
		}
	}
	return overallStatus
}

// CheckCached returns cached health status if available
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	if h.cache == nil {
		return nil, fmt.Errorf("no health cache configured")
	}

	var cached OverallHealth
	if err := h.cache.GetCachedSystemHealth(ctx, &cached); err != nil {
		return nil, err
	}
	cached.Uptime = h.getUptime()
	return &cached, nil
}

// Current prefers the periodic snapshot and probes live when there is none
func (h *HealthChecker) Current(ctx context.Context) OverallHealth {
	if cached, err := h.CheckCached(ctx); err == nil {
		return *cached
	}
	return h.CheckAll(ctx)
}

// ErrNoHistory means no health repository is configured
var ErrNoHistory = errors.New("health history not configured")

// Recorded returns stored check results: the latest row per service, or
// just the named service
func (h *HealthChecker) Recorded(service string) ([]models.SystemHealth, error) {
	if h.healthRepo == nil {
		return nil, ErrNoHistory
	}
	if service == "" {
		return h.healthRepo.GetAllServicesHealth()
	}

	record, err := h.healthRepo.GetServiceHealth(service)
	if err != nil {
		return nil, err
	}
	return []models.SystemHealth{*record}, nil
}

var startTime = time.Now()

func (h *HealthChecker) getUptime() string {
	return time.Since(startTime).Round(time.Second).String()
}

// PeriodicHealthCheck runs health checks periodically
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)

			if h.cache != nil {
				cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := h.cache.CacheSystemHealth(cacheCtx, health, 2*interval); err != nil {
					h.logger.WithError(err).Error("Failed to cache health status")
				}
				cancel()
			}

			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
