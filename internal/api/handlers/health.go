package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/health"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CacheStats exposes cache hit/miss counters
type CacheStats interface {
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
}

type HealthHandler struct {
	checker *health.HealthChecker
	stats   CacheStats
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// WithCacheStats enables GET /health/cache
func (h *HealthHandler) WithCacheStats(stats CacheStats) *HealthHandler {
	h.stats = stats
	return h
}

// HandleHealth reports dependency status; 503 only when a critical
// dependency is down
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	overall := h.checker.Current(c.Request.Context())

	code := http.StatusOK
	if overall.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    overall.Status,
		"service":   "mediguide",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  overall.Services,
		"uptime":    overall.Uptime,
	})
}

// HandleServiceHistory returns the last recorded check per service, or for
// the service named in the path
func (h *HealthHandler) HandleServiceHistory(c *gin.Context) {
	records, err := h.checker.Recorded(c.Param("name"))
	if err != nil {
		switch {
		case errors.Is(err, health.ErrNoHistory):
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "Health history not available", err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "No checks recorded for service", nil)
		default:
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load health history", err)
		}
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Health history retrieved", gin.H{
		"services": records,
	})
}

func (h *HealthHandler) HandleCacheStats(c *gin.Context) {
	if h.stats == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Cache statistics not available", nil)
		return
	}

	stats, err := h.stats.GetCacheStats(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to read cache statistics", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Cache statistics retrieved", stats)
}
