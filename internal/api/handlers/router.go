package handlers

import (
	"github.com/Ayash-Bera/mediguide/internal/metrics"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r
func RegisterRoutes(r *gin.Engine, triage *TriageHandler, health *HealthHandler) {
	if health != nil {
		r.GET("/health", health.HandleHealth)
		r.GET("/health/services", health.HandleServiceHistory)
		r.GET("/health/services/:name", health.HandleServiceHistory)
		r.GET("/health/cache", health.HandleCacheStats)
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/triage", triage.HandleTriage)
		v1.GET("/consultations", triage.HandleHistory)
		v1.GET("/consultations/:id/feedback", triage.HandleConsultationFeedback)
		v1.GET("/hospitals", triage.HandleHospitals)
		v1.POST("/feedback", triage.HandleFeedback)
		v1.GET("/symptoms/popular", triage.HandlePopularSymptoms)
		v1.GET("/stats/actions", triage.HandleActionStats)
	}
}
