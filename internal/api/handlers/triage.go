package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/middleware"
	"github.com/Ayash-Bera/mediguide/internal/models"
	"github.com/Ayash-Bera/mediguide/internal/services"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TriageHandler struct {
	triageService *services.TriageService
	logger        *logrus.Logger
}

func NewTriageHandler(triageService *services.TriageService, logger *logrus.Logger) *TriageHandler {
	return &TriageHandler{
		triageService: triageService,
		logger:        logger,
	}
}

// HandleTriage assesses a free-text symptom description
func (h *TriageHandler) HandleTriage(c *gin.Context) {
	var req models.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	session := h.getUserSession(c)
	resp, err := h.triageService.Assess(c.Request.Context(), services.AssessInput{
		Message:   req.Message,
		Location:  req.Location,
		Radius:    req.Radius,
		Session:   session,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			utils.ErrorResponse(c, http.StatusBadRequest, "Message cannot be empty", nil)
		case errors.Is(err, services.ErrMessageTooLong):
			utils.ErrorResponse(c, http.StatusBadRequest, "Message too long (max 4000 characters)", nil)
		default:
			h.logger.WithError(err).Error("Triage failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Triage failed", err)
		}
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_session":  session,
		"severity":      resp.SeverityScore,
		"action":        resp.RecommendedAction,
		"hospitals":     len(resp.Hospitals),
		"response_time": resp.ResponseTime,
	}).Info("Triage completed")

	utils.SuccessResponse(c, http.StatusOK, "Assessment completed", resp)
}

// HandleHistory lists the caller's recent consultations
func (h *TriageHandler) HandleHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.triageService.History(h.getUserSession(c), limit)
	if err != nil {
		h.storageError(c, "Failed to load consultations", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Consultations retrieved", gin.H{
		"consultations": history,
		"total":         len(history),
	})
}

// HandleHospitals ranks facilities near a location
func (h *TriageHandler) HandleHospitals(c *gin.Context) {
	radius, err := optionalInt(c.Query("radius"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "radius must be an integer", err)
		return
	}
	severity, err := optionalInt(c.Query("severity"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "severity must be an integer", err)
		return
	}

	var symptoms []string
	if raw := strings.TrimSpace(c.Query("symptoms")); raw != "" {
		symptoms = strings.Split(raw, ",")
	}

	resp := h.triageService.FindHospitals(c.Request.Context(), services.HospitalQuery{
		Location: c.Query("location"),
		Radius:   radius,
		Severity: severity,
		Symptoms: symptoms,
	})

	utils.SuccessResponse(c, http.StatusOK, "Hospitals retrieved", resp)
}

// HandleFeedback records feedback on a consultation
func (h *TriageHandler) HandleFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feedback format", err)
		return
	}

	session := h.getUserSession(c)
	if err := h.triageService.SubmitFeedback(session, req); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidFeedbackType):
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feedback type", err)
		case errors.Is(err, services.ErrConsultationNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "Consultation not found", nil)
		default:
			h.storageError(c, "Failed to save feedback", err)
		}
		return
	}

	h.logger.WithFields(logrus.Fields{
		"consultation_id": req.ConsultationID,
		"feedback_type":   req.FeedbackType,
		"user_session":    session,
	}).Info("Feedback recorded")

	utils.SuccessResponse(c, http.StatusCreated, "Feedback recorded", nil)
}

// HandlePopularSymptoms returns symptom statistics
func (h *TriageHandler) HandlePopularSymptoms(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	stats, err := h.triageService.PopularSymptoms(c.Request.Context(), limit)
	if err != nil {
		h.storageError(c, "Failed to load symptom statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Popular symptoms retrieved", gin.H{
		"symptoms":     stats,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleConsultationFeedback lists feedback for one consultation
func (h *TriageHandler) HandleConsultationFeedback(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid consultation id", err)
		return
	}

	feedback, err := h.triageService.ConsultationFeedback(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrConsultationNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Consultation not found", nil)
			return
		}
		h.storageError(c, "Failed to load feedback", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback retrieved", gin.H{
		"consultation_id": id,
		"feedback":        feedback,
		"total":           len(feedback),
	})
}

// HandleActionStats counts recommended actions over the last ?hours= (default 24)
func (h *TriageHandler) HandleActionStats(c *gin.Context) {
	hours, err := optionalInt(c.Query("hours"))
	if err != nil || hours < 0 || hours > 24*90 {
		utils.ErrorResponse(c, http.StatusBadRequest, "hours must be an integer between 1 and 2160", err)
		return
	}
	if hours == 0 {
		hours = 24
	}

	counts, err := h.triageService.ActionCounts(time.Duration(hours) * time.Hour)
	if err != nil {
		h.storageError(c, "Failed to load statistics", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved", gin.H{
		"window_hours": hours,
		"actions":      counts,
	})
}

func (h *TriageHandler) storageError(c *gin.Context, message string, err error) {
	if errors.Is(err, services.ErrStorageUnavailable) {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, message, err)
		return
	}
	h.logger.WithError(err).Error(message)
	utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
}

func (h *TriageHandler) getUserSession(c *gin.Context) string {
	if session := c.GetString(middleware.SessionKey); session != "" {
		return session
	}
	return utils.GenerateSessionID(c.ClientIP() + "|" + c.Request.UserAgent())
}

func optionalInt(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}
