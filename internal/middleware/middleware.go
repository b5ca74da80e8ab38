package middleware

import (
	"strconv"
	"time"

	"github.com/Ayash-Bera/mediguide/internal/metrics"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	SessionHeader   = "X-Session-ID"
	SessionKey      = "session_id"
)

// Security middleware
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		c.Header("Permissions-Policy", "microphone=(), camera=()")
		c.Next()
	}
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = utils.GenerateRequestID()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// Session resolves the caller's session id: a valid X-Session-ID header, or
// a fingerprint of IP and user agent
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := c.GetHeader(SessionHeader)
		if !utils.ValidateSessionID(session) {
			session = utils.GenerateSessionID(c.ClientIP() + "|" + c.Request.UserAgent())
		}

		c.Header(SessionHeader, session)
		c.Set(SessionKey, session)
		c.Next()
	}
}

// Logger writes one structured line per request
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
			"client_ip":  c.ClientIP(),
		})

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// Metrics records request counts and latency under the matched route
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncInFlight()
		defer metrics.DecInFlight()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
