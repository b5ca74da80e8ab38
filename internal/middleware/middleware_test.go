package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"request_id": c.GetString("request_id"),
			"session":    c.GetString(SessionKey),
		})
	})
	return r
}

func get(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_PerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := newRouter(rl.RateLimit())

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)

	limited := get(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "Rate limit exceeded")

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Evict(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.GetLimiter("a")
	rl.GetLimiter("b")
	require.Equal(t, 2, rl.size())

	rl.evict(time.Now())
	assert.Equal(t, 2, rl.size())

	rl.evict(time.Now().Add(10 * time.Minute))
	assert.Zero(t, rl.size())
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	rec := get(r, nil)
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Contains(t, rec.Body.String(), generated)

	rec = get(r, map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestSession(t *testing.T) {
	r := newRouter(Session())

	supplied := "123e4567-e89b-12d3-a456-426614174000"
	rec := get(r, map[string]string{SessionHeader: supplied})
	assert.Equal(t, supplied, rec.Header().Get(SessionHeader))

	rec = get(r, map[string]string{SessionHeader: "not valid"})
	fingerprint := rec.Header().Get(SessionHeader)
	assert.Len(t, fingerprint, 16)
	assert.NotEqual(t, "not valid", fingerprint)
}

func TestSecurityHeaders(t *testing.T) {
	rec := get(newRouter(SecurityHeaders()), nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestLoggerAndMetrics(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	rec := get(newRouter(Logger(logger), Metrics()), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
