package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewMonitoringService()

	router := gin.New()
	router.Use(RequestIDMiddleware(), svc.LoggingMiddleware())
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	router.POST("/api/v1/predict", func(c *gin.Context) { c.Status(499) })
	router.GET("/api/v1/monitoring/logs", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/predict", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/monitoring/logs", nil))

	data := svc.GetDashboardData(1)
	assert.Equal(t, map[string]int{"/health": 1, "/api/v1/predict": 1}, data.Endpoints)
	assert.Equal(t, 1, data.Cancelled)
	require.Len(t, data.RequestsOverTime, 1)
	assert.Equal(t, 2, data.RequestsOverTime[0]["requests"])

	svc.mu.RLock()
	assert.Equal(t, "req-123", svc.logs[0].RequestID)
	svc.mu.RUnlock()
}

func TestDashboardAggregation(t *testing.T) {
	svc := NewMonitoringService()
	now := time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.LogRequest(LogEntry{Timestamp: now.Add(-30 * time.Minute), Path: "/api/v1/predict", StatusCode: 200, ResponseTime: 300 * time.Millisecond})
	svc.LogRequest(LogEntry{Timestamp: now.Add(-20 * time.Minute), Path: "/api/v1/predict", StatusCode: 500, ResponseTime: 100 * time.Millisecond})
	svc.LogRequest(LogEntry{Timestamp: now.Add(-2 * time.Hour), Path: "/api/v1/ask", StatusCode: 400})
	svc.LogRequest(LogEntry{Timestamp: now.Add(-48 * time.Hour), Path: "/api/v1/stations", StatusCode: 200})

	data := svc.GetDashboardData(24)
	assert.Len(t, data.RequestsOverTime, 24)
	assert.Equal(t, map[string]int{"/api/v1/predict": 2, "/api/v1/ask": 1}, data.Endpoints)
	assert.Equal(t, []map[string]interface{}{
		{"name": "2xx Success", "value": 1},
		{"name": "4xx Client Error", "value": 1},
		{"name": "5xx Server Error", "value": 1},
	}, data.StatusCodes)
	assert.Equal(t, []map[string]interface{}{
		{"endpoint": "/api/v1/ask", "responseTime": int64(0)},
		{"endpoint": "/api/v1/predict", "responseTime": int64(200)},
	}, data.AvgResponseTimes)
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, 500, data.RecentErrors[0].StatusCode)

	total := 0
	for _, bucket := range data.RequestsOverTime {
		total += bucket["requests"].(int)
	}
	assert.Equal(t, 3, total)
}

func TestLogRetention(t *testing.T) {
	svc := NewMonitoringService()
	for i := 0; i < maxLogEntries+5; i++ {
		svc.LogRequest(LogEntry{Path: "/health", StatusCode: i})
	}
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Len(t, svc.logs, maxLogEntries)
	assert.Equal(t, 5, svc.logs[0].StatusCode)
}
