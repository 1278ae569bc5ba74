package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxLogEntries = 10000

// RequestIDKey is the gin context key and RequestIDHeader the header carrying the request id.
const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware tags each request with the caller's X-Request-ID or a new UUID
// and echoes it in the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// LogEntry is one served request.
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	RequestID    string        `json:"request_id,omitempty"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService keeps a bounded in-memory request log for the dashboard.
type MonitoringService struct {
	logs     []LogEntry
	mu       sync.RWMutex
	location *time.Location
	now      func() time.Time
}

// NewMonitoringService returns an empty log that buckets by Tashkent local time.
func NewMonitoringService() *MonitoringService {
	loc, err := time.LoadLocation("Asia/Tashkent")
	if err != nil {
		loc = time.FixedZone("UZT", 5*60*60)
	}
	return &MonitoringService{
		logs:     make([]LogEntry, 0),
		location: loc,
		now:      time.Now,
	}
}

// LogRequest records entry, dropping the oldest entries beyond the retention cap.
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = append([]LogEntry(nil), s.logs[len(s.logs)-maxLogEntries:]...)
	}
}

// LoggingMiddleware records every request except admin and monitoring calls.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") || path == "/metrics" {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			RequestID:    c.GetString(RequestIDKey),
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// DashboardData is the aggregated view served to the monitoring page.
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	Cancelled        int                      `json:"cancelled"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
}

// GetDashboardData aggregates the last periodHours of requests.
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours <= 0 {
		periodHours = 24
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().In(s.location)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filtered := make([]LogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			filtered = append(filtered, entry)
		}
	}

	requestsOverTime := make([]map[string]interface{}, periodHours)
	index := make(map[string]int, periodHours)
	for i := 0; i < periodHours; i++ {
		bucket := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		index[bucket.Format(time.RFC3339)] = i
		requestsOverTime[i] = map[string]interface{}{"time": bucket.Format("15:00"), "requests": 0}
	}
	for _, entry := range filtered {
		key := entry.Timestamp.In(s.location).Truncate(time.Hour).Format(time.RFC3339)
		if i, ok := index[key]; ok {
			requestsOverTime[i]["requests"] = requestsOverTime[i]["requests"].(int) + 1
		}
	}

	endpoints := make(map[string]int)
	statusCodes := map[string]int{"2xx Success": 0, "4xx Client Error": 0, "5xx Server Error": 0}
	responseTimeSum := make(map[string]time.Duration)
	cancelled := 0
	for _, entry := range filtered {
		endpoints[entry.Path]++
		responseTimeSum[entry.Path] += entry.ResponseTime
		switch {
		case entry.StatusCode == 499:
			cancelled++
			statusCodes["4xx Client Error"]++
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusCodes["2xx Success"]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			statusCodes["4xx Client Error"]++
		case entry.StatusCode >= 500:
			statusCodes["5xx Server Error"]++
		}
	}

	statusSlice := make([]map[string]interface{}, 0, len(statusCodes))
	for _, name := range []string{"2xx Success", "4xx Client Error", "5xx Server Error"} {
		statusSlice = append(statusSlice, map[string]interface{}{"name": name, "value": statusCodes[name]})
	}

	paths := make([]string, 0, len(responseTimeSum))
	for path := range responseTimeSum {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	avgResponseTimes := make([]map[string]interface{}, 0, len(paths))
	for _, path := range paths {
		avg := responseTimeSum[path].Milliseconds() / int64(endpoints[path])
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{"endpoint": path, "responseTime": avg})
	}

	recentErrors := make([]LogEntry, 0)
	for i := len(filtered) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filtered[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filtered[i])
		}
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusSlice,
		AvgResponseTimes: avgResponseTimes,
		Cancelled:        cancelled,
		RecentErrors:     recentErrors,
	}
}
