package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

// MonitoringHandler serves the request dashboard.
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler returns a handler over service.
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{Service: service}
}

// GetLogs aggregates requests over ?period=1h|24h|7d (default 24h).
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours := 24
	switch c.DefaultQuery("period", "24h") {
	case "1h":
		hours = 1
	case "7d":
		hours = 24 * 7
	}
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}
