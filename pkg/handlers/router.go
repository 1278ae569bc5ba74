package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router groups the handlers mounted by RegisterRoutes.
type Router struct {
	Admin      *AdminHandler
	Prediction *PredictionHandler
	Stations   *StationHandler
	Chat       *ChatHandler
	Monitoring *MonitoringHandler
}

// APIKeyMiddleware requires X-API-KEY to match apiKey. An empty key disables the check.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized", "request_id": requestID(c)})
			return
		}
		c.Next()
	}
}

// RegisterRoutes mounts /health and the /api/v1 group on r.
func (h *Router) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Admin.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(APIKeyMiddleware(apiKey))
	{
		v1.POST("/predict", h.Prediction.Predict)
		v1.GET("/predict/export", h.Prediction.Export)
		v1.GET("/future-state", h.Prediction.FutureState)
		v1.GET("/forecast/:district", h.Prediction.ForecastDistrict)

		v1.GET("/stations", h.Stations.List)
		v1.GET("/stations/:district", h.Stations.ByDistrict)

		if h.Chat != nil {
			v1.POST("/ask", h.Chat.Ask)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", h.Admin.GetHealthStatus)
			admin.POST("/maintenance/start", h.Admin.StartMaintenance)
			admin.POST("/maintenance/stop", h.Admin.StopMaintenance)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", h.Monitoring.GetLogs)
		}
	}
}
