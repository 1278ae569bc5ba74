package handlers

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	config "github.com/al-khabib/tashkent-city-transformers/configs"
	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

// AdminHandler serves health and maintenance toggles.
type AdminHandler struct {
	AdminUsername string
	AdminPassword string
	ModelSource   string
	LLMModel      string

	planning    *services.PlanningService
	maintenance atomic.Bool
}

// NewAdminHandler returns a handler reporting on planning.
func NewAdminHandler(cfg *config.Config, planning *services.PlanningService, modelSource string) *AdminHandler {
	return &AdminHandler{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		ModelSource:   modelSource,
		LLMModel:      cfg.OllamaLLMModel,
		planning:      planning,
	}
}

// AdminCredentials is the body of the maintenance endpoints.
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Username and password are required")
		return false
	}
	if h.AdminPassword == "" || input.Username != h.AdminUsername || input.Password != h.AdminPassword {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return false
	}
	return true
}

// StartMaintenance makes /health report 503.
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode started"})
}

// StopMaintenance ends maintenance mode.
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode stopped"})
}

// GetHealthStatus reports the maintenance flag.
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isMaintenanceMode": h.maintenance.Load()})
}

// HealthCheck reports what the engine is serving from.
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.maintenance.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":               "online",
		"known_districts":      h.planning.KnownDistricts(),
		"data_source_provider": h.planning.ProviderName(),
		"model":                h.ModelSource,
		"siting_strategy":      h.planning.StrategyName(),
		"llm_model":            h.LLMModel,
		"future_state_loaded":  h.planning.FutureState() != nil,
	})
}
