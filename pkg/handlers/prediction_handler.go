package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PredictionHandler serves the forecast and siting endpoints.
type PredictionHandler struct {
	planning *services.PlanningService
	render   func(*models.FutureState) ([]byte, error)
}

// NewPredictionHandler returns a handler over planning.
func NewPredictionHandler(planning *services.PlanningService) *PredictionHandler {
	return &PredictionHandler{planning: planning, render: services.RenderForecastReport}
}

// Predict runs the cancellable pipeline for every district.
// POST /api/v1/predict {"target_date": "2027-04-01"}
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "target_date is required")
		return
	}

	job, err := h.planning.RunCancellable(c.Request.Context(), req.TargetDate)
	if err != nil {
		log.Printf("[predict] request %s: %v", requestID(c), err)
		respondEngineError(c, err)
		return
	}

	result := job.Result()
	c.JSON(http.StatusOK, models.PredictResponse{
		RequestID:               requestID(c),
		Mode:                    "prediction",
		TargetDate:              result.TargetDate,
		DistrictPredictions:     result.Forecasts,
		SuggestedTPs:            result.Sites,
		TotalTransformersNeeded: result.FutureState.TotalTransformersNeeded,
		Failures:                result.Failures,
		FutureState:             result.FutureState,
	})
}

// ForecastDistrict forecasts a single district without siting.
// GET /api/v1/forecast/:district?target_date=next month
func (h *PredictionHandler) ForecastDistrict(c *gin.Context) {
	target := c.DefaultQuery("target_date", "next month")
	f, err := h.planning.Forecast(c.Request.Context(), c.Param("district"), target)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID(c), "forecast": f})
}

// FutureState returns the latest completed run.
func (h *PredictionHandler) FutureState(c *gin.Context) {
	state := h.planning.FutureState()
	if state == nil {
		respondError(c, http.StatusNotFound, "No future mode prediction has been generated yet.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID(c), "future_state": state})
}

// Export downloads the latest run as an XLSX workbook.
func (h *PredictionHandler) Export(c *gin.Context) {
	state := h.planning.FutureState()
	if state == nil {
		respondError(c, http.StatusNotFound, "No future mode prediction has been generated yet.")
		return
	}

	report, err := h.render(state)
	if err != nil {
		log.Printf("[export] request %s: %v", requestID(c), err)
		respondError(c, http.StatusInternalServerError, "Failed to build forecast report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="grid_forecast_%s.xlsx"`, state.TargetDate))
	c.Data(http.StatusOK, xlsxContentType, report)
}
