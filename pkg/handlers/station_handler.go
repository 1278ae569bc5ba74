package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

// StationHandler serves the existing transformer inventory.
type StationHandler struct {
	stations *services.StationService
}

// NewStationHandler returns a handler over stations.
func NewStationHandler(stations *services.StationService) *StationHandler {
	return &StationHandler{stations: stations}
}

// List returns every station.
func (h *StationHandler) List(c *gin.Context) {
	all := h.stations.All()
	c.JSON(http.StatusOK, models.StationList{RequestID: requestID(c), Count: len(all), Stations: all})
}

// ByDistrict returns the stations of one district, 404 when it has none.
func (h *StationHandler) ByDistrict(c *gin.Context) {
	district := c.Param("district")
	stations := h.stations.ByDistrict(district)
	if len(stations) == 0 {
		respondError(c, http.StatusNotFound, "No stations found for district "+district)
		return
	}
	c.JSON(http.StatusOK, models.StationList{
		RequestID: requestID(c),
		District:  district,
		Count:     len(stations),
		Stations:  stations,
	})
}
