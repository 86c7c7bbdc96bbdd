package handlers

import (
	"errors"
	"net/http"

	buildingRepo "lendmark/database/repository/building"
	"lendmark/services/occupancy"
	"lendmark/services/period"
	"lendmark/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OccupancyHandler struct {
	svc   occupancy.OccupancyService
	clock utils.Clock
}

func NewOccupancyHandler(svc occupancy.OccupancyService, clock utils.Clock) *OccupancyHandler {
	return &OccupancyHandler{svc: svc, clock: clock}
}

// date returns the ?date= parameter or today's date.
func (h *OccupancyHandler) date(c *gin.Context) string {
	if d := c.Query("date"); d != "" {
		return d
	}
	return period.FormatDate(h.clock.Now())
}

func (h *OccupancyHandler) BuildingOccupancyHandler(c *gin.Context) {
	occ, err := h.svc.ForBuilding(c.Request.Context(), c.Param("id"), h.date(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, occ)
}

func (h *OccupancyHandler) AllOccupancyHandler(c *gin.Context) {
	list, err := h.svc.All(c.Request.Context(), h.date(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buildings": list})
}

func (h *OccupancyHandler) fail(c *gin.Context, err error) {
	var perr *period.ParseError
	switch {
	case errors.As(err, &perr):
		utils.JSONError(c, http.StatusBadRequest, "Invalid date", "date must be formatted YYYY-MM-DD")
	case errors.Is(err, buildingRepo.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Building not found", c.Param("id"))
	default:
		getLogger(c).Error("Failed to compute occupancy", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to compute occupancy", "")
	}
}
