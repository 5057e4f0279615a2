// File: handlers/availability.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicagenda/services/schedule"
	"clinicagenda/utils"
)

// AvailabilityHandler exposes the read-only availability query for any UI
// that needs live slot data.
type AvailabilityHandler struct {
	engine *schedule.Engine
}

// NewAvailabilityHandler constructs the availability handler.
func NewAvailabilityHandler(engine *schedule.Engine) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine}
}

// GetAvailableSlots returns the free slots for a date. Malformed dates and
// weekends yield an empty list, matching the conversational behavior.
func (h *AvailabilityHandler) GetAvailableSlots(c *gin.Context) {
	date := c.Query("data")
	if date == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing query parameter", "expected ?data=DD/MM/AAAA")
		return
	}

	slots, err := h.engine.AvailableSlots(c.Request.Context(), date)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to compute availability", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     date,
		"horarios": slots,
	})
}
