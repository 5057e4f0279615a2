// File: handlers/admin.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicagenda/services/booking"
	"clinicagenda/utils"
)

// AdminHandler serves the clinic staff view: listing active appointments
// and cancelling them.
type AdminHandler struct {
	ledger booking.Ledger
}

// NewAdminHandler constructs the admin handler.
func NewAdminHandler(ledger booking.Ledger) *AdminHandler {
	return &AdminHandler{ledger: ledger}
}

// ListBookings returns all active bookings ordered by date then time.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	bookings, err := h.ledger.ListActive(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list bookings", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultas": bookings})
}

// CancelBooking soft-cancels a booking by id. Cancelling twice is a no-op.
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	err := h.ledger.Cancel(c.Request.Context(), id)
	if errors.Is(err, booking.ErrBookingNotFound) {
		utils.JSONError(c, http.StatusNotFound, "booking not found", id)
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to cancel booking", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelada"})
}
