package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MyAppointmentsHandler lists the caller's appointments. ?active=true limits
// the view to booked appointments.
func (h *BookingHandler) MyAppointmentsHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	activeOnly := c.Query("active") == "true"
	appts, err := h.Service.ListMyAppointments(c.Request.Context(), principal, activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

// GetAppointmentHandler returns one appointment to a participant or admin.
func (h *BookingHandler) GetAppointmentHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	appt, err := h.Service.GetAppointment(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// CancelAppointmentHandler drives the cancellation/refund transition.
func (h *BookingHandler) CancelAppointmentHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	result, err := h.Service.CancelAppointment(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment cancelled",
		"appointment": result.Appointment,
		"refund":      result.Refund,
		"isBookable":  result.IsBookable,
	})
}
