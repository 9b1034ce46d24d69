package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uplift/models"
)

// CheckoutHandler creates a payment session for the given slot and returns
// the processor redirect URL.
func (h *BookingHandler) CheckoutHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	resp, err := h.Service.StartCheckout(c.Request.Context(), principal, c.Param("slotId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmBookingHandler reconciles a paid checkout session into a booked
// appointment.
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req models.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	confirmation, err := h.Service.ConfirmBooking(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Appointment booked successfully",
		"appointment": confirmation.Appointment,
		"roomUrl":     confirmation.RoomURL,
		"isBookable":  confirmation.IsBookable,
	})
}
