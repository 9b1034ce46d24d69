package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uplift/models"
)

// CreateSlotHandler publishes a new slot for the calling provider.
func (h *BookingHandler) CreateSlotHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req models.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	slot, err := h.Service.CreateSlot(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Slot created.", "slot": slot})
}

// DeleteSlotHandler removes one of the caller's slots.
func (h *BookingHandler) DeleteSlotHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteSlot(c.Request.Context(), principal, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Slot deleted."})
}

// AvailableSlotsHandler lists bookable slots excluding the caller's own.
func (h *BookingHandler) AvailableSlotsHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	views, err := h.Service.ListAvailableSlots(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// MySlotsHandler lists the calling provider's slots.
func (h *BookingHandler) MySlotsHandler(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	slots, err := h.Service.ListProviderSlots(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// ProviderCalendarHandler is the public calendar view of a provider's
// upcoming slots.
func (h *BookingHandler) ProviderCalendarHandler(c *gin.Context) {
	entries, err := h.Service.ProviderCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
