package routes

import (
	"github.com/gin-gonic/gin"

	"uplift/handlers"
	"uplift/middleware"
	"uplift/models"
)

// RegisterBookingRoutes registers all endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	r.GET("/healthz", handlers.HealthHandler)

	slots := r.Group("/api/slots")
	{
		// Public calendar projection of a provider's upcoming slots.
		slots.GET("/provider/:id", h.ProviderCalendarHandler)

		slots.Use(middleware.JWTAuthMiddleware())
		slots.GET("/available", h.AvailableSlotsHandler)
		slots.POST("", middleware.RequireRole(models.RoleProvider), h.CreateSlotHandler)
		slots.GET("/my", middleware.RequireRole(models.RoleProvider), h.MySlotsHandler)
		slots.DELETE("/:id", h.DeleteSlotHandler)
	}

	payments := r.Group("/api/payments")
	{
		payments.Use(middleware.JWTAuthMiddleware())
		payments.POST("/checkout/:slotId", h.CheckoutHandler)
		payments.POST("/confirm", h.ConfirmBookingHandler)
	}

	appointments := r.Group("/api/appointments")
	{
		appointments.Use(middleware.JWTAuthMiddleware())
		appointments.GET("/my", h.MyAppointmentsHandler)
		appointments.GET("/:id", h.GetAppointmentHandler)
		appointments.POST("/:id/cancel", h.CancelAppointmentHandler)
	}
}
