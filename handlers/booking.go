package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uplift/middleware"
	"uplift/models"
	"uplift/services/booking"
	"uplift/utils"
)

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Service booking.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

var statusByCode = map[string]int{
	booking.CodeValidation: http.StatusBadRequest,
	booking.CodeNotFound:   http.StatusNotFound,
	booking.CodeForbidden:  http.StatusForbidden,
	booking.CodeConflict:   http.StatusConflict,
	booking.CodeSlotFull:   http.StatusConflict,
	booking.CodePayment:    http.StatusBadGateway,
	booking.CodeInternal:   http.StatusInternalServerError,
}

// respondError maps a booking error to its HTTP status and writes the
// standard error body.
func respondError(c *gin.Context, err error) {
	code := booking.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	utils.JSONError(c, status, booking.MessageOf(err), code)
}

func mustPrincipal(c *gin.Context) (models.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
		return models.Principal{}, false
	}
	return principal, true
}
