package reservation

import (
	"github.com/gin-gonic/gin"
)

// SetupReservationRoutes configures all reservation-related routes
func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller) {
	reservations := rg.Group("/reservations")
	{
		reservations.POST("", controller.CreateReservation)            // POST /api/v1/reservations
		reservations.GET("/:id", controller.GetReservation)            // GET /api/v1/reservations/:id
		reservations.POST("/:id/cancel", controller.CancelReservation) // POST /api/v1/reservations/:id/cancel
	}
}
