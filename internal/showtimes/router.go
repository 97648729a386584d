package showtimes

import (
	"github.com/gin-gonic/gin"
)

// SetupShowtimeRoutes configures showtime, theater and movie routes
func SetupShowtimeRoutes(rg *gin.RouterGroup, controller *Controller) {
	showtimes := rg.Group("/showtimes")
	{
		showtimes.POST("", controller.CreateShowtime)            // POST /api/v1/showtimes
		showtimes.GET("", controller.ListShowtimes)              // GET /api/v1/showtimes
		showtimes.GET("/:id", controller.GetShowtime)            // GET /api/v1/showtimes/:id
		showtimes.GET("/:id/seats", controller.GetShowtimeSeats) // GET /api/v1/showtimes/:id/seats
	}

	rg.POST("/theaters", controller.CreateTheater) // POST /api/v1/theaters
	rg.POST("/movies", controller.CreateMovie)     // POST /api/v1/movies
}
