package showtimes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cinebook/internal/inventory"
	"cinebook/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateMovie handles POST /api/v1/movies
func (c *Controller) CreateMovie(ctx *gin.Context) {
	var req CreateMovieRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	movie, err := c.service.CreateMovie(ctx.Request.Context(), req)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Movie created", movie, nil)
}

// CreateTheater handles POST /api/v1/theaters
func (c *Controller) CreateTheater(ctx *gin.Context) {
	var req CreateTheaterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	theater, err := c.service.CreateTheater(ctx.Request.Context(), req)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Theater created", theater, nil)
}

// CreateShowtime handles POST /api/v1/showtimes
func (c *Controller) CreateShowtime(ctx *gin.Context) {
	var req CreateShowtimeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	showtime, err := c.service.CreateShowtime(ctx.Request.Context(), req)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusCreated, "Showtime created", showtime.ToResponse(), nil)
}

// GetShowtime handles GET /api/v1/showtimes/:id
func (c *Controller) GetShowtime(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid showtime ID", nil, err.Error())
		return
	}

	showtime, err := c.service.GetShowtime(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Showtime retrieved", showtime.ToResponse(), nil)
}

// ListShowtimes handles GET /api/v1/showtimes
func (c *Controller) ListShowtimes(ctx *gin.Context) {
	var query ShowtimeListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	page, err := c.service.ListShowtimes(ctx.Request.Context(), query)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Showtimes retrieved", page, nil)
}

// GetShowtimeSeats handles GET /api/v1/showtimes/:id/seats
func (c *Controller) GetShowtimeSeats(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid showtime ID", nil, err.Error())
		return
	}

	seatMap, err := c.service.SeatMap(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Seat map retrieved", seatMap, nil)
}

func (c *Controller) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, inventory.ErrUnknownShowtime):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Not found", nil, err.Error())
	case errors.Is(err, ErrInvalidSchedule), errors.Is(err, ErrValidation):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request", nil, err.Error())
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Internal error", nil, err.Error())
	}
}
