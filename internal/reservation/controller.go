package reservation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cinebook/internal/ledger"
	"cinebook/internal/shared/utils/response"
)

type Controller struct {
	coordinator *Coordinator
	validator   *validator.Validate
}

func NewController(coordinator *Coordinator) *Controller {
	return &Controller{
		coordinator: coordinator,
		validator:   validator.New(),
	}
}

// CreateReservation handles POST /api/v1/reservations
func (c *Controller) CreateReservation(ctx *gin.Context) {
	var req CreateReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := c.coordinator.Reserve(ctx.Request.Context(), req.toParams())
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Reservation confirmed", toReservationResponse(booking), nil)
}

// GetReservation handles GET /api/v1/reservations/:id
func (c *Controller) GetReservation(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	booking, err := c.coordinator.Get(ctx.Request.Context(), bookingID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation retrieved", toReservationResponse(booking), nil)
}

// CancelReservation handles POST /api/v1/reservations/:id/cancel
func (c *Controller) CancelReservation(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	booking, err := c.coordinator.Cancel(ctx.Request.Context(), bookingID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation cancelled", toReservationResponse(booking), nil)
}

// respondError maps the reservation error taxonomy onto HTTP statuses. The
// structured code always rides along so clients can branch without parsing
// messages.
func (c *Controller) respondError(ctx *gin.Context, err error) {
	var resErr *Error
	if !errors.As(err, &resErr) {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Internal error", nil, err.Error())
		return
	}

	payload := gin.H{"code": string(resErr.Code), "message": resErr.Message}
	status := http.StatusInternalServerError

	switch resErr.Code {
	case CodeValidation:
		status = http.StatusBadRequest
		if errors.Is(resErr, ledger.ErrNotFound) {
			status = http.StatusNotFound
		}
	case CodeSeatsUnavailable:
		status = http.StatusConflict
		payload["conflicting_seats"] = resErr.ConflictingSeats
	case CodeInvalidState:
		status = http.StatusConflict
	case CodeStorage, CodeCompensation:
		status = http.StatusInternalServerError
	}

	response.RespondJSON(ctx, "error", status, resErr.Message, nil, payload)
}
