package handlers

import (
	"context"
	"errors"
	"net/http"

	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/models"
	"lendmark/services/booking"
	"lendmark/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Booker is the admission entry point used by the reservation handler.
type Booker interface {
	RequestReservation(ctx context.Context, c models.ReservationCandidate) (*models.Reservation, error)
}

// ReservationHandler serves reservation requests and reservation lookups.
type ReservationHandler struct {
	booker Booker
	reader reservationRepo.Reader
}

func NewReservationHandler(booker Booker, reader reservationRepo.Reader) *ReservationHandler {
	return &ReservationHandler{booker: booker, reader: reader}
}

// RequestReservationHandler admits or rejects one reservation candidate.
func (h *ReservationHandler) RequestReservationHandler(c *gin.Context) {
	logger := getLogger(c)

	var candidate models.ReservationCandidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, models.ReservationResult{
			Reason: "VALIDATION_ERROR",
			Fields: map[string]string{"body": err.Error()},
		})
		return
	}

	res, err := h.booker.RequestReservation(c.Request.Context(), candidate)
	if err != nil {
		var verr *booking.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, models.ReservationResult{Reason: "VALIDATION_ERROR", Fields: verr.FieldErrors})
		case errors.Is(err, booking.ErrTimeConflict):
			c.JSON(http.StatusConflict, models.ReservationResult{Reason: booking.CodeTimeConflict})
		case errors.Is(err, booking.ErrTemporaryFailure):
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, models.ReservationResult{Reason: booking.CodeTemporaryFailure})
		default:
			logger.Error("Unexpected reservation failure", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ReservationResult{Reason: "INTERNAL_ERROR"})
		}
		return
	}

	c.JSON(http.StatusCreated, models.ReservationResult{Success: true, Reservation: res})
}

// ListReservationsHandler returns one user's reservations, optionally filtered by status.
func (h *ReservationHandler) ListReservationsHandler(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid query", "userId query parameter is required")
		return
	}
	status := c.Query("status")
	switch status {
	case "", models.StatusApproved, models.StatusFinished, models.StatusExpired:
	default:
		utils.JSONError(c, http.StatusBadRequest, "Invalid query", "unknown status "+status)
		return
	}

	list, err := h.reader.FindByUser(c.Request.Context(), userID, status)
	if err != nil {
		getLogger(c).Error("Failed to list reservations", zap.String("userId", userID), zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to list reservations", "")
		return
	}
	if list == nil {
		list = []models.Reservation{}
	}
	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

// GetReservationHandler returns one reservation by id.
func (h *ReservationHandler) GetReservationHandler(c *gin.Context) {
	id := c.Param("id")
	res, err := h.reader.GetByID(c.Request.Context(), id)
	if errors.Is(err, reservationRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "Reservation not found", id)
		return
	}
	if err != nil {
		getLogger(c).Error("Failed to fetch reservation", zap.String("id", id), zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to fetch reservation", "")
		return
	}
	c.JSON(http.StatusOK, res)
}
