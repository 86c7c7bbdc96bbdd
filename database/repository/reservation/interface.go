// File: database/repository/reservation/interface.go
package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lendmark/models"
)

var (
	// ErrNotFound is returned when no reservation matches the id.
	ErrNotFound = errors.New("reservation not found")
	// ErrIllegalTransition is returned for any status move other than approved→finished or finished→expired.
	ErrIllegalTransition = errors.New("illegal reservation status transition")
	// ErrNotApproved is returned when a reservation is inserted in a state other than approved.
	ErrNotApproved = errors.New("reservations can only be created approved")
	// ErrOverlap is returned by Insert when an approved reservation already holds part of the requested periods.
	ErrOverlap = errors.New("approved reservation overlaps the requested periods")
)

// Reader is the read-only view handed to handlers and derivation services.
type Reader interface {
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	// FindByUser returns a user's reservations; an empty status matches all.
	FindByUser(ctx context.Context, userID, status string) ([]models.Reservation, error)
	// FindByDate returns reservations on date; empty buildingID or status match all.
	FindByDate(ctx context.Context, date, buildingID, status string) ([]models.Reservation, error)
	// FindUserIDsByDate returns the distinct users holding a reservation in status on date.
	FindUserIDsByDate(ctx context.Context, date, status string) ([]string, error)
}

// Creator is the write path owned by the booking engine.
type Creator interface {
	FindApprovedForSlot(ctx context.Context, buildingID, roomID, date string) ([]models.Reservation, error)
	// Insert stores r as approved only if no approved reservation for the same building, room
	// and date overlaps it, returning ErrOverlap otherwise. The check and the write are atomic.
	Insert(ctx context.Context, r *models.Reservation) error
}

// Transitioner is the write path owned by the lifecycle sweeper.
type Transitioner interface {
	// FindApprovedOnOrBefore returns approved reservations dated on or before date.
	FindApprovedOnOrBefore(ctx context.Context, date string) ([]models.Reservation, error)
	// FindFinishedCreatedBefore returns finished reservations created before cutoff.
	FindFinishedCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	// Transition moves every listed reservation still in from to to, all or nothing,
	// and returns how many changed. Rows no longer in from are left alone.
	Transition(ctx context.Context, ids []string, from, to string, at time.Time) (int, error)
}

// Repository is the full surface implemented by the concrete stores.
type Repository interface {
	Reader
	Creator
	Transitioner
}

// overlapping returns the first approved row in rows whose inclusive period range meets r's.
func overlapping(rows []models.Reservation, r *models.Reservation) (models.Reservation, bool) {
	for _, row := range rows {
		if row.Status == models.StatusApproved && row.PeriodStart <= r.PeriodEnd && r.PeriodStart <= row.PeriodEnd {
			return row, true
		}
	}
	return models.Reservation{}, false
}

// CheckTransition rejects every status move the lifecycle does not allow.
func CheckTransition(from, to string) error {
	switch {
	case from == models.StatusApproved && to == models.StatusFinished:
		return nil
	case from == models.StatusFinished && to == models.StatusExpired:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
