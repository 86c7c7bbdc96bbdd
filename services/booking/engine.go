package booking

import (
	"context"
	"errors"
	"time"

	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/models"
	"lendmark/services/keylock"
	"lendmark/services/period"
	"lendmark/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine admits or rejects reservation requests. It is the only creator of reservations.
type Engine struct {
	store    reservationRepo.Creator
	locker   keylock.Locker
	clock    utils.Clock
	logger   *zap.Logger
	lockWait time.Duration
	hold     time.Duration
	newID    func() string
}

// NewEngine wires the booking engine. lockWait bounds how long a request waits for its room/date
// key. hold bounds the store calls made while the key is held and must be shorter than any lease
// the locker grants.
func NewEngine(store reservationRepo.Creator, locker keylock.Locker, clock utils.Clock, logger *zap.Logger, lockWait, hold time.Duration) *Engine {
	return &Engine{
		store:    store,
		locker:   locker,
		clock:    clock,
		logger:   logger,
		lockWait: lockWait,
		hold:     hold,
		newID:    func() string { return uuid.New().String() },
	}
}

// SlotKey is the serialization key for admission decisions.
func SlotKey(buildingID, roomID, date string) string {
	return "reservation:" + buildingID + "|" + roomID + "|" + date
}

// Validate checks a candidate without touching the store and returns its period range.
func Validate(c models.ReservationCandidate) (period.Range, *ValidationError) {
	v := &ValidationError{}
	if c.UserID == "" {
		v.add("userId", "requester identity is required")
	}
	if c.BuildingID == "" {
		v.add("buildingId", "required")
	}
	if c.RoomID == "" {
		v.add("roomId", "required")
	}
	if c.Date == "" {
		v.add("date", "required")
	} else if d, err := time.Parse(period.DateLayout, c.Date); err != nil {
		v.add("date", "must be formatted YYYY-MM-DD")
	} else if c.Day != "" && c.Day != period.WeekdayLabel(d) {
		v.add("day", "does not match date")
	}

	var r period.Range
	switch {
	case c.PeriodStart == nil || c.PeriodEnd == nil:
		v.add("period", "periodStart and periodEnd are required")
	default:
		r = period.Range{Start: *c.PeriodStart, End: *c.PeriodEnd}
		if r.Start > r.End {
			v.add("period", "periodStart must not be after periodEnd")
		} else if !r.Valid() {
			v.add("period", "periods must lie within the daily grid")
		}
	}

	if v.HasErrors() {
		return r, v
	}
	return r, nil
}

// RequestReservation runs the admission check and, if no approved reservation for the same
// room and date overlaps, stores the candidate as approved. The room/date key keeps concurrent
// requests from racing through the check; the store's conditional insert still rejects an
// overlap if the key's lease lapsed before the write.
func (e *Engine) RequestReservation(ctx context.Context, c models.ReservationCandidate) (*models.Reservation, error) {
	want, verr := Validate(c)
	if verr != nil {
		return nil, verr
	}

	key := SlotKey(c.BuildingID, c.RoomID, c.Date)
	log := e.logger.With(zap.String("key", key), zap.String("userId", c.UserID),
		zap.Int("periodStart", want.Start), zap.Int("periodEnd", want.End))

	lockCtx, cancel := context.WithTimeout(ctx, e.lockWait)
	defer cancel()
	release, err := e.locker.Lock(lockCtx, key)
	if err != nil {
		log.Warn("could not acquire reservation key", zap.Error(err))
		return nil, temporaryFailure("reservation slot is busy", err)
	}
	defer release()

	ctx, stop := context.WithTimeout(ctx, e.hold)
	defer stop()

	existing, err := e.store.FindApprovedForSlot(ctx, c.BuildingID, c.RoomID, c.Date)
	if err != nil {
		log.Error("admission check failed", zap.Error(err))
		return nil, temporaryFailure("could not check existing reservations", err)
	}
	for _, r := range existing {
		if want.Overlaps(period.Range{Start: r.PeriodStart, End: r.PeriodEnd}) {
			log.Info("reservation rejected", zap.String("conflictsWith", r.ID))
			return nil, ErrTimeConflict
		}
	}

	day := c.Day
	if day == "" {
		d, _ := time.Parse(period.DateLayout, c.Date)
		day = period.WeekdayLabel(d)
	}
	res := &models.Reservation{
		ID:          e.newID(),
		UserID:      c.UserID,
		UserName:    c.UserName,
		Major:       c.Major,
		People:      c.People,
		Purpose:     c.Purpose,
		BuildingID:  c.BuildingID,
		RoomID:      c.RoomID,
		Day:         day,
		Date:        c.Date,
		PeriodStart: want.Start,
		PeriodEnd:   want.End,
		Status:      models.StatusApproved,
		CreatedAt:   e.clock.Now(),
	}
	if err := e.store.Insert(ctx, res); err != nil {
		if errors.Is(err, reservationRepo.ErrOverlap) {
			log.Warn("reservation rejected at write", zap.Error(err))
			return nil, ErrTimeConflict
		}
		log.Error("failed to store reservation", zap.Error(err))
		return nil, temporaryFailure("could not store reservation", err)
	}

	log.Info("reservation approved", zap.String("reservationId", res.ID))
	return res, nil
}
