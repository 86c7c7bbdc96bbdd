// Package lifecycle ages reservations: approved → finished once their end instant has
// passed, finished → expired once they are older than the retention window.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/models"
	"lendmark/services/period"

	"go.uber.org/zap"
)

// ExpireAfter is how long after creation a finished reservation is archived as expired.
const ExpireAfter = 7 * 24 * time.Hour

// Sweeper is the only component allowed to change a reservation's status.
type Sweeper struct {
	store  reservationRepo.Transitioner
	loc    *time.Location
	logger *zap.Logger
}

// NewSweeper builds a Sweeper. Reservation dates are interpreted in loc.
func NewSweeper(store reservationRepo.Transitioner, loc *time.Location, logger *zap.Logger) *Sweeper {
	if loc == nil {
		loc = time.Local
	}
	return &Sweeper{store: store, loc: loc, logger: logger}
}

// RunFinishPass moves every approved reservation whose end instant is at or before now to finished.
// A reservation dated before today always qualifies; one dated today qualifies once
// 8 + periodEnd + 1 o'clock has been reached.
func (s *Sweeper) RunFinishPass(ctx context.Context, now time.Time) (models.SweepResult, error) {
	now = now.In(s.loc)
	today := period.FormatDate(now)

	candidates, err := s.store.FindApprovedOnOrBefore(ctx, today)
	if err != nil {
		return models.SweepResult{}, fmt.Errorf("finish pass: load approved reservations: %w", err)
	}

	var (
		ids     []string
		skipped int
	)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	for _, r := range candidates {
		day, err := period.ParseDate(r.Date, s.loc)
		if err != nil {
			skipped++
			s.logSkip(r, err)
			continue
		}
		if day.Before(startOfToday) {
			ids = append(ids, r.ID)
			continue
		}
		end, err := period.EndInstant(r.Date, r.PeriodEnd, s.loc)
		if err != nil {
			skipped++
			s.logSkip(r, err)
			continue
		}
		if !now.Before(end) {
			ids = append(ids, r.ID)
		}
	}

	n, err := s.store.Transition(ctx, ids, models.StatusApproved, models.StatusFinished, now)
	if err != nil {
		return models.SweepResult{Skipped: skipped}, fmt.Errorf("finish pass: %w", err)
	}

	s.logger.Info("finish pass complete",
		zap.Int("scanned", len(candidates)), zap.Int("finished", n), zap.Int("skipped", skipped))
	return models.SweepResult{Transitioned: n, Finished: n, Skipped: skipped}, nil
}

func (s *Sweeper) logSkip(r models.Reservation, err error) {
	s.logger.Warn("skipping reservation with malformed date/period",
		zap.String("reservationId", r.ID), zap.String("date", r.Date),
		zap.Int("periodEnd", r.PeriodEnd), zap.Error(err))
}

// RunExpirePass moves finished reservations created more than ExpireAfter before now to expired.
func (s *Sweeper) RunExpirePass(ctx context.Context, now time.Time) (models.SweepResult, error) {
	cutoff := now.Add(-ExpireAfter)

	candidates, err := s.store.FindFinishedCreatedBefore(ctx, cutoff)
	if err != nil {
		return models.SweepResult{}, fmt.Errorf("expire pass: load finished reservations: %w", err)
	}

	ids := make([]string, 0, len(candidates))
	for _, r := range candidates {
		ids = append(ids, r.ID)
	}

	n, err := s.store.Transition(ctx, ids, models.StatusFinished, models.StatusExpired, now)
	if err != nil {
		return models.SweepResult{}, fmt.Errorf("expire pass: %w", err)
	}

	s.logger.Info("expire pass complete", zap.Int("scanned", len(candidates)), zap.Int("expired", n))
	return models.SweepResult{Transitioned: n, Expired: n}, nil
}

// RunLifecycleSweep runs the finish pass then the expire pass with the same now.
// It is idempotent: a second run with the same now changes nothing.
func (s *Sweeper) RunLifecycleSweep(ctx context.Context, now time.Time) (models.SweepResult, error) {
	finished, err := s.RunFinishPass(ctx, now)
	if err != nil {
		return finished, err
	}
	expired, err := s.RunExpirePass(ctx, now)
	if err != nil {
		return finished, err
	}
	return models.SweepResult{
		Transitioned: finished.Transitioned + expired.Transitioned,
		Finished:     finished.Finished,
		Expired:      expired.Expired,
		Skipped:      finished.Skipped,
	}, nil
}
