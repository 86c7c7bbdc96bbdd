package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/models"
	"lendmark/services/period"
	"lendmark/utils"

	"go.uber.org/zap"
)

// ErrPushDisabled is returned by PushDueAlerts when no Pusher is configured.
var ErrPushDisabled = errors.New("alert push is not configured")

// BuildingNames resolves building ids to display names.
type BuildingNames interface {
	Names(ctx context.Context) (map[string]string, error)
}

// NotificationService serves the notification view and the alert push job.
type NotificationService interface {
	ListForUser(ctx context.Context, userID string, inAppEnabled bool) ([]models.NotificationItem, error)
	MarkRead(ctx context.Context, userID, alertID string) error
	PushDueAlerts(ctx context.Context) (int, error)
}

// Options carries the optional push collaborators; leave Pusher nil to disable pushes.
type Options struct {
	Sent   SentLedger
	Pusher Pusher
}

// DefaultNotificationService reads reservations, derives alerts and overlays read flags.
type DefaultNotificationService struct {
	reservations reservationRepo.Reader
	buildings    BuildingNames
	reads        ReadState
	sent         SentLedger
	pusher       Pusher
	deriver      *Deriver
	clock        utils.Clock
	loc          *time.Location
	logger       *zap.Logger
}

func NewDefaultNotificationService(
	reservations reservationRepo.Reader,
	buildings BuildingNames,
	reads ReadState,
	deriver *Deriver,
	clock utils.Clock,
	logger *zap.Logger,
	opts Options,
) (*DefaultNotificationService, error) {
	if reservations == nil || buildings == nil || reads == nil || deriver == nil || clock == nil {
		return nil, fmt.Errorf("notification service initialization error: missing dependency")
	}
	return &DefaultNotificationService{
		reservations: reservations,
		buildings:    buildings,
		reads:        reads,
		sent:         opts.Sent,
		pusher:       opts.Pusher,
		deriver:      deriver,
		clock:        clock,
		loc:          deriver.loc,
		logger:       logger,
	}, nil
}

// ListForUser derives the user's current alerts. Read flags are best effort.
func (s *DefaultNotificationService) ListForUser(ctx context.Context, userID string, inAppEnabled bool) ([]models.NotificationItem, error) {
	if !inAppEnabled {
		return []models.NotificationItem{}, nil
	}

	items, err := s.alertsFor(ctx, userID, s.clock.Now(), nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	read, err := s.reads.ReadIDs(ctx, userID)
	if err != nil {
		s.logger.Warn("read flags unavailable", zap.String("userId", userID), zap.Error(err))
		return items, nil
	}
	for i := range items {
		items[i].Read = read[items[i].ID]
	}
	return items, nil
}

// alertsFor loads the user's approved reservations and derives alerts at now.
// names is fetched when nil.
func (s *DefaultNotificationService) alertsFor(ctx context.Context, userID string, now time.Time, names map[string]string) ([]models.NotificationItem, error) {
	reservations, err := s.reservations.FindByUser(ctx, userID, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("error loading reservations for %s: %w", userID, err)
	}
	if names == nil {
		names, err = s.buildings.Names(ctx)
		if err != nil {
			// Locations fall back to "Building <id>".
			s.logger.Warn("building names unavailable", zap.Error(err))
			names = map[string]string{}
		}
	}
	return s.deriver.DeriveAlerts(reservations, names, now, true), nil
}

// MarkRead flags one alert as read for the user.
func (s *DefaultNotificationService) MarkRead(ctx context.Context, userID, alertID string) error {
	if userID == "" || alertID == "" {
		return fmt.Errorf("userId and alert id are required")
	}
	return s.reads.MarkRead(ctx, userID, alertID)
}

// PushDueAlerts derives alerts for every user holding an approved reservation today and pushes
// each alert once. It returns how many pushes were sent. One user's failure does not stop the rest.
func (s *DefaultNotificationService) PushDueAlerts(ctx context.Context) (int, error) {
	if s.pusher == nil || s.sent == nil {
		return 0, ErrPushDisabled
	}
	now := s.clock.Now().In(s.loc)
	today := period.FormatDate(now)

	userIDs, err := s.reservations.FindUserIDsByDate(ctx, today, models.StatusApproved)
	if err != nil {
		return 0, fmt.Errorf("error loading users with reservations on %s: %w", today, err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	names, err := s.buildings.Names(ctx)
	if err != nil {
		s.logger.Warn("building names unavailable", zap.Error(err))
		names = map[string]string{}
	}

	sent := 0
	var errs []error
	for _, userID := range userIDs {
		items, err := s.alertsFor(ctx, userID, now, names)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, item := range items {
			first, err := s.sent.MarkSent(ctx, userID, item.ID)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !first {
				continue
			}
			if err := s.pusher.Push(ctx, userID, item); err != nil {
				s.logger.Error("alert push failed", zap.String("userId", userID),
					zap.String("alertId", item.ID), zap.Error(err))
				errs = append(errs, err)
				if uerr := s.sent.UnmarkSent(ctx, userID, item.ID); uerr != nil {
					s.logger.Error("could not release pushed alert record; alert will not be retried",
						zap.String("userId", userID), zap.String("alertId", item.ID), zap.Error(uerr))
				}
				continue
			}
			sent++
		}
	}

	s.logger.Info("alert push run complete", zap.Int("users", len(userIDs)), zap.Int("sent", sent))
	return sent, errors.Join(errs...)
}
