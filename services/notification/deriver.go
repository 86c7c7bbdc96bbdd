package notification

import (
	"fmt"
	"sort"
	"time"

	"lendmark/models"
	"lendmark/services/period"

	"go.uber.org/zap"
)

const (
	// StartWindow is how far ahead of a reservation's first period a "start" alert appears.
	StartWindow = 30 * time.Minute
	// EndWindow is how far ahead of a reservation's end a "end" alert appears.
	EndWindow = 10 * time.Minute
)

// Deriver turns reservations into transient alerts. It holds no state between calls.
type Deriver struct {
	loc    *time.Location
	logger *zap.Logger
}

// NewDeriver builds a Deriver that interprets reservation dates in loc.
func NewDeriver(loc *time.Location, logger *zap.Logger) *Deriver {
	if loc == nil {
		loc = time.Local
	}
	return &Deriver{loc: loc, logger: logger}
}

// DeriveAlerts returns the start/end alerts due for reservations at now, nearest first.
// buildingNames maps building id to display name and may be nil. When inAppEnabled is false
// the result is always empty.
func (d *Deriver) DeriveAlerts(reservations []models.Reservation, buildingNames map[string]string, now time.Time, inAppEnabled bool) []models.NotificationItem {
	items := []models.NotificationItem{}
	if !inAppEnabled {
		return items
	}

	for _, r := range reservations {
		if r.Status != models.StatusApproved {
			continue
		}
		start, err := period.StartInstant(r.Date, r.PeriodStart, d.loc)
		if err != nil {
			d.skip(r, err)
			continue
		}
		end, err := period.EndInstant(r.Date, r.PeriodEnd, d.loc)
		if err != nil {
			d.skip(r, err)
			continue
		}

		if left := start.Sub(now); left > 0 && left <= StartWindow {
			items = append(items, d.item(r, buildingNames, models.AlertStart, left))
		}
		if left := end.Sub(now); left > 0 && left <= EndWindow {
			items = append(items, d.item(r, buildingNames, models.AlertEnd, left))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Remaining != items[j].Remaining {
			return items[i].Remaining < items[j].Remaining
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (d *Deriver) item(r models.Reservation, names map[string]string, kind string, left time.Duration) models.NotificationItem {
	mins := MinutesLeft(left)

	var title, remaining string
	switch kind {
	case models.AlertStart:
		title = fmt.Sprintf("Reservation starts in %d mins!", mins)
		remaining = fmt.Sprintf("Starts in %d mins", mins)
	default:
		title = fmt.Sprintf("Reservation ends in %d mins. Please clean up!", mins)
		remaining = fmt.Sprintf("Ends in %d mins", mins)
	}

	return models.NotificationItem{
		ID:            AlertID(r.ID, kind),
		ReservationID: r.ID,
		Title:         title,
		Location:      Location(names, r.BuildingID, r.RoomID),
		Date:          r.Date,
		StartTime:     period.StartClock(r.PeriodStart),
		EndTime:       period.EndClock(r.PeriodEnd),
		RemainingTime: remaining,
		MinutesLeft:   mins,
		Remaining:     left,
		Type:          kind,
	}
}

func (d *Deriver) skip(r models.Reservation, err error) {
	d.logger.Warn("skipping reservation with malformed date/period",
		zap.String("reservationId", r.ID), zap.String("date", r.Date), zap.Error(err))
}

// AlertID is the stable identity of one alert kind for one reservation.
func AlertID(reservationID, kind string) string {
	return reservationID + ":" + kind
}

// MinutesLeft renders a positive remaining duration as whole minutes, never 0.
func MinutesLeft(left time.Duration) int {
	return int(left/time.Minute) + 1
}

// Location renders "<building> - Room <room>", falling back to "Building <id>" for unknown buildings.
func Location(names map[string]string, buildingID, roomID string) string {
	name, ok := names[buildingID]
	if !ok || name == "" {
		name = "Building " + buildingID
	}
	return fmt.Sprintf("%s - Room %s", name, roomID)
}
