package models

import "time"

// Alert kinds.
const (
	AlertStart = "start"
	AlertEnd   = "end"
)

// NotificationItem is a derived "starting soon" / "ending soon" alert. It is never persisted.
type NotificationItem struct {
	ID            string        `json:"id"`
	ReservationID string        `json:"reservationId"`
	Title         string        `json:"title"`
	Location      string        `json:"location"`
	Date          string        `json:"date"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime"`
	RemainingTime string        `json:"remainingTime"`
	MinutesLeft   int           `json:"minutesLeft"`
	Remaining     time.Duration `json:"-"`
	Type          string        `json:"type"`
	Read          bool          `json:"isRead"`
}
