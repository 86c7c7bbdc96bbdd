// Package occupancy computes how much of a building's class-capable time is taken by reservations.
package occupancy

import (
	"time"

	"lendmark/models"
	"lendmark/services/period"
)

// Display levels for map markers.
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelBusy     = "busy"
	LevelFull     = "full"
)

// TotalSlots counts the timetable periods of every room whose day matches today's weekday.
func TotalSlots(b models.Building, today time.Time) int {
	day := period.WeekdayLabel(today)
	total := 0
	for _, room := range b.Timetable {
		for _, block := range room.Schedule {
			if block.Day == day {
				total += period.Range{Start: block.PeriodStart, End: block.PeriodEnd}.Slots()
			}
		}
	}
	return total
}

// ReservedSlots counts the periods held by b's approved reservations dated today.
func ReservedSlots(b models.Building, reservations []models.Reservation, today time.Time) int {
	date := period.FormatDate(today)
	reserved := 0
	for _, r := range reservations {
		if r.Status != models.StatusApproved || r.Date != date || r.BuildingID != b.ID {
			continue
		}
		reserved += period.Range{Start: r.PeriodStart, End: r.PeriodEnd}.Slots()
	}
	return reserved
}

// ComputeOccupancy returns reserved/total as a whole percent, truncated. A building with no
// timetable slots today reports 0. Results above 100 are returned as-is.
func ComputeOccupancy(b models.Building, reservations []models.Reservation, today time.Time) int {
	total := TotalSlots(b, today)
	if total == 0 {
		return 0
	}
	return 100 * ReservedSlots(b, reservations, today) / total
}

// Level buckets a percent for display.
func Level(percent int) string {
	switch {
	case percent < 40:
		return LevelLow
	case percent < 60:
		return LevelModerate
	case percent < 80:
		return LevelBusy
	default:
		return LevelFull
	}
}
