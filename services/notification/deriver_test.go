package notification

import (
	"testing"
	"time"

	"lendmark/models"

	"go.uber.org/zap"
)

var kst = time.FixedZone("KST", 9*3600)

func clockAt(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, kst)
}

func res(id string, start, end int) models.Reservation {
	return models.Reservation{
		ID: id, UserID: "u1", BuildingID: "b1", RoomID: "101",
		Date: "2025-03-10", PeriodStart: start, PeriodEnd: end,
		Status: models.StatusApproved,
	}
}

var names = map[string]string{"b1": "Science Hall"}

func TestDeriveStartAlert(t *testing.T) {
	d := NewDeriver(kst, zap.NewNop())
	items := d.DeriveAlerts([]models.Reservation{res("r1", 1, 1)}, names, clockAt(8, 45), true)

	if len(items) != 1 {
		t.Fatalf("got %d alerts, want 1", len(items))
	}
	got := items[0]
	if got.Type != models.AlertStart || got.ID != "r1:start" {
		t.Errorf("alert = %s/%s, want r1:start", got.ID, got.Type)
	}
	if got.Remaining != 15*time.Minute || got.MinutesLeft != 16 {
		t.Errorf("remaining = %v (%d mins), want 15m (16 mins)", got.Remaining, got.MinutesLeft)
	}
	if got.Title != "Reservation starts in 16 mins!" || got.RemainingTime != "Starts in 16 mins" {
		t.Errorf("unexpected text %q / %q", got.Title, got.RemainingTime)
	}
	if got.Location != "Science Hall - Room 101" || got.StartTime != "09:00" || got.EndTime != "10:00" {
		t.Errorf("unexpected rendering %+v", got)
	}
}

func TestDeriveWindows(t *testing.T) {
	d := NewDeriver(kst, zap.NewNop())
	r := []models.Reservation{res("r1", 1, 1)} // 09:00-10:00

	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{"an hour out", clockAt(8, 0), nil},
		{"31 minutes out", clockAt(8, 29), nil},
		{"exactly 30 minutes out", clockAt(8, 30), []string{"r1:start"}},
		{"at start", clockAt(9, 0), nil},
		{"mid reservation", clockAt(9, 30), nil},
		{"11 minutes before end", clockAt(9, 49), nil},
		{"8 minutes before end", clockAt(9, 52), []string{"r1:end"}},
		{"at end", clockAt(10, 0), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := d.DeriveAlerts(r, names, tt.now, true)
			if len(items) != len(tt.want) {
				t.Fatalf("got %d alerts, want %d", len(items), len(tt.want))
			}
			for i, id := range tt.want {
				if items[i].ID != id {
					t.Errorf("alert %d = %s, want %s", i, items[i].ID, id)
				}
			}
		})
	}
}

func TestDeriveEndAlertText(t *testing.T) {
	d := NewDeriver(kst, zap.NewNop())
	items := d.DeriveAlerts([]models.Reservation{res("r1", 0, 1)}, nil, clockAt(9, 52), true)
	if len(items) != 1 {
		t.Fatalf("got %d alerts, want 1", len(items))
	}
	if items[0].Title != "Reservation ends in 9 mins. Please clean up!" {
		t.Errorf("title = %q", items[0].Title)
	}
	if items[0].Location != "Building b1 - Room 101" {
		t.Errorf("location fallback = %q", items[0].Location)
	}
}

func TestDeriveOrdersByRemainingThenID(t *testing.T) {
	d := NewDeriver(kst, zap.NewNop())
	rs := []models.Reservation{res("zeta", 1, 2), res("alpha", 1, 1), res("mid", 0, 0)}

	// 08:55: zeta and alpha start at 09:00, mid ends at 09:00.
	items := d.DeriveAlerts(rs, names, clockAt(8, 55), true)
	want := []string{"alpha:start", "mid:end", "zeta:start"}
	if len(items) != len(want) {
		t.Fatalf("got %d alerts, want %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, items[i].ID, id)
		}
	}
}

func TestDeriveDisabledIsEmpty(t *testing.T) {
	d := NewDeriver(kst, zap.NewNop())
	items := d.DeriveAlerts([]models.Reservation{res("r1", 1, 1)}, names, clockAt(8, 45), false)
	if items == nil || len(items) != 0 {
		t.Fatalf("disabled notifications returned %v", items)
	}
}

func TestDeriveSkipsMalformedAndInactive(t *testing.T) {
	d := NewDeriver(kst, zap.NewNop())
	bad := res("bad", 1, 1)
	bad.Date = "10/03/2025"
	outOfGrid := res("grid", 1, 99)
	done := res("done", 1, 1)
	done.Status = models.StatusFinished

	items := d.DeriveAlerts([]models.Reservation{bad, outOfGrid, done, res("ok", 1, 1)}, names, clockAt(8, 45), true)
	if len(items) != 1 || items[0].ReservationID != "ok" {
		t.Fatalf("got %+v, want only the well-formed approved reservation", items)
	}
}

func TestMinutesLeft(t *testing.T) {
	tests := []struct {
		left time.Duration
		want int
	}{
		{30 * time.Second, 1},
		{time.Minute, 2},
		{15 * time.Minute, 16},
		{14*time.Minute + 59*time.Second, 15},
	}
	for _, tt := range tests {
		if got := MinutesLeft(tt.left); got != tt.want {
			t.Errorf("MinutesLeft(%v) = %d, want %d", tt.left, got, tt.want)
		}
	}
}
