package utils

import (
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 45, 0, 0, time.UTC)
	c := NewFixedClock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now = %v, want %v", c.Now(), start)
	}
	if got := c.Advance(20 * time.Minute); !got.Equal(start.Add(20 * time.Minute)) {
		t.Errorf("Advance = %v", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("Set did not move the clock")
	}
}

func TestSystemClockLocation(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	if got := (SystemClock{Loc: loc}).Now().Location(); got != loc {
		t.Errorf("location = %v, want KST", got)
	}
}

func TestInitializeLoggerRejectsBadLevel(t *testing.T) {
	if _, err := InitializeLogger("development", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := InitializeLogger("production", "warn"); err != nil {
		t.Errorf("production logger: %v", err)
	}
}
