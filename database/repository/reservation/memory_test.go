package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"lendmark/models"
)

func TestCheckTransition(t *testing.T) {
	allowed := [][2]string{
		{models.StatusApproved, models.StatusFinished},
		{models.StatusFinished, models.StatusExpired},
	}
	for _, p := range allowed {
		if err := CheckTransition(p[0], p[1]); err != nil {
			t.Errorf("%s -> %s should be allowed: %v", p[0], p[1], err)
		}
	}
	denied := [][2]string{
		{models.StatusExpired, models.StatusApproved},
		{models.StatusFinished, models.StatusApproved},
		{models.StatusApproved, models.StatusExpired},
		{models.StatusExpired, models.StatusFinished},
	}
	for _, p := range denied {
		if err := CheckTransition(p[0], p[1]); !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s should be rejected, got %v", p[0], p[1], err)
		}
	}
}

func TestMemoryInsertRequiresApproved(t *testing.T) {
	repo := NewMemoryReservationRepo()
	err := repo.Insert(context.Background(), &models.Reservation{ID: "x", Status: models.StatusFinished})
	if !errors.Is(err, ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}

func TestMemoryTransitionIsGuardedByFromStatus(t *testing.T) {
	repo := NewMemoryReservationRepo()
	repo.Seed(
		models.Reservation{ID: "a", Status: models.StatusApproved},
		models.Reservation{ID: "b", Status: models.StatusFinished},
	)
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	n, err := repo.Transition(context.Background(), []string{"a", "b", "missing"}, models.StatusApproved, models.StatusFinished, at)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("transitioned %d, want 1", n)
	}
	n, err = repo.Transition(context.Background(), []string{"a"}, models.StatusApproved, models.StatusFinished, at)
	if err != nil || n != 0 {
		t.Fatalf("re-run should change nothing, got n=%d err=%v", n, err)
	}
	got, _ := repo.GetByID(context.Background(), "a")
	if got.Status != models.StatusFinished || !got.UpdatedAt.Equal(at) {
		t.Errorf("unexpected row after transition: %+v", got)
	}
}

func TestMemoryInsertRejectsOverlap(t *testing.T) {
	repo := NewMemoryReservationRepo()
	repo.Seed(
		models.Reservation{ID: "held", BuildingID: "b1", RoomID: "101", Date: "2025-03-10", PeriodStart: 1, PeriodEnd: 2, Status: models.StatusApproved},
		models.Reservation{ID: "done", BuildingID: "b1", RoomID: "101", Date: "2025-03-10", PeriodStart: 5, PeriodEnd: 6, Status: models.StatusFinished},
	)
	tests := []struct {
		name       string
		room       string
		start, end int
		wantErr    error
	}{
		{"shares last period", "101", 2, 3, ErrOverlap},
		{"inside", "101", 1, 1, ErrOverlap},
		{"adjacent", "101", 3, 4, nil},
		{"finished row does not block", "101", 5, 6, nil},
		{"other room", "102", 1, 2, nil},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.Reservation{
				ID: fmt.Sprintf("n%d", i), BuildingID: "b1", RoomID: tt.room, Date: "2025-03-10",
				PeriodStart: tt.start, PeriodEnd: tt.end, Status: models.StatusApproved,
			}
			err := repo.Insert(context.Background(), r)
			if !errors.Is(err, tt.wantErr) && !(tt.wantErr == nil && err == nil) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if _, getErr := repo.GetByID(context.Background(), r.ID); (getErr == nil) != (tt.wantErr == nil) {
				t.Errorf("stored = %v, want stored only when admitted", getErr == nil)
			}
		})
	}
}

func TestMemoryFindApprovedOnOrBeforeReturnsMalformedDates(t *testing.T) {
	repo := NewMemoryReservationRepo()
	repo.Seed(
		models.Reservation{ID: "ok", Date: "2025-03-09", Status: models.StatusApproved},
		models.Reservation{ID: "bad", Date: "2025-3-9", Status: models.StatusApproved},
		models.Reservation{ID: "later", Date: "2025-03-11", Status: models.StatusApproved},
		models.Reservation{ID: "done", Date: "2025-3-1", Status: models.StatusFinished},
	)
	due, err := repo.FindApprovedOnOrBefore(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range due {
		ids = append(ids, r.ID)
	}
	if len(ids) != 2 || ids[0] != "ok" || ids[1] != "bad" {
		t.Fatalf("due = %v, want [ok bad]", ids)
	}
}
