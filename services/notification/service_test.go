package notification

import (
	"context"
	"errors"
	"testing"

	buildingRepo "lendmark/database/repository/building"
	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/models"
	"lendmark/utils"

	"go.uber.org/zap"
)

type recordingPusher struct {
	pushed   []string
	err      error
	failures int
}

func (p *recordingPusher) Push(_ context.Context, userID string, alert models.NotificationItem) error {
	if p.err != nil {
		return p.err
	}
	if p.failures > 0 {
		p.failures--
		return errors.New("fcm unavailable")
	}
	p.pushed = append(p.pushed, userID+"/"+alert.ID)
	return nil
}

func newService(t *testing.T, pusher Pusher) (*DefaultNotificationService, *utils.FixedClock, *MemoryReadState) {
	t.Helper()
	repo := reservationRepo.NewMemoryReservationRepo()
	other := res("r2", 1, 1)
	other.UserID = "u2"
	finished := res("r3", 1, 1)
	finished.Status = models.StatusFinished
	repo.Seed(res("r1", 1, 1), other, finished)

	buildings := buildingRepo.NewMemoryBuildingRepo(models.Building{ID: "b1", Name: "Science Hall"})
	state := NewMemoryReadState()
	clock := utils.NewFixedClock(clockAt(8, 45))

	opts := Options{}
	if pusher != nil {
		opts = Options{Sent: state, Pusher: pusher}
	}
	svc, err := NewDefaultNotificationService(repo, buildings, state, NewDeriver(kst, zap.NewNop()), clock, zap.NewNop(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return svc, clock, state
}

func TestListForUserOverlaysReadFlags(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()

	items, err := svc.ListForUser(ctx, "u1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "r1:start" || items[0].Read {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Location != "Science Hall - Room 101" {
		t.Errorf("location = %q", items[0].Location)
	}

	if err := svc.MarkRead(ctx, "u1", "r1:start"); err != nil {
		t.Fatal(err)
	}
	items, _ = svc.ListForUser(ctx, "u1", true)
	if !items[0].Read {
		t.Error("alert should be marked read")
	}

	items, _ = svc.ListForUser(ctx, "u1", false)
	if len(items) != 0 {
		t.Errorf("in-app disabled returned %d alerts", len(items))
	}
}

func TestPushDueAlertsOncePerAlert(t *testing.T) {
	pusher := &recordingPusher{}
	svc, clock, _ := newService(t, pusher)
	ctx := context.Background()

	n, err := svc.PushDueAlerts(ctx)
	if err != nil || n != 2 {
		t.Fatalf("first run = %d, %v; want 2 pushes", n, err)
	}
	n, err = svc.PushDueAlerts(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second run = %d, %v; want 0 pushes", n, err)
	}

	clock.Set(clockAt(9, 55))
	n, err = svc.PushDueAlerts(ctx)
	if err != nil || n != 2 {
		t.Fatalf("end-alert run = %d, %v; want 2 pushes", n, err)
	}
	if len(pusher.pushed) != 4 {
		t.Errorf("pushed %v", pusher.pushed)
	}
}

func TestPushDueAlertsDisabledAndFailing(t *testing.T) {
	svc, _, _ := newService(t, nil)
	if _, err := svc.PushDueAlerts(context.Background()); !errors.Is(err, ErrPushDisabled) {
		t.Fatalf("err = %v, want ErrPushDisabled", err)
	}

	svc, _, _ = newService(t, &recordingPusher{err: errors.New("fcm unavailable")})
	n, err := svc.PushDueAlerts(context.Background())
	if err == nil || n != 0 {
		t.Fatalf("failing pusher = %d, %v; want error and 0 sent", n, err)
	}
}

func TestPushDueAlertsRetriesFailedPush(t *testing.T) {
	pusher := &recordingPusher{failures: 1}
	svc, _, _ := newService(t, pusher)
	ctx := context.Background()

	n, err := svc.PushDueAlerts(ctx)
	if err == nil || n != 1 {
		t.Fatalf("first run = %d, %v; want 1 push and an error", n, err)
	}

	n, err = svc.PushDueAlerts(ctx)
	if err != nil || n != 1 {
		t.Fatalf("retry = %d, %v; want the failed alert pushed", n, err)
	}
	if len(pusher.pushed) != 2 || pusher.pushed[0] == pusher.pushed[1] {
		t.Fatalf("pushed %v, want both users' start alerts once each", pusher.pushed)
	}

	if n, err = svc.PushDueAlerts(ctx); err != nil || n != 0 {
		t.Fatalf("third run = %d, %v; want nothing left to push", n, err)
	}
}
