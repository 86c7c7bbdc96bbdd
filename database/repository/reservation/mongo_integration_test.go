//go:build integration

package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"lendmark/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// newMongoRepo needs a replica set, e.g. TEST_MONGO_URL=mongodb://localhost:27017/?replicaSet=rs0.
func newMongoRepo(t *testing.T) *MongoReservationRepo {
	t.Helper()
	url := os.Getenv("TEST_MONGO_URL")
	if url == "" {
		t.Skip("TEST_MONGO_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		t.Fatal(err)
	}
	db := client.Database("lendmark_test_" + uuid.New().String()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repo, err := NewMongoReservationRepo(db, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestMongoReservationLifecycle(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for _, r := range []models.Reservation{
		{ID: "a", UserID: "u1", BuildingID: "b1", RoomID: "101", Date: "2025-03-09", PeriodStart: 0, PeriodEnd: 1, Status: models.StatusApproved, CreatedAt: created},
		{ID: "b", UserID: "u2", BuildingID: "b1", RoomID: "101", Date: "2025-03-10", PeriodStart: 3, PeriodEnd: 4, Status: models.StatusApproved, CreatedAt: created},
	} {
		r := r
		if err := repo.Insert(ctx, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Insert(ctx, &models.Reservation{ID: "c", Status: models.StatusFinished}); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("insert finished: %v", err)
	}

	slot, err := repo.FindApprovedForSlot(ctx, "b1", "101", "2025-03-10")
	if err != nil || len(slot) != 1 || slot[0].ID != "b" {
		t.Fatalf("slot = %+v, %v", slot, err)
	}
	due, err := repo.FindApprovedOnOrBefore(ctx, "2025-03-09")
	if err != nil || len(due) != 1 || due[0].ID != "a" {
		t.Fatalf("due = %+v, %v", due, err)
	}
	users, err := repo.FindUserIDsByDate(ctx, "2025-03-10", models.StatusApproved)
	if err != nil || len(users) != 1 || users[0] != "u2" {
		t.Fatalf("users = %v, %v", users, err)
	}

	now := created.Add(9 * 24 * time.Hour)
	n, err := repo.Transition(ctx, []string{"a", "b"}, models.StatusApproved, models.StatusFinished, now)
	if err != nil || n != 2 {
		t.Fatalf("finish = %d, %v", n, err)
	}
	n, err = repo.Transition(ctx, []string{"a", "b"}, models.StatusApproved, models.StatusFinished, now)
	if err != nil || n != 0 {
		t.Fatalf("repeat finish = %d, %v; want 0", n, err)
	}

	old, err := repo.FindFinishedCreatedBefore(ctx, now.Add(-7*24*time.Hour))
	if err != nil || len(old) != 2 {
		t.Fatalf("expirable = %d, %v", len(old), err)
	}
	if _, err := repo.Transition(ctx, []string{"a"}, models.StatusExpired, models.StatusApproved, now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("illegal transition: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil || got.Status != models.StatusFinished || !got.UpdatedAt.Equal(now) {
		t.Fatalf("a = %+v, %v", got, err)
	}
	if _, err := repo.GetByID(ctx, "zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestMongoInsertRejectsOverlapAcrossConcurrentWriters(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted []string
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := &models.Reservation{
				ID: fmt.Sprintf("r%d", i), UserID: "u1", BuildingID: "b1", RoomID: "101",
				Date: "2025-03-10", PeriodStart: 1 + i%2, PeriodEnd: 2 + i%2, Status: models.StatusApproved,
			}
			if err := repo.Insert(ctx, r); err == nil {
				mu.Lock()
				admitted = append(admitted, r.ID)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if len(admitted) != 1 {
		t.Fatalf("admitted %v, want exactly one of the overlapping writers", admitted)
	}
	r := &models.Reservation{ID: "late", BuildingID: "b1", RoomID: "101", Date: "2025-03-10", PeriodStart: 2, PeriodEnd: 3, Status: models.StatusApproved}
	if err := repo.Insert(ctx, r); !errors.Is(err, ErrOverlap) {
		t.Fatalf("overlapping insert: %v, want ErrOverlap", err)
	}
}

func TestMongoFindApprovedOnOrBeforeReturnsMalformedDates(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()
	for _, r := range []models.Reservation{
		{ID: "ok", BuildingID: "b1", RoomID: "101", Date: "2025-03-09", Status: models.StatusApproved},
		{ID: "bad", BuildingID: "b1", RoomID: "102", Date: "2025-3-9", Status: models.StatusApproved},
		{ID: "later", BuildingID: "b1", RoomID: "103", Date: "2025-03-11", Status: models.StatusApproved},
	} {
		r := r
		if err := repo.Insert(ctx, &r); err != nil {
			t.Fatal(err)
		}
	}
	due, err := repo.FindApprovedOnOrBefore(ctx, "2025-03-10")
	if err != nil || len(due) != 2 {
		t.Fatalf("due = %+v, %v; want ok and bad", due, err)
	}
}
