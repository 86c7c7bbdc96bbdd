package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/models"
	"lendmark/services/keylock"
	"lendmark/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// staleStore reports the slot as empty, the way a read taken before another writer committed would.
type staleStore struct {
	*reservationRepo.MemoryReservationRepo
}

func (staleStore) FindApprovedForSlot(context.Context, string, string, string) ([]models.Reservation, error) {
	return nil, nil
}

// lapsingStore runs afterFirstFind once, between the first admission check and its write.
type lapsingStore struct {
	*reservationRepo.MemoryReservationRepo
	afterFirstFind func()
	fired          bool
}

func (s *lapsingStore) FindApprovedForSlot(ctx context.Context, b, r, d string) ([]models.Reservation, error) {
	rows, err := s.MemoryReservationRepo.FindApprovedForSlot(ctx, b, r, d)
	if !s.fired {
		s.fired = true
		s.afterFirstFind()
	}
	return rows, err
}

// slowStore holds every admission check until its context ends.
type slowStore struct {
	*reservationRepo.MemoryReservationRepo
}

func (slowStore) FindApprovedForSlot(ctx context.Context, _, _, _ string) ([]models.Reservation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRequestReservationWriteRejectsOverlapMissedByCheck(t *testing.T) {
	store := staleStore{reservationRepo.NewMemoryReservationRepo()}
	e := newTestEngine(store, nil)

	if _, err := e.RequestReservation(context.Background(), candidate("101", 1, 2)); err != nil {
		t.Fatal(err)
	}
	_, err := e.RequestReservation(context.Background(), candidate("101", 2, 3))
	if !errors.Is(err, ErrTimeConflict) || Reason(err) != CodeTimeConflict {
		t.Fatalf("err = %v, want TIME_CONFLICT", err)
	}
	rows, _ := store.MemoryReservationRepo.FindApprovedForSlot(context.Background(), "b1", "101", "2025-03-10")
	if len(rows) != 1 {
		t.Fatalf("approved rows = %d, want 1", len(rows))
	}
}

func TestRequestReservationSurvivesLapsedRedisLease(t *testing.T) {
	const ttl = 10 * time.Second
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := keylock.NewRedisLocker(client, ttl, zap.NewNop())

	store := &lapsingStore{MemoryReservationRepo: reservationRepo.NewMemoryReservationRepo()}
	e := NewEngine(store, locker, utils.NewFixedClock(testNow), zap.NewNop(), time.Second, time.Second)

	var secondErr error
	store.afterFirstFind = func() {
		// The first holder's lease runs out mid-request and a second request takes the key.
		mr.FastForward(ttl + time.Millisecond)
		_, secondErr = e.RequestReservation(context.Background(), candidate("101", 2, 3))
	}

	_, firstErr := e.RequestReservation(context.Background(), candidate("101", 1, 2))
	if secondErr != nil {
		t.Fatalf("request holding the renewed key failed: %v", secondErr)
	}
	if !errors.Is(firstErr, ErrTimeConflict) {
		t.Fatalf("request with the lapsed lease: err = %v, want TIME_CONFLICT", firstErr)
	}

	rows, _ := store.MemoryReservationRepo.FindApprovedForSlot(context.Background(), "b1", "101", "2025-03-10")
	if len(rows) != 1 || rows[0].PeriodStart != 2 || rows[0].PeriodEnd != 3 {
		t.Fatalf("approved rows = %+v, want only periods 2-3", rows)
	}
}

func TestRequestReservationBoundsStoreWorkUnderKey(t *testing.T) {
	store := slowStore{reservationRepo.NewMemoryReservationRepo()}
	e := NewEngine(store, keylock.NewKeyedMutex(), utils.NewFixedClock(testNow), zap.NewNop(), time.Second, 20*time.Millisecond)

	start := time.Now()
	_, err := e.RequestReservation(context.Background(), candidate("101", 1, 2))
	if !errors.Is(err, ErrTemporaryFailure) {
		t.Fatalf("err = %v, want TEMPORARY_FAILURE", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("critical section ran %v past its %v bound", elapsed, 20*time.Millisecond)
	}
}
