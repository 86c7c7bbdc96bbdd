// File: database/repository/reservation/memory.go
package reservationRepo

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"lendmark/models"
)

var canonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MemoryReservationRepo is a process-local Repository used with STORE_BACKEND=memory and in tests.
// Every method runs under one mutex, so Transition is trivially all-or-nothing.
type MemoryReservationRepo struct {
	mu   sync.RWMutex
	rows map[string]models.Reservation
}

// NewMemoryReservationRepo returns an empty store.
func NewMemoryReservationRepo() *MemoryReservationRepo {
	return &MemoryReservationRepo{rows: make(map[string]models.Reservation)}
}

// Seed stores rows as-is, bypassing the Creator rules. Meant for fixtures.
func (m *MemoryReservationRepo) Seed(rows ...models.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[r.ID] = r
	}
}

func (m *MemoryReservationRepo) filter(keep func(models.Reservation) bool) []models.Reservation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Reservation
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].PeriodStart != out[j].PeriodStart {
			return out[i].PeriodStart < out[j].PeriodStart
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryReservationRepo) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryReservationRepo) FindByUser(_ context.Context, userID, status string) ([]models.Reservation, error) {
	return m.filter(func(r models.Reservation) bool {
		return r.UserID == userID && (status == "" || r.Status == status)
	}), nil
}

func (m *MemoryReservationRepo) FindByDate(_ context.Context, date, buildingID, status string) ([]models.Reservation, error) {
	return m.filter(func(r models.Reservation) bool {
		return r.Date == date &&
			(buildingID == "" || r.BuildingID == buildingID) &&
			(status == "" || r.Status == status)
	}), nil
}

func (m *MemoryReservationRepo) FindUserIDsByDate(_ context.Context, date, status string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range m.filter(func(r models.Reservation) bool { return r.Date == date && r.Status == status }) {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryReservationRepo) FindApprovedForSlot(_ context.Context, buildingID, roomID, date string) ([]models.Reservation, error) {
	return m.filter(func(r models.Reservation) bool {
		return r.BuildingID == buildingID && r.RoomID == roomID && r.Date == date && r.Status == models.StatusApproved
	}), nil
}

func (m *MemoryReservationRepo) Insert(_ context.Context, r *models.Reservation) error {
	if r.Status != models.StatusApproved {
		return ErrNotApproved
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var slot []models.Reservation
	for _, row := range m.rows {
		if row.BuildingID == r.BuildingID && row.RoomID == r.RoomID && row.Date == r.Date {
			slot = append(slot, row)
		}
	}
	if hit, ok := overlapping(slot, r); ok {
		return fmt.Errorf("%w: %s", ErrOverlap, hit.ID)
	}
	m.rows[r.ID] = *r
	return nil
}

// FindApprovedOnOrBefore also returns approved rows whose date is not YYYY-MM-DD, since those
// cannot be ordered against date and the sweeper has to see them to report them.
func (m *MemoryReservationRepo) FindApprovedOnOrBefore(_ context.Context, date string) ([]models.Reservation, error) {
	return m.filter(func(r models.Reservation) bool {
		return r.Status == models.StatusApproved && (r.Date <= date || !canonicalDate.MatchString(r.Date))
	}), nil
}

func (m *MemoryReservationRepo) FindFinishedCreatedBefore(_ context.Context, cutoff time.Time) ([]models.Reservation, error) {
	return m.filter(func(r models.Reservation) bool {
		return r.Status == models.StatusFinished && r.CreatedAt.Before(cutoff)
	}), nil
}

func (m *MemoryReservationRepo) Transition(_ context.Context, ids []string, from, to string, at time.Time) (int, error) {
	if err := CheckTransition(from, to); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		r, ok := m.rows[id]
		if !ok || r.Status != from {
			continue
		}
		r.Status = to
		r.UpdatedAt = at
		m.rows[id] = r
		n++
	}
	return n, nil
}
