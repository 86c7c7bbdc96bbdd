// File: database/repository/building/building.go
package buildingRepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"lendmark/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no building matches the id.
var ErrNotFound = errors.New("building not found")

// BuildingRepository is read-only access to buildings and their timetables.
type BuildingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Building, error)
	// List returns all buildings ordered by code.
	List(ctx context.Context) ([]models.Building, error)
	// Names maps building id to display name.
	Names(ctx context.Context) (map[string]string, error)
}

// MongoBuildingRepo reads the buildings collection.
type MongoBuildingRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoBuildingRepo constructs a MongoBuildingRepo.
func NewMongoBuildingRepo(db *mongo.Database, timeout time.Duration) *MongoBuildingRepo {
	return &MongoBuildingRepo{
		coll:    db.Collection("buildings"),
		timeout: timeout,
	}
}

func (r *MongoBuildingRepo) GetByID(ctx context.Context, id string) (*models.Building, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var b models.Building
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching building %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoBuildingRepo) List(ctx context.Context) ([]models.Building, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing buildings: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Building
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding buildings: %w", err)
	}
	return out, nil
}

// Names projects only id and name.
func (r *MongoBuildingRepo) Names(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"id": 1, "name": 1}))
	if err != nil {
		return nil, fmt.Errorf("error listing building names: %w", err)
	}
	defer cursor.Close(ctx)

	names := make(map[string]string)
	for cursor.Next(ctx) {
		var b models.Building
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding building: %w", err)
		}
		names[b.ID] = b.Name
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return names, nil
}

// MemoryBuildingRepo serves a fixed set of buildings.
type MemoryBuildingRepo struct {
	mu        sync.RWMutex
	buildings map[string]models.Building
}

// NewMemoryBuildingRepo returns a repo holding buildings.
func NewMemoryBuildingRepo(buildings ...models.Building) *MemoryBuildingRepo {
	m := &MemoryBuildingRepo{buildings: make(map[string]models.Building)}
	for _, b := range buildings {
		m.buildings[b.ID] = b
	}
	return m
}

func (m *MemoryBuildingRepo) GetByID(_ context.Context, id string) (*models.Building, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buildings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *MemoryBuildingRepo) List(_ context.Context) ([]models.Building, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Building, 0, len(m.buildings))
	for _, b := range m.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryBuildingRepo) Names(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make(map[string]string, len(m.buildings))
	for id, b := range m.buildings {
		names[id] = b.Name
	}
	return names, nil
}
