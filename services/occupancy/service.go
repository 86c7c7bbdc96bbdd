package occupancy

import (
	"context"
	"fmt"
	"time"

	buildingRepo "lendmark/database/repository/building"
	reservationRepo "lendmark/database/repository/reservation"
	"lendmark/models"
	"lendmark/services/period"

	"go.uber.org/zap"
)

// OccupancyService serves occupancy figures for the map.
type OccupancyService interface {
	ForBuilding(ctx context.Context, buildingID, date string) (*models.BuildingOccupancy, error)
	All(ctx context.Context, date string) ([]models.BuildingOccupancy, error)
}

// DefaultOccupancyService reads buildings and the day's approved reservations.
type DefaultOccupancyService struct {
	buildings    buildingRepo.BuildingRepository
	reservations reservationRepo.Reader
	cache        Cache
	loc          *time.Location
	logger       *zap.Logger
}

// NewDefaultOccupancyService wires the service. cache may be nil.
func NewDefaultOccupancyService(
	buildings buildingRepo.BuildingRepository,
	reservations reservationRepo.Reader,
	cache Cache,
	loc *time.Location,
	logger *zap.Logger,
) *DefaultOccupancyService {
	if loc == nil {
		loc = time.Local
	}
	return &DefaultOccupancyService{
		buildings:    buildings,
		reservations: reservations,
		cache:        cache,
		loc:          loc,
		logger:       logger,
	}
}

// ForBuilding computes one building's occupancy on date.
func (s *DefaultOccupancyService) ForBuilding(ctx context.Context, buildingID, date string) (*models.BuildingOccupancy, error) {
	today, err := period.ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}
	b, err := s.buildings.GetByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservations.FindByDate(ctx, date, buildingID, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("error loading reservations for %s on %s: %w", buildingID, date, err)
	}
	occ := snapshot(*b, reservations, today)
	return &occ, nil
}

// All computes occupancy for every building on date, ordered by building code.
func (s *DefaultOccupancyService) All(ctx context.Context, date string) ([]models.BuildingOccupancy, error) {
	today, err := period.ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, date)
		if err != nil {
			s.logger.Warn("occupancy cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	buildings, err := s.buildings.List(ctx)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservations.FindByDate(ctx, date, "", models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("error loading reservations on %s: %w", date, err)
	}

	byBuilding := make(map[string][]models.Reservation)
	for _, r := range reservations {
		byBuilding[r.BuildingID] = append(byBuilding[r.BuildingID], r)
	}

	out := make([]models.BuildingOccupancy, 0, len(buildings))
	for _, b := range buildings {
		out = append(out, snapshot(b, byBuilding[b.ID], today))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, date, out); err != nil {
			s.logger.Warn("occupancy cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func snapshot(b models.Building, reservations []models.Reservation, today time.Time) models.BuildingOccupancy {
	pct := ComputeOccupancy(b, reservations, today)
	return models.BuildingOccupancy{
		BuildingID: b.ID,
		Name:       b.Name,
		Code:       b.Code,
		Lat:        b.Lat,
		Lng:        b.Lng,
		Date:       period.FormatDate(today),
		Percent:    pct,
		Level:      Level(pct),
	}
}
