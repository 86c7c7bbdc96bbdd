// File: database/repository/reservation/reservation_mongo.go
package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lendmark/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoReservationRepo implements Repository on the reservations collection.
type MongoReservationRepo struct {
	coll    *mongo.Collection
	slots   *mongo.Collection
	timeout time.Duration
	logger  *zap.Logger
}

// NewMongoReservationRepo constructs a MongoReservationRepo and ensures its indexes.
func NewMongoReservationRepo(db *mongo.Database, timeout time.Duration, logger *zap.Logger) (*MongoReservationRepo, error) {
	repo := &MongoReservationRepo{
		coll:    db.Collection("reservations"),
		slots:   db.Collection("reservation_slots"),
		timeout: timeout,
		logger:  logger,
	}
	if err := repo.EnsureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

// EnsureIndexes creates the indexes backing the booking, sweep and query paths.
func (r *MongoReservationRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Admission check: approved rows for one room on one date.
		{
			Keys:    bson.D{{Key: "buildingId", Value: 1}, {Key: "roomId", Value: 1}, {Key: "date", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("building_room_date_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("status_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("status_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("user_date_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create reservation indexes: %w", err)
	}
	return nil
}

func (r *MongoReservationRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("error finding reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding reservations: %w", err)
	}
	return out, nil
}

// GetByID retrieves a reservation by its id.
func (r *MongoReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var res models.Reservation
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching reservation %s: %w", id, err)
	}
	return &res, nil
}

// FindByUser returns a user's reservations, newest date first.
func (r *MongoReservationRepo) FindByUser(ctx context.Context, userID, status string) ([]models.Reservation, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "periodStart", Value: 1}})
	return r.find(ctx, filter, opts)
}

// FindByDate returns the reservations on one date.
func (r *MongoReservationRepo) FindByDate(ctx context.Context, date, buildingID, status string) ([]models.Reservation, error) {
	filter := bson.M{"date": date}
	if buildingID != "" {
		filter["buildingId"] = buildingID
	}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

// FindUserIDsByDate returns the distinct user ids with a reservation in status on date.
func (r *MongoReservationRepo) FindUserIDsByDate(ctx context.Context, date, status string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.coll.Distinct(ctx, "userId", bson.M{"date": date, "status": status})
	if err != nil {
		return nil, fmt.Errorf("error listing users for %s: %w", date, err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// FindApprovedForSlot returns approved reservations for one room on one date.
func (r *MongoReservationRepo) FindApprovedForSlot(ctx context.Context, buildingID, roomID, date string) ([]models.Reservation, error) {
	return r.find(ctx, bson.M{
		"buildingId": buildingID,
		"roomId":     roomID,
		"date":       date,
		"status":     models.StatusApproved,
	})
}

// FindApprovedOnOrBefore relies on "2006-01-02" dates sorting lexicographically. Rows whose date
// is not in that shape are returned too so the sweeper can report them.
func (r *MongoReservationRepo) FindApprovedOnOrBefore(ctx context.Context, date string) ([]models.Reservation, error) {
	return r.find(ctx, bson.M{
		"status": models.StatusApproved,
		"$or": bson.A{
			bson.M{"date": bson.M{"$lte": date}},
			bson.M{"date": bson.M{"$not": primitive.Regex{Pattern: `^\d{4}-\d{2}-\d{2}$`}}},
		},
	})
}

// FindFinishedCreatedBefore returns finished reservations created before cutoff.
func (r *MongoReservationRepo) FindFinishedCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	return r.find(ctx, bson.M{
		"status":    models.StatusFinished,
		"createdAt": bson.M{"$lt": cutoff},
	})
}
