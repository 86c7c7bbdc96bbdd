// File: database/repository/reservation/transaction.go
package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"lendmark/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Insert admits res inside one transaction. Every admission for a building/room/date first bumps
// the matching reservation_slots document, so two concurrent transactions on the same slot hit a
// write conflict and at most one commits. The overlap re-check then runs on the transaction's
// snapshot, which includes every admission committed before it.
func (r *MongoReservationRepo) Insert(ctx context.Context, res *models.Reservation) error {
	if res.Status != models.StatusApproved {
		return ErrNotApproved
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	guard := bson.M{"_id": res.BuildingID + "|" + res.RoomID + "|" + res.Date}
	bump := bson.M{
		"$inc": bson.M{"admissions": 1},
		"$set": bson.M{"updatedAt": res.CreatedAt},
	}
	slot := bson.M{
		"buildingId": res.BuildingID,
		"roomId":     res.RoomID,
		"date":       res.Date,
		"status":     models.StatusApproved,
	}

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if _, err := r.slots.UpdateOne(sc, guard, bump, options.Update().SetUpsert(true)); err != nil {
			_ = sc.AbortTransaction(sc)
			return fmt.Errorf("slot guard update failed: %w", err)
		}

		cursor, err := r.coll.Find(sc, slot)
		if err != nil {
			_ = sc.AbortTransaction(sc)
			return fmt.Errorf("error finding reservations: %w", err)
		}
		var existing []models.Reservation
		if err := cursor.All(sc, &existing); err != nil {
			_ = sc.AbortTransaction(sc)
			return fmt.Errorf("error decoding reservations: %w", err)
		}
		if hit, ok := overlapping(existing, res); ok {
			_ = sc.AbortTransaction(sc)
			return fmt.Errorf("%w: %s", ErrOverlap, hit.ID)
		}

		if _, err := r.coll.InsertOne(sc, res); err != nil {
			_ = sc.AbortTransaction(sc)
			return fmt.Errorf("error creating reservation: %w", err)
		}
		return sc.CommitTransaction(sc)
	})
	if err != nil {
		return fmt.Errorf("admission transaction for %s failed: %w", guard["_id"], err)
	}
	return nil
}

// Transition applies one status move to ids inside a single transaction.
// The status guard in the filter makes a re-run after partial failure a no-op for rows already moved.
func (r *MongoReservationRepo) Transition(ctx context.Context, ids []string, from, to string, at time.Time) (int, error) {
	if err := CheckTransition(from, to); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	filter := bson.M{
		"id":     bson.M{"$in": ids},
		"status": from,
	}
	update := bson.M{
		"$set": bson.M{
			"status":    to,
			"updatedAt": at,
		},
	}

	var modified int64
	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		res, err := r.coll.UpdateMany(sc, filter, update)
		if err != nil {
			_ = sc.AbortTransaction(sc)
			return fmt.Errorf("batch status update failed: %w", err)
		}
		modified = res.ModifiedCount
		return sc.CommitTransaction(sc)
	}); err != nil {
		return 0, fmt.Errorf("transition %s -> %s transaction failed: %w", from, to, err)
	}

	r.logger.Debug("reservation batch transitioned",
		zap.String("from", from), zap.String("to", to),
		zap.Int("requested", len(ids)), zap.Int64("modified", modified))
	return int(modified), nil
}
