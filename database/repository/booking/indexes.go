// File: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clinicagenda/models"
)

// EnsureIndexes creates the necessary indexes on the consultas collection.
// The partial unique index on (data, horario) restricted to active bookings
// is what enforces the one-active-booking-per-slot invariant: concurrent
// inserts for the same slot race on the index and exactly one wins.
func (r *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on booking ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Partial unique index: at most one active booking per (date, time)
		{
			Keys: bson.D{{Key: "data", Value: 1}, {Key: "horario", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_active_slot").
				SetPartialFilterExpression(bson.M{"status": models.BookingStatusActive}),
		},
		// Sorted listing for the admin view
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "data_iso", Value: 1}, {Key: "horario", Value: 1}},
			Options: options.Index().SetName("status_date_time_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
