// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clinicagenda/models"
)

// ListActive returns every active booking ordered by date then time.
func (r *mongoBookingRepo) ListActive(ctx context.Context) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"status": models.BookingStatusActive}
	opts := options.Find().SetSort(bson.D{{Key: "data_iso", Value: 1}, {Key: "horario", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// ActiveTimesByDate returns the slot times already held by active bookings
// on the given date.
func (r *mongoBookingRepo) ActiveTimesByDate(ctx context.Context, date string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"data": date, "status": models.BookingStatusActive}
	opts := options.Find().SetProjection(bson.M{"horario": 1})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booked times: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Time string `bson:"horario"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding booked times: %w", err)
	}

	times := make([]string, 0, len(docs))
	for _, d := range docs {
		times = append(times, d.Time)
	}
	return times, nil
}
