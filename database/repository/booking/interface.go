// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"clinicagenda/config"
	"clinicagenda/database"
	"clinicagenda/models"
)

// ErrDuplicateSlot is returned by Insert when another active booking already
// holds the same (date, time) pair. The partial unique index on the
// collection makes the check-and-insert atomic under concurrent inserts.
var ErrDuplicateSlot = errors.New("active booking already exists for this date and time")

// ErrNotFound is returned when no booking matches the given id.
var ErrNotFound = errors.New("booking not found")

// BookingRepository is the persistence contract for appointment bookings.
type BookingRepository interface {
	Insert(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	MarkCancelled(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]models.Booking, error)
	ActiveTimesByDate(ctx context.Context, date string) ([]string, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository and
// ensures its indexes exist.
func NewMongoBookingRepo() (BookingRepository, error) {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	repo := &mongoBookingRepo{
		coll: db.Collection("consultas"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}
