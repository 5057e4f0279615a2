// File: services/booking/ledger.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "clinicagenda/database/repository/booking"
	"clinicagenda/models"
	"clinicagenda/services/schedule"
)

// ReserveRequest carries the confirmed field snapshot of one session.
type ReserveRequest struct {
	SessionID   string
	PatientName string
	Phone       string
	Date        string // "DD/MM/YYYY"
	Time        string // "HH:MM"
	Modality    string // "online" or "presencial"
}

// Ledger is the authoritative store of bookings. It is the single arbiter of
// the one-active-booking-per-slot invariant; the availability resolver never
// decides a commit.
type Ledger interface {
	Reserve(ctx context.Context, req ReserveRequest) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID string) error
	ListActive(ctx context.Context) ([]models.Booking, error)
}

// DefaultLedger implements Ledger on top of the booking repository.
type DefaultLedger struct {
	Repo     bookingRepo.BookingRepository
	Schedule *schedule.Engine
	Logger   *zap.Logger
}

// Reserve validates the requested slot against the calendar rules and then
// inserts atomically. Losing an insert race against another reservation for
// the same (date, time) surfaces as ErrSlotUnavailable, same as picking a
// slot that was never free.
func (l *DefaultLedger) Reserve(ctx context.Context, req ReserveRequest) (*models.Booking, error) {
	business, err := schedule.IsBusinessDay(req.Date)
	if err != nil || !business {
		return nil, ErrSlotUnavailable
	}
	if !l.Schedule.InGrid(req.Time) {
		return nil, ErrSlotUnavailable
	}

	iso, err := schedule.ToISO(req.Date)
	if err != nil {
		return nil, ErrSlotUnavailable
	}

	id := uuid.New().String()
	record := &models.Booking{
		ID:          id,
		Reference:   bookingReference(id),
		SessionID:   req.SessionID,
		PatientName: req.PatientName,
		Phone:       req.Phone,
		Date:        req.Date,
		DateISO:     iso,
		Time:        req.Time,
		Modality:    req.Modality,
		Status:      models.BookingStatusActive,
		CreatedAt:   time.Now(),
	}

	if err := l.Repo.Insert(ctx, record); err != nil {
		if errors.Is(err, bookingRepo.ErrDuplicateSlot) {
			l.Logger.Info("reservation lost slot race",
				zap.String("date", req.Date), zap.String("time", req.Time))
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}

	l.Logger.Info("booking committed",
		zap.String("bookingId", record.ID),
		zap.String("reference", record.Reference),
		zap.String("date", record.Date),
		zap.String("time", record.Time))
	return record, nil
}

// Cancel soft-cancels a booking. Cancelling an already-cancelled booking is
// a no-op success.
func (l *DefaultLedger) Cancel(ctx context.Context, bookingID string) error {
	if err := l.Repo.MarkCancelled(ctx, bookingID); err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return nil
}

// ListActive returns active bookings ordered by date then time.
func (l *DefaultLedger) ListActive(ctx context.Context) ([]models.Booking, error) {
	bookings, err := l.Repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return bookings, nil
}

// bookingReference derives the short confirmation code quoted to patients
// from the booking id.
func bookingReference(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}
