// File: database/repository/booking/memory.go
package bookingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinicagenda/models"
)

// memoryBookingRepo is an in-memory BookingRepository used by tests and
// local development. It honors the same uniqueness contract as the Mongo
// implementation: at most one active booking per (date, time).
type memoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

// NewMemoryBookingRepo constructs an in-memory BookingRepository.
func NewMemoryBookingRepo() BookingRepository {
	return &memoryBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memoryBookingRepo) Insert(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.Status == models.BookingStatusActive && b.Date == booking.Date && b.Time == booking.Time {
			return ErrDuplicateSlot
		}
	}
	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *memoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *memoryBookingRepo) MarkCancelled(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != models.BookingStatusCancelled {
		now := time.Now()
		b.Status = models.BookingStatusCancelled
		b.CancelledAt = &now
	}
	return nil
}

func (r *memoryBookingRepo) ListActive(_ context.Context) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusActive {
			active = append(active, *b)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].DateISO != active[j].DateISO {
			return active[i].DateISO < active[j].DateISO
		}
		return active[i].Time < active[j].Time
	})
	return active, nil
}

func (r *memoryBookingRepo) ActiveTimesByDate(_ context.Context, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var times []string
	for _, b := range r.bookings {
		if b.Status == models.BookingStatusActive && b.Date == date {
			times = append(times, b.Time)
		}
	}
	sort.Strings(times)
	return times, nil
}
