package booking

import "errors"

// ErrSlotUnavailable is returned when the requested (date, time) pair is not
// bookable at the instant of reservation: the slot is taken, outside the
// grid, on a weekend, or the date is malformed.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ErrBookingNotFound is returned by Cancel for unknown booking ids.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPersistenceUnavailable wraps storage failures. The current turn fails
// but session state is left untouched so it can be retried.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")
