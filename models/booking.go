package models

import "time"

// Booking status values as persisted in the "consultas" collection.
const (
	BookingStatusActive    = "agendada"
	BookingStatusCancelled = "cancelada"
)

// Appointment modality values.
const (
	ModalityOnline   = "online"
	ModalityInPerson = "presencial"
)

// Booking represents a committed appointment. Bookings are never deleted;
// cancellation flips the status so the record survives for audit.
type Booking struct {
	ID          string     `bson:"id" json:"id"`                    // Unique booking identifier (UUID)
	Reference   string     `bson:"reference" json:"reference"`      // Short code quoted back to the patient
	SessionID   string     `bson:"chat_id" json:"sessionId"`        // Conversation that produced the booking
	PatientName string     `bson:"nome" json:"nome"`                // Full patient name
	Phone       string     `bson:"telefone" json:"telefone"`        // Contact phone
	Date        string     `bson:"data" json:"data"`                // Appointment date in "DD/MM/YYYY" format
	DateISO     string     `bson:"data_iso" json:"-"`               // Same date in "YYYY-MM-DD" for sortable queries
	Time        string     `bson:"horario" json:"horario"`          // Slot time in "HH:MM" format
	Modality    string     `bson:"tipo" json:"tipo"`                // "online" or "presencial"
	Status      string     `bson:"status" json:"status"`            // "agendada" or "cancelada"
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`     // Timestamp when the booking was committed
	CancelledAt *time.Time `bson:"cancelled_at,omitempty" json:"-"` // Set on soft-cancel
}
