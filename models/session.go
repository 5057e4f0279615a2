package models

import "time"

// Session states for the booking conversation.
const (
	StateGreeting             = "greeting"
	StateCollecting           = "collecting"
	StateAwaitingConfirmation = "awaiting_confirmation"
)

// Required booking fields, in the order they are requested from the patient.
const (
	FieldName     = "nome"
	FieldPhone    = "telefone"
	FieldDate     = "data"
	FieldTime     = "horario"
	FieldModality = "tipo"
)

// RequiredFields lists the booking fields in collection order.
var RequiredFields = []string{FieldName, FieldPhone, FieldDate, FieldTime, FieldModality}

// BookingFields accumulates the values collected so far for one booking.
type BookingFields struct {
	Name     string `json:"nome,omitempty"`
	Phone    string `json:"telefone,omitempty"`
	Date     string `json:"data,omitempty"`
	Time     string `json:"horario,omitempty"`
	Modality string `json:"tipo,omitempty"`
}

// Get returns the value stored for a required field key.
func (f *BookingFields) Get(field string) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldPhone:
		return f.Phone
	case FieldDate:
		return f.Date
	case FieldTime:
		return f.Time
	case FieldModality:
		return f.Modality
	}
	return ""
}

// Set stores a value for a required field key.
func (f *BookingFields) Set(field, value string) {
	switch field {
	case FieldName:
		f.Name = value
	case FieldPhone:
		f.Phone = value
	case FieldDate:
		f.Date = value
	case FieldTime:
		f.Time = value
	case FieldModality:
		f.Modality = value
	}
}

// Missing returns the required fields still without a value, in collection order.
func (f *BookingFields) Missing() []string {
	var missing []string
	for _, field := range RequiredFields {
		if f.Get(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Complete reports whether every required field has a value.
func (f *BookingFields) Complete() bool {
	return len(f.Missing()) == 0
}

// Session holds the per-conversation booking context between turns.
// It is owned exclusively by the session machine and stored as a JSON
// blob in Redis keyed by the conversation id.
type Session struct {
	ID     string        `json:"sessionId"`
	State  string        `json:"state"`
	Fields BookingFields `json:"fields"`
	// PendingDate holds a date resolved from a weekday name, waiting for
	// the patient to confirm it before it is accepted as final.
	PendingDate string    `json:"pendingDate,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewSession returns a fresh session in the greeting state.
func NewSession(id string) *Session {
	return &Session{ID: id, State: StateGreeting, UpdatedAt: time.Now()}
}
