// File: services/session/machine.go
package session

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"clinicagenda/models"
	"clinicagenda/services/booking"
	"clinicagenda/services/schedule"
)

// ReminderScheduler enqueues an appointment reminder after a commit.
// Optional; a nil scheduler disables reminders.
type ReminderScheduler interface {
	ScheduleReminder(booking *models.Booking) error
}

// Machine drives the per-conversation booking flow. Each session is
// logically single-threaded: turns for the same session id serialize on a
// keyed lock while distinct sessions proceed in parallel.
type Machine struct {
	store     Store
	ledger    booking.Ledger
	schedule  *schedule.Engine
	reminders ReminderScheduler
	logger    *zap.Logger

	locks sync.Map // sessionID -> *sync.Mutex
	clock func() time.Time
}

// NewMachine constructs the session state machine.
func NewMachine(store Store, ledger booking.Ledger, engine *schedule.Engine, reminders ReminderScheduler, logger *zap.Logger) *Machine {
	return &Machine{
		store:     store,
		ledger:    ledger,
		schedule:  engine,
		reminders: reminders,
		logger:    logger,
		clock:     time.Now,
	}
}

func (m *Machine) lock(sessionID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// HandleTurn processes one structured event for a session and returns the
// reply to relay plus the resulting state.
func (m *Machine) HandleTurn(ctx context.Context, sessionID string, event models.TurnEvent) (models.TurnResult, error) {
	mu := m.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return models.TurnResult{}, err
	}

	switch event.Kind {
	case models.EventReset:
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return models.TurnResult{}, err
		}
		return models.TurnResult{Reply: resetMessage(), State: models.StateGreeting}, nil
	case models.EventOutOfScope:
		// Fixed redirect; state and collected fields stay untouched.
		return models.TurnResult{Reply: clinicalRedirectMessage(), State: sess.State}, nil
	}

	switch sess.State {
	case models.StateGreeting:
		return m.handleGreeting(ctx, sess, event)
	case models.StateCollecting:
		return m.handleCollecting(ctx, sess, event)
	case models.StateAwaitingConfirmation:
		return m.handleAwaitingConfirmation(ctx, sess, event)
	default:
		m.logger.Warn("session in unknown state, restarting",
			zap.String("sessionId", sessionID), zap.String("state", sess.State))
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return models.TurnResult{}, err
		}
		return models.TurnResult{Reply: greetingMessage(m.schedule.Blocks()), State: models.StateCollecting}, nil
	}
}

// ResetSession clears a session back to the greeting state.
func (m *Machine) ResetSession(ctx context.Context, sessionID string) error {
	mu := m.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return m.store.Delete(ctx, sessionID)
}

// handleGreeting welcomes the patient and explains the required fields.
// Field values already present in the first message are absorbed so they
// are not asked for again.
func (m *Machine) handleGreeting(ctx context.Context, sess *models.Session, event models.TurnEvent) (models.TurnResult, error) {
	sess.State = models.StateCollecting
	if event.Kind == models.EventFields {
		// Absorb silently; the greeting already lists what is needed.
		m.applyFields(sess, event.Fields)
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return models.TurnResult{}, err
	}
	return models.TurnResult{Reply: greetingMessage(m.schedule.Blocks()), State: sess.State}, nil
}

func (m *Machine) handleCollecting(ctx context.Context, sess *models.Session, event models.TurnEvent) (models.TurnResult, error) {
	switch event.Kind {
	case models.EventConfirm:
		if sess.PendingDate != "" {
			sess.Fields.Date = sess.PendingDate
			sess.PendingDate = ""
			return m.advanceCollecting(ctx, sess)
		}
		return m.result(sess, askMissingMessage(sess.Fields.Missing())), nil

	case models.EventDeny:
		if sess.PendingDate != "" {
			sess.PendingDate = ""
			if err := m.store.Save(ctx, sess); err != nil {
				return models.TurnResult{}, err
			}
			return m.result(sess, askMissingMessage([]string{models.FieldDate})), nil
		}
		return m.result(sess, askMissingMessage(sess.Fields.Missing())), nil

	case models.EventFields:
		if reply, rejected := m.applyFields(sess, event.Fields); rejected {
			// Out-of-policy value; state is unchanged but any valid fields
			// extracted from the same message are kept.
			if err := m.store.Save(ctx, sess); err != nil {
				return models.TurnResult{}, err
			}
			return m.result(sess, reply), nil
		} else if reply != "" {
			if err := m.store.Save(ctx, sess); err != nil {
				return models.TurnResult{}, err
			}
			return m.result(sess, reply), nil
		}
		return m.advanceCollecting(ctx, sess)

	default: // EventMessage: free text treated as a field-update attempt.
		if field, value := m.inferFallbackField(sess, event.Text); field != "" {
			sess.Fields.Set(field, value)
			return m.advanceCollecting(ctx, sess)
		}
		return m.result(sess, askMissingMessage(sess.Fields.Missing())), nil
	}
}

// advanceCollecting saves the session and either moves to confirmation or
// asks for what is still missing.
func (m *Machine) advanceCollecting(ctx context.Context, sess *models.Session) (models.TurnResult, error) {
	if sess.Fields.Complete() {
		sess.State = models.StateAwaitingConfirmation
		if err := m.store.Save(ctx, sess); err != nil {
			return models.TurnResult{}, err
		}
		return m.result(sess, confirmPromptMessage(&sess.Fields)), nil
	}
	sess.State = models.StateCollecting
	if err := m.store.Save(ctx, sess); err != nil {
		return models.TurnResult{}, err
	}
	return m.result(sess, askMissingMessage(sess.Fields.Missing())), nil
}

func (m *Machine) handleAwaitingConfirmation(ctx context.Context, sess *models.Session, event models.TurnEvent) (models.TurnResult, error) {
	switch event.Kind {
	case models.EventConfirm:
		return m.commit(ctx, sess)

	case models.EventFields:
		// Edits drop back to collecting with the other fields preserved.
		sess.State = models.StateCollecting
		if reply, rejected := m.applyFields(sess, event.Fields); rejected {
			sess.State = models.StateAwaitingConfirmation
			return m.result(sess, reply), nil
		} else if reply != "" {
			if err := m.store.Save(ctx, sess); err != nil {
				return models.TurnResult{}, err
			}
			return m.result(sess, reply), nil
		}
		return m.advanceCollecting(ctx, sess)

	default:
		// Non-affirmative, non-editing replies re-ask without losing state.
		return m.result(sess, reconfirmMessage(&sess.Fields)), nil
	}
}

// commit invokes the ledger. The ledger is the single arbiter: losing the
// slot race here drops only the time field and re-surfaces availability.
func (m *Machine) commit(ctx context.Context, sess *models.Session) (models.TurnResult, error) {
	record, err := m.ledger.Reserve(ctx, booking.ReserveRequest{
		SessionID:   sess.ID,
		PatientName: sess.Fields.Name,
		Phone:       sess.Fields.Phone,
		Date:        sess.Fields.Date,
		Time:        sess.Fields.Time,
		Modality:    sess.Fields.Modality,
	})
	if errors.Is(err, booking.ErrSlotUnavailable) {
		date := sess.Fields.Date
		sess.Fields.Time = ""
		sess.State = models.StateCollecting
		if saveErr := m.store.Save(ctx, sess); saveErr != nil {
			return models.TurnResult{}, saveErr
		}
		available, availErr := m.schedule.AvailableSlots(ctx, date)
		if availErr != nil {
			m.logger.Warn("failed to list availability after lost slot race", zap.Error(availErr))
		}
		return m.result(sess, slotTakenMessage(date, available)), nil
	}
	if err != nil {
		// Session state stays untouched so the confirmation can be retried.
		m.logger.Error("reservation failed", zap.String("sessionId", sess.ID), zap.Error(err))
		return m.result(sess, retryLaterMessage()), nil
	}

	if m.reminders != nil {
		if remErr := m.reminders.ScheduleReminder(record); remErr != nil {
			m.logger.Warn("failed to schedule reminder",
				zap.String("bookingId", record.ID), zap.Error(remErr))
		}
	}

	if err := m.store.Delete(ctx, sess.ID); err != nil {
		return models.TurnResult{}, err
	}
	return models.TurnResult{Reply: bookedMessage(record), State: models.StateGreeting}, nil
}

// applyFields applies extracted field values to the session. Structured
// field events are explicit, so they may overwrite earlier values.
// It returns a non-empty reply when a value needs follow-up (weekday
// confirmation, invalid date) and rejected=true when the value is
// out-of-policy and nothing was changed.
func (m *Machine) applyFields(sess *models.Session, fields map[string]string) (reply string, rejected bool) {
	for _, field := range models.RequiredFields {
		value, ok := fields[field]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		value = strings.TrimSpace(value)

		switch field {
		case models.FieldDate:
			if r, rej := m.applyDate(sess, value); r != "" || rej {
				return r, rej
			}
		case models.FieldTime:
			if !m.schedule.InGrid(value) {
				return outOfHoursMessage(m.schedule.Grid()), true
			}
			sess.Fields.Time = value
		case models.FieldModality:
			normalized := strings.ToLower(value)
			if normalized != models.ModalityOnline && normalized != models.ModalityInPerson {
				return invalidModalityMessage(), true
			}
			sess.Fields.Modality = normalized
		default:
			sess.Fields.Set(field, value)
		}
	}
	return "", false
}

// applyDate handles the date field: a literal DD/MM/YYYY value or a weekday
// name resolved to the next matching date, which then needs confirmation.
func (m *Machine) applyDate(sess *models.Session, value string) (reply string, rejected bool) {
	if wd, ok := schedule.ParseWeekday(value); ok {
		if wd == time.Saturday || wd == time.Sunday {
			return weekendMessage(m.schedule.Blocks()), true
		}
		resolved := schedule.NextWeekday(m.clock(), wd)
		sess.PendingDate = schedule.FormatDate(resolved)
		return pendingDateMessage(schedule.WeekdayName(wd), sess.PendingDate), false
	}

	business, err := schedule.IsBusinessDay(value)
	if err != nil {
		return invalidDateMessage(), true
	}
	if !business {
		return weekendMessage(m.schedule.Blocks()), true
	}
	sess.Fields.Date = value
	sess.PendingDate = ""
	return "", false
}

var digitsOnly = regexp.MustCompile(`^[\d\s()+-]{8,}$`)

// inferFallbackField maps free text onto the first missing field it can
// plausibly fill: a name while the name is missing, a phone-shaped string
// while the phone is missing.
func (m *Machine) inferFallbackField(sess *models.Session, text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	missing := sess.Fields.Missing()
	if len(missing) == 0 {
		return "", ""
	}
	switch missing[0] {
	case models.FieldName:
		if !digitsOnly.MatchString(text) && len([]rune(text)) >= 3 {
			return models.FieldName, text
		}
	case models.FieldPhone:
		if digitsOnly.MatchString(text) {
			return models.FieldPhone, text
		}
	}
	return "", ""
}

// result pairs a reply with the session's current state.
func (m *Machine) result(sess *models.Session, reply string) models.TurnResult {
	return models.TurnResult{Reply: reply, State: sess.State}
}
