package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingRepo "clinicagenda/database/repository/booking"
	"clinicagenda/models"
	"clinicagenda/services/booking"
	"clinicagenda/services/schedule"
)

// Monday, 16/03/2026. All weekday resolution in these tests is relative to it.
var testNow = time.Date(2026, 3, 16, 9, 0, 0, 0, time.Local)

type machineFixture struct {
	machine *Machine
	store   Store
	repo    bookingRepo.BookingRepository
	engine  *schedule.Engine
}

func newFixture(t *testing.T) *machineFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)

	repo := bookingRepo.NewMemoryBookingRepo()
	engine, err := schedule.NewEngine("08:00-12:00,14:00-18:00", repo, zap.NewNop())
	require.NoError(t, err)

	ledger := &booking.DefaultLedger{Repo: repo, Schedule: engine, Logger: zap.NewNop()}
	machine := NewMachine(store, ledger, engine, nil, zap.NewNop())
	machine.clock = func() time.Time { return testNow }

	return &machineFixture{machine: machine, store: store, repo: repo, engine: engine}
}

func (f *machineFixture) turn(t *testing.T, sessionID string, event models.TurnEvent) models.TurnResult {
	t.Helper()
	result, err := f.machine.HandleTurn(context.Background(), sessionID, event)
	require.NoError(t, err)
	return result
}

func fieldsEvent(pairs map[string]string) models.TurnEvent {
	return models.TurnEvent{Kind: models.EventFields, Fields: pairs}
}

func messageEvent(text string) models.TurnEvent {
	return models.TurnEvent{Kind: models.EventMessage, Text: text}
}

// collectAll walks a session up to the confirmation prompt.
func (f *machineFixture) collectAll(t *testing.T, sessionID string) {
	t.Helper()
	f.turn(t, sessionID, messageEvent("oi"))
	f.turn(t, sessionID, messageEvent("Maria Silva"))
	f.turn(t, sessionID, fieldsEvent(map[string]string{models.FieldPhone: "11 98765-4321"}))
	f.turn(t, sessionID, fieldsEvent(map[string]string{models.FieldDate: "20/03/2026"}))
	f.turn(t, sessionID, fieldsEvent(map[string]string{models.FieldTime: "10:00"}))
	result := f.turn(t, sessionID, fieldsEvent(map[string]string{models.FieldModality: "online"}))
	require.Equal(t, models.StateAwaitingConfirmation, result.State)
}

func TestGreetingListsHoursAndRequiredFields(t *testing.T) {
	f := newFixture(t)

	result := f.turn(t, "chat-1", messageEvent("oi"))
	assert.Equal(t, models.StateCollecting, result.State)
	assert.Contains(t, result.Reply, "segunda a sexta")
	assert.Contains(t, result.Reply, "das 08:00 às 12:00")
	assert.Contains(t, result.Reply, "Nome completo")
	assert.Contains(t, result.Reply, "Tipo (online ou presencial)")
}

func TestCollectingAsksOnlyForMissingFields(t *testing.T) {
	f := newFixture(t)
	f.turn(t, "chat-1", messageEvent("oi"))

	result := f.turn(t, "chat-1", fieldsEvent(map[string]string{
		models.FieldName:  "Maria Silva",
		models.FieldPhone: "11 98765-4321",
	}))
	assert.Equal(t, models.StateCollecting, result.State)
	assert.NotContains(t, result.Reply, "Nome completo")
	assert.NotContains(t, result.Reply, "Telefone")
	assert.Contains(t, result.Reply, "Data")
}

func TestFreeTextFillsNameThenPhone(t *testing.T) {
	f := newFixture(t)
	f.turn(t, "chat-1", messageEvent("oi"))

	f.turn(t, "chat-1", messageEvent("Maria Silva"))
	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", sess.Fields.Name)

	f.turn(t, "chat-1", messageEvent("11987654321"))
	sess, err = f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "11987654321", sess.Fields.Phone)
}

func TestRemainingFieldsReachConfirmation(t *testing.T) {
	f := newFixture(t)
	f.turn(t, "chat-1", messageEvent("oi"))
	f.turn(t, "chat-1", fieldsEvent(map[string]string{
		models.FieldName:  "Maria Silva",
		models.FieldPhone: "11 98765-4321",
	}))

	result := f.turn(t, "chat-1", fieldsEvent(map[string]string{
		models.FieldDate:     "20/03/2026",
		models.FieldTime:     "10:00",
		models.FieldModality: "online",
	}))
	assert.Equal(t, models.StateAwaitingConfirmation, result.State)
	assert.Contains(t, result.Reply, "Maria Silva")
	assert.Contains(t, result.Reply, "11 98765-4321")
	assert.Contains(t, result.Reply, "20/03/2026")
	assert.Contains(t, result.Reply, "10:00")
	assert.Contains(t, result.Reply, "online")
}

func TestNonAffirmativeReplyReasksWithoutLosingFields(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	result := f.turn(t, "chat-1", messageEvent("hmm, não sei"))
	assert.Equal(t, models.StateAwaitingConfirmation, result.State)
	assert.Contains(t, result.Reply, "confirmo")
	assert.Contains(t, result.Reply, "Maria Silva")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.True(t, sess.Fields.Complete())
}

func TestEditDuringConfirmationPreservesOtherFields(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	result := f.turn(t, "chat-1", fieldsEvent(map[string]string{models.FieldTime: "15:00"}))
	// Still complete after the edit, so confirmation is asked again.
	assert.Equal(t, models.StateAwaitingConfirmation, result.State)
	assert.Contains(t, result.Reply, "15:00")
	assert.Contains(t, result.Reply, "Maria Silva")
}

func TestConfirmCommitsBookingAndClearsSession(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	result := f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventConfirm, Text: "confirmo"})
	assert.Equal(t, models.StateGreeting, result.State)
	assert.Contains(t, result.Reply, "✅ Consulta agendada com sucesso!")
	assert.Contains(t, result.Reply, "Maria Silva")
	assert.Contains(t, result.Reply, "20/03/2026")
	assert.Contains(t, result.Reply, "10:00")
	assert.Contains(t, result.Reply, "online")
	assert.Contains(t, result.Reply, "Código:")

	slots, err := f.engine.AvailableSlots(context.Background(), "20/03/2026")
	require.NoError(t, err)
	assert.NotContains(t, slots, "10:00")

	// The session restarted; the next message is greeted fresh.
	next := f.turn(t, "chat-1", messageEvent("oi de novo"))
	assert.Contains(t, next.Reply, "Olá!")
}

func TestLostSlotRaceDropsOnlyTime(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	// Another conversation grabs the slot before confirmation.
	iso, err := schedule.ToISO("20/03/2026")
	require.NoError(t, err)
	require.NoError(t, f.repo.Insert(context.Background(), &models.Booking{
		ID:      "rival",
		Date:    "20/03/2026",
		DateISO: iso,
		Time:    "10:00",
		Status:  models.BookingStatusActive,
	}))

	result := f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventConfirm})
	assert.Equal(t, models.StateCollecting, result.State)
	assert.Contains(t, result.Reply, "não está mais disponível")
	assert.Contains(t, result.Reply, "09:00")
	assert.NotContains(t, result.Reply, "10:00\n")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Empty(t, sess.Fields.Time)
	assert.Equal(t, "Maria Silva", sess.Fields.Name)
	assert.Equal(t, "20/03/2026", sess.Fields.Date)
}

func TestWeekendDateRedirectsWithoutClearingFields(t *testing.T) {
	f := newFixture(t)
	f.turn(t, "chat-1", messageEvent("oi"))
	f.turn(t, "chat-1", messageEvent("Maria Silva"))

	result := f.turn(t, "chat-1", fieldsEvent(map[string]string{models.FieldDate: "sábado"}))
	assert.Equal(t, models.StateCollecting, result.State)
	assert.Contains(t, result.Reply, "segunda a sexta")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", sess.Fields.Name)
	assert.Empty(t, sess.Fields.Date)
}

func TestWeekdayNameResolvesToNextDateAndAsksConfirmation(t *testing.T) {
	f := newFixture(t)
	f.turn(t, "chat-1", messageEvent("oi"))

	result := f.turn(t, "chat-1", fieldsEvent(map[string]string{models.FieldDate: "sexta"}))
	assert.Contains(t, result.Reply, "20/03/2026")

	// Confirming the resolved date accepts it as final.
	f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventConfirm, Text: "sim"})
	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "20/03/2026", sess.Fields.Date)
	assert.Empty(t, sess.PendingDate)
}

func TestDenyPendingDateAsksForDateAgain(t *testing.T) {
	f := newFixture(t)
	f.turn(t, "chat-1", messageEvent("oi"))
	f.turn(t, "chat-1", fieldsEvent(map[string]string{models.FieldDate: "quarta"}))

	result := f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventDeny, Text: "não"})
	assert.Contains(t, result.Reply, "Data")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Empty(t, sess.PendingDate)
	assert.Empty(t, sess.Fields.Date)
}

func TestOutOfHoursTimeRedirects(t *testing.T) {
	f := newFixture(t)
	f.turn(t, "chat-1", messageEvent("oi"))

	result := f.turn(t, "chat-1", fieldsEvent(map[string]string{models.FieldTime: "13:00"}))
	assert.Contains(t, result.Reply, "fora do nosso expediente")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Empty(t, sess.Fields.Time)
}

func TestOutOfScopeKeepsStateAndFields(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	result := f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventOutOfScope, Text: "qual remédio devo tomar?"})
	assert.Equal(t, models.StateAwaitingConfirmation, result.State)
	assert.Contains(t, result.Reply, "diagnósticos")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.True(t, sess.Fields.Complete())
}

func TestResetClearsSessionFromAnyState(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	result := f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventReset, Text: "recomeçar"})
	assert.Equal(t, models.StateGreeting, result.State)

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateGreeting, sess.State)
	assert.Empty(t, sess.Fields.Name)
}

func TestResetDoesNotAffectCommittedBookings(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")
	f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventConfirm})

	require.NoError(t, f.machine.ResetSession(context.Background(), "chat-1"))

	active, err := f.repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// failingRepo simulates a storage outage.
type failingRepo struct {
	bookingRepo.BookingRepository
}

func (failingRepo) Insert(context.Context, *models.Booking) error {
	return errors.New("connection refused")
}

func TestPersistenceFailureLeavesSessionRetryable(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	f.machine.ledger = &booking.DefaultLedger{
		Repo:     failingRepo{BookingRepository: f.repo},
		Schedule: f.engine,
		Logger:   zap.NewNop(),
	}

	result := f.turn(t, "chat-1", models.TurnEvent{Kind: models.EventConfirm})
	assert.Equal(t, models.StateAwaitingConfirmation, result.State)
	assert.Contains(t, result.Reply, "tentar novamente")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingConfirmation, sess.State)
	assert.True(t, sess.Fields.Complete())
}

func TestDistinctSessionsAreIndependent(t *testing.T) {
	f := newFixture(t)
	f.collectAll(t, "chat-1")

	other := f.turn(t, "chat-2", messageEvent("olá"))
	assert.Contains(t, other.Reply, "Olá!")

	sess, err := f.store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingConfirmation, sess.State)
}
