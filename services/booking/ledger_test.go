package booking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingRepo "clinicagenda/database/repository/booking"
	"clinicagenda/models"
	"clinicagenda/services/schedule"
)

func newTestLedger(t *testing.T) *DefaultLedger {
	t.Helper()
	repo := bookingRepo.NewMemoryBookingRepo()
	engine, err := schedule.NewEngine("08:00-12:00,14:00-18:00", repo, zap.NewNop())
	require.NoError(t, err)
	return &DefaultLedger{Repo: repo, Schedule: engine, Logger: zap.NewNop()}
}

func validRequest() ReserveRequest {
	return ReserveRequest{
		SessionID:   "chat-1",
		PatientName: "Maria Silva",
		Phone:       "11 98765-4321",
		Date:        "20/03/2026", // Friday
		Time:        "10:00",
		Modality:    models.ModalityOnline,
	}
}

func TestReserveSuccess(t *testing.T) {
	ledger := newTestLedger(t)

	record, err := ledger.Reserve(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Len(t, record.Reference, 8)
	assert.Equal(t, models.BookingStatusActive, record.Status)
	assert.Equal(t, "2026-03-20", record.DateISO)

	slots, err := ledger.Schedule.AvailableSlots(context.Background(), "20/03/2026")
	require.NoError(t, err)
	assert.NotContains(t, slots, "10:00")
}

func TestReserveRejectsInvalidSlots(t *testing.T) {
	ledger := newTestLedger(t)

	weekend := validRequest()
	weekend.Date = "21/03/2026" // Saturday
	_, err := ledger.Reserve(context.Background(), weekend)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	malformed := validRequest()
	malformed.Date = "someday"
	_, err = ledger.Reserve(context.Background(), malformed)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	offGrid := validRequest()
	offGrid.Time = "13:00"
	_, err = ledger.Reserve(context.Background(), offGrid)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestReserveRejectsTakenSlot(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.Reserve(context.Background(), validRequest())
	require.NoError(t, err)

	second := validRequest()
	second.SessionID = "chat-2"
	second.PatientName = "João Souza"
	_, err = ledger.Reserve(context.Background(), second)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestReserveRaceExactlyOneWins(t *testing.T) {
	ledger := newTestLedger(t)

	const contenders = 2
	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			_, errs[i] = ledger.Reserve(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case assert.ErrorIs(t, err, ErrSlotUnavailable):
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	active, err := ledger.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCancelIdempotent(t *testing.T) {
	ledger := newTestLedger(t)

	record, err := ledger.Reserve(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, ledger.Cancel(context.Background(), record.ID))
	require.NoError(t, ledger.Cancel(context.Background(), record.ID))

	active, err := ledger.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	// The freed slot is bookable again.
	_, err = ledger.Reserve(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestCancelUnknownBooking(t *testing.T) {
	ledger := newTestLedger(t)

	err := ledger.Cancel(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListActiveOrderedByDateThenTime(t *testing.T) {
	ledger := newTestLedger(t)

	for _, pair := range []struct{ date, slot string }{
		{"23/03/2026", "09:00"}, // Monday
		{"20/03/2026", "15:00"},
		{"20/03/2026", "08:00"},
	} {
		req := validRequest()
		req.Date = pair.date
		req.Time = pair.slot
		_, err := ledger.Reserve(context.Background(), req)
		require.NoError(t, err)
	}

	active, err := ledger.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "08:00", active[0].Time)
	assert.Equal(t, "15:00", active[1].Time)
	assert.Equal(t, "23/03/2026", active[2].Date)
}
