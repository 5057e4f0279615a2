package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"clinicagenda/config"
	"clinicagenda/models"
	"clinicagenda/services/notification"
	"clinicagenda/services/schedule"
)

const TypeReminderSend = "reminder:send"

// ReminderPayload is the task body for an appointment reminder.
type ReminderPayload struct {
	ChatID      string `json:"chatId"`
	PatientName string `json:"nome"`
	Date        string `json:"data"`
	Time        string `json:"horario"`
	Modality    string `json:"tipo"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

// ReminderScheduler enqueues reminder tasks for committed bookings.
type ReminderScheduler struct {
	client *asynq.Client
	logger *zap.Logger
	clock  func() time.Time
}

// NewReminderScheduler creates the scheduler backed by the reminder queue.
func NewReminderScheduler(logger *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		client: asynq.NewClient(redisOpts()),
		logger: logger,
		clock:  time.Now,
	}
}

// ScheduleReminder enqueues a reminder 24 hours before the appointment.
// Appointments closer than that get no reminder.
func (s *ReminderScheduler) ScheduleReminder(booking *models.Booking) error {
	day, err := schedule.ParseDate(booking.Date)
	if err != nil {
		return fmt.Errorf("cannot schedule reminder for booking %s: %w", booking.ID, err)
	}
	slot, err := time.Parse(schedule.TimeLayout, booking.Time)
	if err != nil {
		return fmt.Errorf("cannot schedule reminder for booking %s: %w", booking.ID, err)
	}

	appointment := time.Date(day.Year(), day.Month(), day.Day(), slot.Hour(), slot.Minute(), 0, 0, time.Local)
	remindAt := appointment.Add(-24 * time.Hour)
	if remindAt.Before(s.clock()) {
		s.logger.Debug("appointment too close for a reminder", zap.String("bookingId", booking.ID))
		return nil
	}

	payload, err := json.Marshal(ReminderPayload{
		ChatID:      booking.SessionID,
		PatientName: booking.PatientName,
		Date:        booking.Date,
		Time:        booking.Time,
		Modality:    booking.Modality,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeReminderSend, payload)
	if _, err := s.client.Enqueue(task, asynq.ProcessAt(remindAt)); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	s.logger.Info("reminder scheduled",
		zap.String("bookingId", booking.ID), zap.Time("remindAt", remindAt))
	return nil
}

// InitReminderWorker runs the async reminder worker in the background.
func InitReminderWorker(notifier notification.Notifier, logger *zap.Logger) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, handleReminderTask(notifier, logger))

	go func() {
		logger.Info("starting reminder worker")
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("reminder worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					log.Fatal("reminder worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(notifier notification.Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid reminder payload: %w", err)
		}

		text := fmt.Sprintf(
			"🔔 Lembrete: %s, sua consulta %s é amanhã, dia %s às %s. Até lá!",
			payload.PatientName, payload.Modality, payload.Date, payload.Time,
		)
		if err := notifier.Send(ctx, payload.ChatID, text); err != nil {
			logger.Warn("failed to deliver reminder",
				zap.String("chatId", payload.ChatID), zap.Error(err))
			return err
		}
		return nil
	}
}
