// File: clinicagenda/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"clinicagenda/config"
	"clinicagenda/cron"
	"clinicagenda/database"
	bookingRepo "clinicagenda/database/repository/booking"
	"clinicagenda/handlers"
	"clinicagenda/middleware"
	"clinicagenda/routes"
	"clinicagenda/services/booking"
	"clinicagenda/services/intelligence"
	"clinicagenda/services/notification"
	"clinicagenda/services/schedule"
	"clinicagenda/services/session"
	"clinicagenda/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()

	// Repositories.
	repo, err := bookingRepo.NewMongoBookingRepo()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize booking repository: %v", err)
	}

	// Scheduling engine and ledger.
	engine, err := schedule.NewEngine(config.AppConfig.BusinessBlocks, repo, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid business blocks configuration: %v", err)
	}
	ledger := &booking.DefaultLedger{
		Repo:     repo,
		Schedule: engine,
		Logger:   logger,
	}

	// Outbound delivery.
	var notifier notification.Notifier = notification.NoopNotifier{}
	if config.AppConfig.TelegramBotToken != "" {
		notifier = notification.NewTelegramNotifier(config.AppConfig.TelegramBotToken)
	} else {
		logger.Warn("main: no telegram bot token configured, outbound delivery disabled")
	}

	// Reminder queue.
	reminders := cron.NewReminderScheduler(logger)
	cron.InitReminderWorker(notifier, logger)

	// Session machine.
	sessionTTL := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	store := session.NewRedisStore(utils.GetSessionCacheClient(), sessionTTL)
	machine := session.NewMachine(store, ledger, engine, reminders, logger)

	// Language layer: Gemini when configured, local keyword extractor otherwise.
	var extractor intelligence.Extractor = intelligence.NewLocalExtractor()
	if config.AppConfig.GeminiAPIKey != "" {
		geminiExtractor, err := intelligence.NewGeminiExtractor(config.AppConfig.GeminiAPIKey, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize gemini extractor: %v", err)
		}
		extractor = geminiExtractor
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := &routes.HandlerBundle{
		Chat:         handlers.NewChatHandler(machine, extractor, notifier, logger),
		Availability: handlers.NewAvailabilityHandler(engine),
		Admin:        handlers.NewAdminHandler(ledger),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
