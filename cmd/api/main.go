package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/medisched/booking-api/internal/config"
	"github.com/medisched/booking-api/internal/handler"
	appointmentHandler "github.com/medisched/booking-api/internal/handler/appointment"
	dashboardHandler "github.com/medisched/booking-api/internal/handler/dashboard"
	directoryHandler "github.com/medisched/booking-api/internal/handler/directory"
	medicalHandler "github.com/medisched/booking-api/internal/handler/medical"
	scheduleHandler "github.com/medisched/booking-api/internal/handler/schedule"
	"github.com/medisched/booking-api/internal/middleware"
	"github.com/medisched/booking-api/internal/repository/postgres"
	"github.com/medisched/booking-api/internal/router"
	appointmentService "github.com/medisched/booking-api/internal/service/appointment"
	directoryService "github.com/medisched/booking-api/internal/service/directory"
	eventService "github.com/medisched/booking-api/internal/service/event"
	medicalService "github.com/medisched/booking-api/internal/service/medical"
	"github.com/medisched/booking-api/internal/service/notification"
	scheduleService "github.com/medisched/booking-api/internal/service/schedule"
	"github.com/medisched/booking-api/pkg/auth"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/metrics"
	"github.com/medisched/booking-api/pkg/security"
	"github.com/medisched/booking-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Level: cfg.Logging.Level})

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err, "invalid scheduling timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	if err := validator.RegisterCustomValidations(); err != nil {
		log.Fatal(err, "failed to register validations")
	}

	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	medicalRepo := postgres.NewMedicalHistoryRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	eventSvc := eventService.NewService(outboxRepo, log)

	var notifier notification.Service = notification.Noop{}
	if cfg.SMTP.Host != "" {
		notifier = notification.NewService(notification.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, patientRepo, log)
	}

	var encryptor security.Encryptor = security.NoopEncryptor{}
	if cfg.Encryption.Key != "" {
		encryptor, err = security.NewAESEncryptor([]byte(cfg.Encryption.Key))
		if err != nil {
			log.Fatal(err, "failed to initialize encryption")
		}
	} else {
		log.Warn("encryption key not set, medical records stored in plaintext")
	}

	m := metrics.New("booking_api")

	scheduleSvc := scheduleService.NewService(scheduleRepo, eventSvc, loc, log, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, scheduleRepo, eventSvc, notifier, loc, log, m)
	medicalSvc := medicalService.NewService(medicalRepo, appointmentRepo, encryptor, eventSvc, log)
	directorySvc := directoryService.NewService(doctorRepo, patientRepo)

	authMiddleware := middleware.NewAuthMiddleware(auth.NewVerifier(cfg.JWT.Secret))

	r := router.New(
		authMiddleware,
		handler.NewHealthHandler(db),
		router.Config{
			RateLimit:        rate.Limit(100),
			RateBurst:        200,
			RequestTimeout:   time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORS:             middleware.DefaultCORSConfig(),
			MetricsNamespace: "booking_api",
		},
		scheduleHandler.NewHandler(scheduleSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		medicalHandler.NewHandler(medicalSvc),
		directoryHandler.NewHandler(directorySvc),
		dashboardHandler.NewHandler(appointmentSvc),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited")
}
