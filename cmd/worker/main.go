package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/medisched/booking-api/internal/config"
	"github.com/medisched/booking-api/internal/repository/postgres"
	"github.com/medisched/booking-api/pkg/logger"
	"github.com/medisched/booking-api/pkg/messaging/redis"
	"github.com/medisched/booking-api/pkg/metrics"
	"github.com/medisched/booking-api/pkg/worker"
)

// workerEnv tunes the outbox processor through the environment so a
// deployment can adjust throughput without touching the config file.
type workerEnv struct {
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	MaxRetries   int           `envconfig:"OUTBOX_MAX_RETRIES" default:"3"`
	RetryDelay   time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"2s"`
	Channel      string        `envconfig:"OUTBOX_CHANNEL" default:"booking.events"`
	Retention    time.Duration `envconfig:"OUTBOX_RETENTION" default:"168h"`
	HealthPort   string        `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	var env workerEnv
	if err := envconfig.Process("", &env); err != nil {
		os.Stderr.WriteString("failed to process environment: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Level: cfg.Logging.Level})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.Config{
			BatchSize:    env.BatchSize,
			PollInterval: env.PollInterval,
			MaxRetries:   env.MaxRetries,
			RetryDelay:   env.RetryDelay,
			Channel:      env.Channel,
			Retention:    env.Retention,
		},
		log,
		metrics.New("booking_worker"),
	)

	startHealthServer(env.HealthPort, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down worker")
		cancel()
	}()

	processor.Start(ctx)
}

func startHealthServer(port string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Error(err, "health check server failed")
		}
	}()
}
