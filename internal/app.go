// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	router "fintx-engine/internal/api"
	"fintx-engine/internal/api/handler"
	"fintx-engine/internal/config"
	"fintx-engine/internal/events"
	eventskafka "fintx-engine/internal/events/kafka"
	"fintx-engine/internal/lock"
	"fintx-engine/internal/queue"
	"fintx-engine/internal/repository"
	"fintx-engine/internal/repository/memory"
	"fintx-engine/internal/repository/postgres"
	"fintx-engine/internal/service"
	"fintx-engine/internal/util"
	"fintx-engine/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB // nil for the memory backend

	// Repositories
	LedgerRepository      repository.LedgerRepository
	TransactionRepository repository.TransactionRepository
	WalletRepository      repository.WalletRepository
	IdempotencyIndex      repository.IdempotencyIndex

	// Core components
	LockManager   lock.Manager
	Queue         *queue.MemoryQueue
	Worker        *queue.Worker
	Publisher     events.Publisher
	Auditor       *service.SlogAuditor
	LedgerService service.LedgerService
	WalletService service.WalletService
	EngineService service.EngineService

	// HTTP API
	HTTPHandler http.Handler

	kafkaPublisher *eventskafka.Publisher
	redisClient    *goredis.Client
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Initialize Repositories
	switch cfg.StorageBackend {
	case "postgres":
		database, err := db.NewPostgresDB(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = database
		app.LedgerRepository = postgres.NewLedgerRepository(database)
		app.TransactionRepository = postgres.NewTransactionRepository(database)
		app.WalletRepository = postgres.NewWalletRepository(database)
		app.IdempotencyIndex = memory.NewIdempotencyIndex()
		app.Logger.Info("Database connection established.", "backend", "postgres")
	default:
		app.LedgerRepository = memory.NewLedgerRepository()
		app.TransactionRepository = memory.NewTransactionRepository()
		app.WalletRepository = memory.NewWalletRepository()
		app.IdempotencyIndex = memory.NewIdempotencyIndex()
		app.Logger.Info("Using in-memory reference store.")
	}

	// 4. Initialize Lock Manager
	if cfg.RedisAddr != "" {
		app.redisClient = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		app.LockManager = lock.NewRedisManager(app.redisClient, cfg.LockTTL)
		app.Logger.Info("Using Redis lock manager.", "addr", cfg.RedisAddr)
	} else {
		app.LockManager = lock.NewMemoryManager(cfg.LockTTL)
	}

	// 5. Initialize Events Publisher
	if len(cfg.KafkaBrokers) > 0 {
		app.kafkaPublisher = eventskafka.NewPublisher(cfg.KafkaBrokers, events.TopicTransactionCompleted)
		app.Publisher = app.kafkaPublisher
		app.Logger.Info("Kafka publisher enabled.", "brokers", cfg.KafkaBrokers)
	} else {
		app.Publisher = events.NopPublisher{}
	}

	// 6. Initialize Services
	app.Auditor = service.NewSlogAuditor(app.Logger)
	app.LedgerService = service.NewLedgerService(app.LedgerRepository, app.Logger)
	app.WalletService = service.NewWalletService(app.WalletRepository)
	app.Queue = queue.NewMemoryQueue(cfg.QueueCapacity, cfg.JobMaxAttempts)
	app.EngineService = service.NewEngineService(
		app.TransactionRepository,
		app.IdempotencyIndex,
		app.WalletService,
		app.LedgerService,
		app.LockManager,
		app.Queue,
		app.Publisher,
		app.Auditor,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize the worker pool
	app.Worker = queue.NewWorker(app.Queue, cfg.QueueWorkers, app.Logger)
	app.Worker.Register(queue.JobTypeProcessTransaction, app.processTransactionJob)
	app.Logger.Info("Worker pool initialized.", "workers", cfg.QueueWorkers)

	// 8. Initialize HTTP Handlers and Router
	transactionHandler := handler.NewTransactionHandler(app.EngineService, app.WalletService, app.Logger)
	app.HTTPHandler = router.NewRouter(transactionHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// StartWorkers launches the queue worker pool.
func (app *Application) StartWorkers(ctx context.Context) {
	app.Worker.Start(ctx)
}

// processTransactionJob is the handler for process-transaction jobs.
func (app *Application) processTransactionJob(ctx context.Context, job *queue.Job) error {
	payload, err := queue.DecodePayload[queue.ProcessTransactionPayload](job)
	if err != nil {
		return err
	}
	_, err = app.EngineService.Process(ctx, payload.TransactionID)
	return err
}

// Shutdown gracefully shuts down application resources. The queue is closed
// first so workers can drain in-flight jobs before the stores go away.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")

	if app.Queue != nil {
		app.Queue.Close()
	}
	if app.Worker != nil {
		app.Worker.Wait()
	}
	if app.Auditor != nil {
		app.Auditor.Close()
	}
	if app.kafkaPublisher != nil {
		if err := app.kafkaPublisher.Close(); err != nil {
			app.Logger.Error("Failed to close kafka publisher", "error", err)
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.Logger.Error("Failed to close redis client", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}

	app.Logger.Info("Application shut down gracefully.")
	return nil
}
