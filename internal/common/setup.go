package common

import (
	"context"
	"log"
	"strings"

	"voltz-ledger-go/internal/api"
	"voltz-ledger-go/internal/database"
	"voltz-ledger-go/internal/events"
	"voltz-ledger-go/internal/formance"
	"voltz-ledger-go/internal/jobs"
	"voltz-ledger-go/internal/ledger"
	"voltz-ledger-go/internal/models"
	"voltz-ledger-go/internal/uow"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	UnitOfWork    *uow.Manager
	Ledger        *ledger.Service
	Wallets       *api.WalletService
	JobRunner     *jobs.JobRunner
	Mirror        *formance.Service
	EventsService *events.KafkaPublisher
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the store, unit of work, ledger and orchestrators.
// The Formance mirror and Kafka publisher are attached as ledger observers
// only when configured.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	services := &Services{DbService: dbService}

	var observers []ledger.Observer
	if cfg.Formance.StackURL != "" {
		zap.L().Info("Enabling Formance ledger mirror")
		mirror, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.Mirror = mirror
		observers = append(observers, mirror)
	}
	if len(cfg.Events.Brokers) > 0 {
		zap.L().Info("Enabling Kafka ledger events",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic))
		publisher, err := events.NewKafkaPublisher(cfg.Events)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.EventsService = publisher
		observers = append(observers, publisher)
	}

	services.UnitOfWork = uow.NewManager(dbService.DB(),
		uow.WithMaxAttempts(cfg.UnitOfWork.MaxAttempts),
		uow.WithRetryBackoff(cfg.UnitOfWork.RetryBackoff))
	services.Ledger = ledger.NewService(dbService, observers...)
	services.Wallets = api.NewWalletService(services.UnitOfWork, services.Ledger, dbService, dbService)
	services.JobRunner = jobs.NewJobRunner(services.UnitOfWork, services.Ledger, dbService)

	return services, nil
}

func (cs *Services) Close() {
	if cs.EventsService != nil {
		if err := cs.EventsService.Close(); err != nil {
			zap.L().Warn("Failed to close Kafka publisher", zap.Error(err))
		}
	}
	if cs.Mirror != nil {
		cs.Mirror.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
