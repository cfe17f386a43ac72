package backend

import (
	"context"
	"errors"
	"fmt"

	"budgetboard/internal/amqp"
	"budgetboard/internal/ledger"
	applog "budgetboard/internal/log"
	"budgetboard/internal/storage"
	"budgetboard/internal/storage/memory"
	"budgetboard/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentStorage)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, ready, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional: the ledger keeps working without event publishing
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	var publisher ledger.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	service := ledger.NewService(store, publisher, f.logger)

	f.logger.Info("Initialized ledger backend",
		"type", config.Type.String(),
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Service: service,
		Ready:   ready,
		Cleanup: func() error {
			var errs []error
			if err := service.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (ledger.Store, func(context.Context) error, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, repo.Ping, nil
	case PostgresBackend:
		repo, err := postgres.NewRepository(ctx, config.PostgresDSN, f.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres store")
		return repo, repo.Ping, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(), func(context.Context) error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
