package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"igreja/internal/amqp"
	"igreja/internal/storage"
	"igreja/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store and, when AMQP_URL is set, the publisher. An
// unreachable broker is logged and the backend runs without panel sync.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var result *Result
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		result = &Result{Store: repo, Cleanup: repo.Close}
	case MemoryBackend:
		store := memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
		result = &Result{Store: store, Cleanup: store.Close}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP disabled - panel sync messages will not be published")
		return result, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", "error", err)
		return result, nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	closeStore := result.Cleanup
	result.Publisher = client
	result.Cleanup = func() error {
		return errors.Join(client.Close(), closeStore())
	}
	return result, nil
}
