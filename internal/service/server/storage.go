package server

import (
	"context"
	"fmt"

	"github.com/oshokin/safehome/internal/config"
	"github.com/oshokin/safehome/internal/logger"
	"github.com/oshokin/safehome/internal/notify"
	repository "github.com/oshokin/safehome/internal/repository/security"
)

// openRepository opens the storage backend selected by settings.
// The memory backend starts from the default floor plan on every start.
//
//nolint:ireturn // Callers only need the repository interface.
func openRepository(ctx context.Context, settings *config.Config) (repository.Repository, error) {
	switch settings.Storage {
	case config.StorageSQLite:
		repo, err := repository.NewSQLiteRepository(ctx, settings.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}

		logger.InfoKV(ctx, "Using SQLite storage", "database_file", repo.Path())

		return repo, nil
	default:
		logger.Info(ctx, "Using in-memory storage")

		return repository.NewSeededMemoryRepository(), nil
	}
}

// openNotifier connects to the MQTT broker when one is configured.
//
//nolint:ireturn // Callers only need the notifier interface.
func openNotifier(ctx context.Context, settings *config.Config) (notify.Notifier, error) {
	if settings.MQTTBroker == "" {
		return notify.Nop{}, nil
	}

	n, err := notify.DialMQTT(ctx, notify.MQTTOptions{
		Broker:   settings.MQTTBroker,
		Topic:    settings.MQTTTopic,
		ClientID: "safehome-server",
		Timeout:  settings.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}
