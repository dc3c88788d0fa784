package commands

import (
	"context"
	"fmt"

	"github.com/cloudtodo/core/internal/adapters/repository"
	"github.com/cloudtodo/core/internal/application/services"
	"github.com/cloudtodo/core/internal/infrastructure/cache"
	"github.com/cloudtodo/core/internal/infrastructure/config"
	"github.com/cloudtodo/core/internal/infrastructure/database"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// app is the wired bot pipeline shared by serve and shell
type app struct {
	store     ports.UserRecordRepository
	tasks     *services.TaskService
	reminders *services.ReminderService
	bot       *services.BotService
}

func (a *app) Close() error {
	return a.store.Close()
}

// openStore connects the configured user record backend
func openStore(cfg *config.Config) (ports.UserRecordRepository, error) {
	switch cfg.Store.Driver {
	case "memory":
		return repository.NewMemoryRepository(), nil
	case "redis":
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisRepository(client, cfg.Store.KeyPrefix), nil
	case "postgres":
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLRepository(db), nil
	case "sqlite":
		db, err := database.NewSQLite(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureSQLiteSchema(context.Background(), db); err != nil {
			db.Close()
			return nil, err
		}
		return repository.NewSQLRepository(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newApp(cfg *config.Config, messenger ports.Messenger, recorder ports.Recorder, appLogger *logger.Logger) (*app, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	tasks := services.NewTaskService(store, appLogger)
	reminders := services.NewReminderService(tasks, messenger, recorder, appLogger)
	bot := services.NewBotService(tasks, reminders, messenger, recorder, appLogger)

	return &app{
		store:     store,
		tasks:     tasks,
		reminders: reminders,
		bot:       bot,
	}, nil
}

// loadConfigAndLogger is the common preamble of every command
func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}
