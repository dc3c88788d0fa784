package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/cloudtodo/core/internal/adapters/telegram"
	"github.com/cloudtodo/core/internal/application/services"
	"github.com/cloudtodo/core/internal/infrastructure/config"
	"github.com/cloudtodo/core/internal/infrastructure/database"
	"github.com/cloudtodo/core/internal/infrastructure/metrics"
	"github.com/cloudtodo/core/internal/infrastructure/server"
)

// Version is set at build time with -ldflags
var Version = "dev"

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook and admin API server",
		Long:  "Start the HTTP server that receives Telegram updates and serves the admin API",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage postgres migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CloudTodo version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CloudTodo %s\n", Version)
		},
	}
}

func runServer() {
	cfg, appLogger, err := loadConfigAndLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer appLogger.Close()

	recorder := metrics.New()
	messenger, err := telegram.NewClient(cfg.Telegram, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize Telegram client", "error", err.Error())
	}

	a, err := newApp(cfg, messenger, recorder, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize application", "error", err.Error())
	}
	defer a.Close()

	srv := server.New(cfg, server.Dependencies{
		Store:   a.store,
		Bot:     a.bot,
		Tasks:   a.tasks,
		Auth:    services.NewAuthService(cfg.Admin, cfg.JWT, appLogger),
		Metrics: recorder,
	}, appLogger)

	appLogger.Infow("Starting CloudTodo server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Driver,
		"webhook_path", cfg.Telegram.WebhookPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalw("Server failed to start", "error", err.Error())
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err.Error())
	}
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, *database.DB) {
	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		cfg.Database.MigrationsPath,
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	return m, db
}

func runMigration(direction string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, db := newMigrator(cfg)
	defer db.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration failed: %v", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, db := newMigrator(cfg)
	defer db.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return
		}
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}
