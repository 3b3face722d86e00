package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookclub/api/internal/config"
	"github.com/bookclub/api/internal/database"
	"github.com/bookclub/api/internal/graph"
	"github.com/bookclub/api/internal/handlers"
	"github.com/bookclub/api/internal/kv"
	"github.com/bookclub/api/internal/middleware"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var cfg *config.Config

var (
	rootCmd = &cobra.Command{
		Use:   "bookclub",
		Short: "Book club GraphQL API",
		Long: `Serves the book club GraphQL API: readings, ratings, meetings,
assignments and attendance behind cookie sessions.

  bookclub migrate    Create or update the database schema
  bookclub serve      Run the HTTP server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL server",
		RunE:  runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE:  runMigrate,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(handlers.Version)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	if _, err := database.Connect(cfg.DB); err != nil {
		logger.Error("migrate_failed", err, map[string]interface{}{"driver": cfg.DB.Driver})
		return err
	}
	logger.Info("migrate_complete", map[string]interface{}{"driver": cfg.DB.Driver})
	return nil
}

func runServe(_ *cobra.Command, _ []string) error {
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	kvDB, err := kv.Open(kv.OptionsFromConfig(cfg.KV))
	if err != nil {
		return fmt.Errorf("kv store initialization failed: %w", err)
	}
	defer kvDB.Close()

	store := storage.New(db)
	audit := services.NewAuditService(db)
	mailer := services.NewMailQueue(services.LogMailer{}, cfg.Mail)

	schema, err := graph.NewSchema(&graph.Resolver{
		Users:      services.NewUserService(store, kv.NewResetTokens(kvDB), mailer, cfg.Mail.ResetURL),
		Readings:   services.NewReadingService(store),
		Ratings:    services.NewRatingService(store, store),
		Meetings:   services.NewMeetingService(store, store),
		Attendance: services.NewAttendanceService(store, store, store),
		Audit:      audit,
	})
	if err != nil {
		return fmt.Errorf("schema build failed: %w", err)
	}

	app := handlers.NewApp(handlers.Deps{
		Config:   cfg,
		DB:       db,
		Schema:   schema,
		Sessions: middleware.NewSessionStore(kv.NewSessionStorage(kvDB), *cfg),
		Audit:    audit,
	})

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server_starting", map[string]interface{}{
		"port":        cfg.Server.Port,
		"address":     listenAddr,
		"environment": cfg.Server.Env,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("server_shutting_down", map[string]interface{}{"signal": sig.String()})
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("server_shutdown_failed", err, nil)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server_failed", err, nil)
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := mailer.Close(ctx); err != nil {
		logger.Error("mail_drain_failed", err, nil)
	}
	if err := audit.Close(ctx); err != nil {
		logger.Error("audit_drain_failed", err, nil)
	}
	return nil
}
