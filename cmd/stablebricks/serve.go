package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stablebricks-backend/internal/infrastructure/database"
	"stablebricks-backend/internal/interfaces/router"
	"stablebricks-backend/internal/scheduler"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run AutoMigrate before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	app, err := router.CreateApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres connection failed: %w", err)
		}
		log.Info().Msg("postgres connected")
		if migrate {
			if err := database.AutoMigrate(app.DB); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
		}
	}
	if err := app.Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Msg("redis connected")

	if app.Investments != nil && app.Events != nil {
		jobs, err := scheduler.NewManager(cfg.SchedulerInterval, scheduler.Jobs(app.Investments, app.Events))
		if err != nil {
			return err
		}
		jobs.Start()
		defer jobs.Stop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("health", "/health/json").Msg("server listening")
		errc <- app.Fiber.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	return app.Fiber.ShutdownWithTimeout(shutdownTimeout)
}
