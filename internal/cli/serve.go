package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RubachokBoss/quizspark/internal/app"
	"github.com/RubachokBoss/quizspark/internal/database"
)

func newServeCmd(configPath *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before starting")
	return cmd
}

func runServe(ctx context.Context, configPath string, migrate bool) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if migrate {
		if err := migrateUp(cfg); err != nil {
			return err
		}
		log.Info().Msg("Migrations applied")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	log.Info().Msg("Database connection established")

	application, err := app.New(cfg, log, db)
	if err != nil {
		db.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() {
		runErr <- application.Run()
	}()

	select {
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil {
			return errors.Join(err, application.Shutdown(context.Background()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
		return err
	}

	log.Info().Msg("Quizspark API stopped")
	return nil
}
