package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RubachokBoss/quizspark/internal/app"
	"github.com/RubachokBoss/quizspark/internal/database"
)

func newWorkerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume quiz events and refresh results exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := app.NewWorker(ctx, cfg, log, db)
			if err != nil {
				db.Close()
				return err
			}

			log.Info().Int("max_workers", cfg.Worker.MaxWorkers).Msg("Starting quizspark worker")
			return w.Run(ctx)
		},
	}
}
