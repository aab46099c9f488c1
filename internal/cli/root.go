package cli

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/RubachokBoss/quizspark/internal/config"
	"github.com/RubachokBoss/quizspark/pkg/logger"
)

var configPath string

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")

	cmd := &cobra.Command{
		Use:           "quizspark",
		Short:         "Quiz authoring, taking and grading service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env нужен только локально; в контейнере переменные уже заданы.
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config (optional)")
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newWorkerCmd(&configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	return cmd
}

// loadConfig читает конфигурацию и собирает логгер по ее настройкам.
func loadConfig(path string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, logger.New(), err
	}

	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)
	return cfg, log, nil
}
