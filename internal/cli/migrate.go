package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RubachokBoss/quizspark/internal/config"
	"github.com/RubachokBoss/quizspark/internal/database"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(*configPath, func(m *database.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(*configPath, func(m *database.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("migrations rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrator(*configPath, func(m *database.Migrator) error {
				return m.Force(version)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(*configPath, func(m *database.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("version=%d dirty=%t\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator открывает отдельное соединение: Migrator.Close закрывает его вместе с драйвером.
func withMigrator(configPath string, fn func(*database.Migrator) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return runMigrator(cfg, fn)
}

func runMigrator(cfg *config.Config, fn func(*database.Migrator) error) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return err
	}
	defer m.Close()

	return fn(m)
}

func migrateUp(cfg *config.Config) error {
	return runMigrator(cfg, func(m *database.Migrator) error { return m.Up() })
}
