package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	var dir string
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			if cfg.DB.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate only applies to the postgres driver, got %q", cfg.DB.Driver)
			}
			appLogger := logger.NewZapLogger(cfg.App.Env)
			defer appLogger.Sync()

			return persistence.MigratePostgres(cfg.DB.DSN, dir, down, appLogger)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "Directory holding the migration files")
	cmd.Flags().BoolVar(&down, "down", false, "Roll back every migration")
	return cmd
}
