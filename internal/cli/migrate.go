package cli

import (
	"errors"

	"github.com/saulo-duarte/engmcq-web/internal/flowstore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the Postgres flow store table.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the Postgres flow store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("postgres dsn not configured")
			}

			db, err := flowstore.Connect(cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := flowstore.Migrate(db); err != nil {
				return err
			}
			logrus.Info("Migrations applied")
			return nil
		},
	}
}
