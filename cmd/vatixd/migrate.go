package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vatix-Protocol/vatix-backend/internal/config"
	"github.com/Vatix-Protocol/vatix-backend/internal/logging"
	"github.com/Vatix-Protocol/vatix-backend/internal/persistence"
)

// newMigrateCmd runs every pending goose migration and exits without
// starting the server. serve also applies pending migrations at startup.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.NewLoggerFromEnv(os.Getenv("APP_ENV"), cfg.LogLevel)
			defer log.AtExit()

			ctx := context.Background()
			gw, err := persistence.Open(ctx, cfg.Persistence, log.Named("persistence"))
			if err != nil {
				return err
			}
			defer gw.Close()

			if err := gw.Migrate(ctx); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
