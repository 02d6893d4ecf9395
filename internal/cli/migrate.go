package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"quizlab-service/internal/config"
	"quizlab-service/internal/infra/sqlite"
)

// NewMigrateCmd applies the local store's schema migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run local database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(config.StringOr(cfg.SQLite.Path, "quizlab.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	log.Printf("migrations applied")
	return nil
}
