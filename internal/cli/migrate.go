package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/nkiru/internal/infra/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.Database.URL == "" {
		slog.Error("database.url is required for migrate")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		slog.Error("Failed to read schema version", "error", err)
		os.Exit(1)
	}
	slog.Info("Database is up to date", "version", version)
}
