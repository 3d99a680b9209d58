package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/nkiru/internal/control"
	"github.com/vietddude/nkiru/internal/core/config"
	"github.com/vietddude/nkiru/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend connectivity and schema version",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := control.NewApp(ctx, control.FromAppConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	st := app.Contacts().Connection(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "DRIVER\tCONNECTED\tERROR")
	_, _ = fmt.Fprintf(w, "%s\t%t\t%s\n", cfg.Backend.Driver, st.Connected, st.Error)

	if cfg.Backend.Driver == config.BackendPostgres {
		version, err := schemaVersion(ctx, cfg.Database)
		if err != nil {
			_, _ = fmt.Fprintf(w, "schema\t-\t%v\n", err)
		} else {
			_, _ = fmt.Fprintf(w, "schema\tv%d\t\n", version)
		}
	}
	_ = w.Flush()

	if !st.Connected {
		os.Exit(1)
	}
}

func schemaVersion(ctx context.Context, cfg postgres.Config) (int64, error) {
	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = db.Close()
	}()
	return db.MigrationVersion(ctx)
}
