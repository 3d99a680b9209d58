package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/nkiru/internal/control"
	"github.com/vietddude/nkiru/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	migrate bool
)

var rootCmd = &cobra.Command{
	Use:   "nkiru",
	Short: "Nkiru site backend",
	Long:  `Nkiru serves the contact form, project records and analytics relay for the company website.`,
	Run:   runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site API (default command)",
	Run:   runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving (postgres driver)")
	}
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads .env and the config file, then installs the logger.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	stylelog.InitDefault(&tint.Options{
		Level:      logLevel(cfg.Logging.Level),
		TimeFormat: time.RFC3339,
	})
	return cfg
}

func logLevel(level string) slog.Level {
	if isDebug {
		return slog.LevelDebug
	}
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appCfg := control.FromAppConfig(cfg)
	appCfg.Migrate = migrate

	app, err := control.NewApp(ctx, appCfg)
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start app", "error", err)
		os.Exit(1)
	}

	slog.Info("Nkiru started", "config", cfgPath)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Nkiru stopped gracefully")
}
