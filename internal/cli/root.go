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

	"github.com/vietddude/airwatch/internal/control"
	"github.com/vietddude/airwatch/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "airwatch",
	Short: "Air quality ETL pipeline",
	Long:  `airwatch fetches the latest air quality readings from OpenAQ for configured places, validates them, stores them as CSV, and optionally loads them into a warehouse.`,
	Run:   runPipeline,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and validate only, skip store and load")
}

// loadConfig loads .env, the config file, and initializes logging.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	return cfg
}

func runPipeline(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A termination signal cancels the in-flight run, including
	// backoff waits.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received signal, aborting run...", "signal", sig)
		cancel()
	}()

	app, err := control.NewApp(ctx, cfg, control.Options{DryRun: dryRun})
	if err != nil {
		slog.Error("Failed to initialize pipeline", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	result, err := app.Run(ctx)
	if err != nil {
		slog.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Run finished",
		"run_id", result.RunID,
		"output", result.OutputPath,
		"fetched", result.Fetched,
		"valid", result.Valid,
		"loaded", result.Loaded)
}
