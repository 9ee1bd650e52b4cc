package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vietddude/airwatch/internal/infra/warehouse/postgres"
)

var loadCmd = &cobra.Command{
	Use:   "load [csv_path]",
	Short: "Bulk-load a previously stored CSV artifact into the warehouse",
	Args:  cobra.ExactArgs(1),
	Run:   runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if !cfg.Warehouse.Enabled() {
		slog.Error("warehouse.url is not configured")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Warehouse.Config)
	if err != nil {
		slog.Error("Failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	runID := uuid.NewString()
	rows, err := postgres.NewLoader(db).LoadCSV(ctx, args[0], runID)
	if err != nil {
		slog.Error("Load failed", "path", args[0], "error", err)
		os.Exit(1)
	}

	slog.Info("Load finished", "path", args[0], "rows", rows, "run_id", runID)
}
