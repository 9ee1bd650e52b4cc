package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	redisclient "github.com/vietddude/airwatch/internal/infra/redis"
)

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List places whose last fetch failed",
	Run:   runFailed,
}

func init() {
	rootCmd.AddCommand(failedCmd)
}

func runFailed(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	if cfg.Redis.URL == "" {
		slog.Error("redis.url is not configured")
		os.Exit(1)
	}

	rdb, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rdb.Close()
	}()

	failed, err := redisclient.NewFailedPlaceRepo(rdb).List(context.Background())
	if err != nil {
		slog.Error("Failed to list failed places", "error", err)
		os.Exit(1)
	}

	if len(failed) == 0 {
		fmt.Println("No failed places recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "PLACE\tCOUNTRY\tFAILED AT\tRUN\tERROR")
	for _, fp := range failed {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			fp.Place, fp.CountryISO, fp.FailedAt.Format(time.RFC3339), fp.RunID, fp.Error)
	}
	_ = w.Flush()
}
