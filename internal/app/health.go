package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/cli"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/config"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/logging"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Command timeout")
	limit := fs.Int("runs", 10, "Number of recent runs to show")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *limit < 0 {
		fmt.Fprintln(os.Stderr, "--runs must be >= 0")
		return 2
	}

	if _, err := envLoader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	logger.Info().Str("environment", cfg.Environment).Msg("health check passed")
	fmt.Println("database: ok")

	if *limit == 0 {
		return 0
	}
	runs, err := db.NewWarehouse(pool).LatestRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query runs: %v\n", err)
		return 1
	}
	if err := writeTable([]string{"stage", "status", "started_at", "rows_written", "error"}, runRows(runs)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render runs: %v\n", err)
		return 1
	}
	return 0
}

func runRows(runs []db.ETLRun) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		errMsg := ""
		if run.ErrorMessage != nil {
			errMsg = strings.TrimSpace(*run.ErrorMessage)
		}
		rows = append(rows, []string{
			run.Stage,
			run.Status,
			run.StartedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(run.RowsWritten, 10),
			errMsg,
		})
	}
	return rows
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}
