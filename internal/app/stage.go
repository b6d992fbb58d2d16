package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/cli"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/config"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/etl"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/logging"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

func runStages(command string, stages []string, args []string) int {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Hour, "Command timeout")
	dryRun := fs.Bool("dry-run", false, "Compute the delta without writing")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s does not accept positional arguments\n", command)
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
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	store, err := source.NewStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open source extracts: %v\n", err)
		return 1
	}

	warehouse := db.NewWarehouse(pool)
	runner := etl.NewRunner(etl.FromDB(warehouse), store, warehouse, logger)
	for _, name := range stages {
		stage, err := etl.NewStage(name, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
			return 1
		}
		if *dryRun {
			if err := runner.DryRun(ctx, stage); err != nil {
				fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
				return 1
			}
			continue
		}
		report, err := runner.Run(ctx, stage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
			return 1
		}
		fmt.Printf("%s: %d rows written in %s (run %s)\n", report.Stage, report.RowsWritten, report.Duration.Round(time.Millisecond), report.RunUUID)
	}
	return 0
}
