package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// Stage is one operator-selectable load step.
type Stage interface {
	Name() string
	// Load reads extracts and warehouse state and computes the rows to write.
	Load(ctx context.Context, store source.Store, w Warehouse) error
	// Write persists what Load computed and reports rows written.
	Write(ctx context.Context, w Warehouse) (int64, error)
}

// Ledger records stage executions.
type Ledger interface {
	StartRun(ctx context.Context, stage string) (*db.ETLRun, error)
	FinishRun(ctx context.Context, run *db.ETLRun, rowsWritten int64, runErr error) error
}

// Report summarises one stage execution.
type Report struct {
	Stage       string
	RunUUID     string
	RowsWritten int64
	Duration    time.Duration
}

type Runner struct {
	warehouse Warehouse
	store     source.Store
	ledger    Ledger
	logger    zerolog.Logger
}

// NewRunner wires a runner. ledger may be nil.
func NewRunner(w Warehouse, store source.Store, ledger Ledger, logger zerolog.Logger) *Runner {
	return &Runner{warehouse: w, store: store, ledger: ledger, logger: logger}
}

// Run loads and writes stage, recording the outcome in the ledger.
func (r *Runner) Run(ctx context.Context, stage Stage) (Report, error) {
	logger := r.logger.With().Str("stage", stage.Name()).Logger()
	report := Report{Stage: stage.Name()}
	started := time.Now()

	var run *db.ETLRun
	if r.ledger != nil {
		var err error
		run, err = r.ledger.StartRun(ctx, stage.Name())
		if err != nil {
			return report, fmt.Errorf("start run ledger: %w", err)
		}
		report.RunUUID = run.RunUUID
	}

	logger.Info().Str("source", r.store.Describe()).Msg("stage started")
	rows, runErr := r.execute(ctx, stage)
	report.RowsWritten = rows
	report.Duration = time.Since(started)

	if r.ledger != nil {
		if err := r.ledger.FinishRun(ctx, run, rows, runErr); err != nil {
			logger.Error().Err(err).Msg("finish run ledger failed")
			if runErr == nil {
				runErr = fmt.Errorf("finish run ledger: %w", err)
			}
		}
	}
	if runErr != nil {
		logger.Error().Err(runErr).Dur("duration", report.Duration).Msg("stage failed")
		return report, runErr
	}

	logger.Info().Int64("rows_written", rows).Dur("duration", report.Duration).Msg("stage completed")
	return report, nil
}

func (r *Runner) execute(ctx context.Context, stage Stage) (int64, error) {
	if err := stage.Load(ctx, r.store, r.warehouse); err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}
	rows, err := stage.Write(ctx, r.warehouse)
	if err != nil {
		return rows, fmt.Errorf("write: %w", err)
	}
	return rows, nil
}

// DryRun loads stage without writing or recording a run.
func (r *Runner) DryRun(ctx context.Context, stage Stage) error {
	logger := r.logger.With().Str("stage", stage.Name()).Bool("dry_run", true).Logger()
	if err := stage.Load(ctx, r.store, r.warehouse); err != nil {
		logger.Error().Err(err).Msg("stage load failed")
		return fmt.Errorf("load: %w", err)
	}
	logger.Info().Msg("stage loaded, nothing written")
	return nil
}
