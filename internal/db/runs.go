package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/globaltime"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// StartRun records a running ledger row for stage.
func (w *Warehouse) StartRun(ctx context.Context, stage string) (*ETLRun, error) {
	run := &ETLRun{
		RunUUID:   uuid.NewString(),
		Stage:     stage,
		StartedAt: globaltime.UTC(),
		Status:    RunStatusRunning,
	}
	if err := w.gdb.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("insert etl run: %w", classify(err))
	}
	return run, nil
}

// FinishRun closes a ledger row as completed, or failed when runErr is set.
func (w *Warehouse) FinishRun(ctx context.Context, run *ETLRun, rowsWritten int64, runErr error) error {
	if run == nil {
		return fmt.Errorf("etl run is nil")
	}
	finished := globaltime.UTC()
	status := RunStatusCompleted
	var message *string
	if runErr != nil {
		status = RunStatusFailed
		msg := runErr.Error()
		message = &msg
	}

	res := w.gdb.WithContext(ctx).
		Model(&ETLRun{}).
		Where("run_id = ?", run.RunID).
		Updates(map[string]any{
			"finished_at":   finished,
			"status":        status,
			"rows_written":  rowsWritten,
			"error_message": message,
		})
	if res.Error != nil {
		return fmt.Errorf("update etl run %s: %w", run.RunUUID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update etl run %s: no rows affected", run.RunUUID)
	}

	run.FinishedAt = &finished
	run.Status = status
	run.RowsWritten = rowsWritten
	run.ErrorMessage = message
	return nil
}

// LatestRuns returns the most recent ledger rows, newest first.
func (w *Warehouse) LatestRuns(ctx context.Context, limit int) ([]ETLRun, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	var runs []ETLRun
	if err := w.gdb.WithContext(ctx).
		Order("started_at DESC, run_id DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("query etl runs: %w", err)
	}
	return runs, nil
}
