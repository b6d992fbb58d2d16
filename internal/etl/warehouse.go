// Package etl runs the warehouse load stages: each stage extracts its CSV
// inputs and warehouse state, computes the rows to write and writes them.
package etl

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
)

// ErrNotLoaded is returned when a stage is written before it was loaded.
var ErrNotLoaded = errors.New("stage not loaded: call Load first")

// Warehouse is the persistence capability the stages need.
type Warehouse interface {
	LoadTable(ctx context.Context, table string, dest any) error
	AppendRows(ctx context.Context, table string, rows any, mode db.WriteMode) error
	RunQuery(ctx context.Context, query string, dest any, args ...any) error
	ExecuteStatement(ctx context.Context, stmt string, args ...any) (int64, error)
	InTx(ctx context.Context, fn func(tx Warehouse) error) error
}

// FromDB adapts a gorm-backed warehouse.
func FromDB(w *db.Warehouse) Warehouse {
	return gormWarehouse{w: w}
}

type gormWarehouse struct {
	w *db.Warehouse
}

func (g gormWarehouse) LoadTable(ctx context.Context, table string, dest any) error {
	return g.w.LoadTable(ctx, table, dest)
}

func (g gormWarehouse) AppendRows(ctx context.Context, table string, rows any, mode db.WriteMode) error {
	return g.w.AppendRows(ctx, table, rows, mode)
}

func (g gormWarehouse) RunQuery(ctx context.Context, query string, dest any, args ...any) error {
	return g.w.RunQuery(ctx, query, dest, args...)
}

func (g gormWarehouse) ExecuteStatement(ctx context.Context, stmt string, args ...any) (int64, error) {
	return g.w.ExecuteStatement(ctx, stmt, args...)
}

func (g gormWarehouse) InTx(ctx context.Context, fn func(tx Warehouse) error) error {
	return g.w.InTx(ctx, func(tx *db.Warehouse) error {
		return fn(gormWarehouse{w: tx})
	})
}

// tableWrite is one append inside a write unit.
type tableWrite struct {
	table string
	rows  any
	n     int
}

func write(table string, rows any, n int) tableWrite {
	return tableWrite{table: table, rows: rows, n: n}
}

// writeUnit appends every non-empty batch inside one transaction. A
// constraint violation rolls the unit back and is logged; the stage goes on.
func writeUnit(ctx context.Context, w Warehouse, logger zerolog.Logger, unit string, writes ...tableWrite) (int64, error) {
	var total int64
	err := w.InTx(ctx, func(tx Warehouse) error {
		for _, tw := range writes {
			if tw.n == 0 {
				continue
			}
			if err := tx.AppendRows(ctx, tw.table, tw.rows, db.Append); err != nil {
				return err
			}
			total += int64(tw.n)
		}
		return nil
	})
	if err != nil {
		if db.IsIntegrity(err) {
			logger.Error().Err(err).Str("unit", unit).Msg("integrity violation, unit skipped")
			return 0, nil
		}
		return 0, err
	}
	return total, nil
}

// loadTables loads several tables, stopping at the first failure.
func loadTables(ctx context.Context, w Warehouse, targets map[string]any) error {
	for table, dest := range targets {
		if err := w.LoadTable(ctx, table, dest); err != nil {
			return err
		}
	}
	return nil
}
