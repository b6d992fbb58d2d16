package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrTableNotFound is returned when a relation does not exist in the warehouse.
	ErrTableNotFound = errors.New("table not found")
	// ErrIntegrity marks constraint violations (SQLSTATE class 23).
	ErrIntegrity = errors.New("integrity constraint violation")
)

// WriteMode selects how AppendRows treats existing rows.
type WriteMode int

const (
	Append WriteMode = iota
	// Replace truncates the table before inserting, in one transaction.
	Replace
)

func (m WriteMode) String() string {
	if m == Replace {
		return "replace"
	}
	return "append"
}

const insertBatchSize = 500

// Warehouse reads and writes warehouse tables through gorm. A Warehouse
// obtained from InTx is bound to that transaction.
type Warehouse struct {
	gdb  *gorm.DB
	inTx bool
}

func NewWarehouse(pool *Pool) *Warehouse {
	return &Warehouse{gdb: pool.GORM()}
}

// LoadTable scans every row of table into dest, a pointer to a slice of models.
func (w *Warehouse) LoadTable(ctx context.Context, table string, dest any) error {
	if err := w.checkTable(table); err != nil {
		return err
	}
	db := w.gdb.WithContext(ctx)
	if !db.Migrator().HasTable(table) {
		return fmt.Errorf("load %s: %w", table, ErrTableNotFound)
	}
	if err := db.Table(table).Find(dest).Error; err != nil {
		return fmt.Errorf("load %s: %w", table, classify(err))
	}
	return nil
}

// AppendRows bulk-inserts rows, a slice of models, into table.
func (w *Warehouse) AppendRows(ctx context.Context, table string, rows any, mode WriteMode) error {
	if err := w.checkTable(table); err != nil {
		return err
	}
	if mode == Replace && !w.inTx {
		return w.InTx(ctx, func(tx *Warehouse) error {
			return tx.AppendRows(ctx, table, rows, mode)
		})
	}

	db := w.gdb.WithContext(ctx)
	if mode == Replace {
		if err := db.Exec("TRUNCATE TABLE ?", clause.Table{Name: table}).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, classify(err))
		}
	}

	value, n := addressableSlice(rows)
	if n == 0 {
		return nil
	}
	if err := db.Table(table).CreateInBatches(value, insertBatchSize).Error; err != nil {
		return fmt.Errorf("append %d rows to %s: %w", n, table, classify(err))
	}
	return nil
}

// RunQuery scans the result of a read query into dest.
func (w *Warehouse) RunQuery(ctx context.Context, query string, dest any, args ...any) error {
	if err := w.gdb.WithContext(ctx).Raw(query, args...).Scan(dest).Error; err != nil {
		return fmt.Errorf("run query: %w", classify(err))
	}
	return nil
}

// ExecuteStatement runs a parameterised write statement and reports rows affected.
func (w *Warehouse) ExecuteStatement(ctx context.Context, stmt string, args ...any) (int64, error) {
	res := w.gdb.WithContext(ctx).Exec(stmt, args...)
	if res.Error != nil {
		return 0, fmt.Errorf("execute statement: %w", classify(res.Error))
	}
	return res.RowsAffected, nil
}

// InTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (w *Warehouse) InTx(ctx context.Context, fn func(tx *Warehouse) error) error {
	if w.inTx {
		return fn(w)
	}

	tx := w.gdb.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(&Warehouse{gdb: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	committed = true
	return nil
}

func (w *Warehouse) checkTable(table string) error {
	if w == nil || w.gdb == nil {
		return fmt.Errorf("warehouse is not initialized")
	}
	if _, ok := knownTables[table]; !ok {
		return fmt.Errorf("%q: %w", table, ErrTableNotFound)
	}
	return nil
}

// IsIntegrity reports whether err is a constraint violation.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s (constraint %s): %w", ErrIntegrity, pgErr.Code, pgErr.ConstraintName, err)
	}
	return err
}

// addressableSlice returns a pointer to rows and its length so gorm can
// batch-insert it. Non-slices report length 0.
func addressableSlice(rows any) (any, int) {
	v := reflect.ValueOf(rows)
	if !v.IsValid() {
		return nil, 0
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() || v.Elem().Kind() != reflect.Slice {
			return nil, 0
		}
		return rows, v.Elem().Len()
	}
	if v.Kind() != reflect.Slice {
		return nil, 0
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr.Interface(), v.Len()
}

var knownTables = func() map[string]struct{} {
	tables := make(map[string]struct{})
	for _, model := range autoMigrateModels() {
		if named, ok := model.(interface{ TableName() string }); ok {
			tables[named.TableName()] = struct{}{}
		}
	}
	return tables
}()
