package etl

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/author"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// fakeWarehouse keeps tables as typed slices in memory. InTx snapshots the
// tables and restores them when fn fails.
type fakeWarehouse struct {
	tables     map[string]any
	failAppend map[string]error
	query      func(query string, dest any) error
	statements []string
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{tables: map[string]any{}, failAppend: map[string]error{}}
}

func (f *fakeWarehouse) LoadTable(_ context.Context, table string, dest any) error {
	out := reflect.ValueOf(dest).Elem()
	rows, ok := f.tables[table]
	if !ok {
		out.Set(reflect.MakeSlice(out.Type(), 0, 0))
		return nil
	}
	src := reflect.ValueOf(rows)
	cp := reflect.MakeSlice(out.Type(), src.Len(), src.Len())
	reflect.Copy(cp, src)
	out.Set(cp)
	return nil
}

func (f *fakeWarehouse) AppendRows(_ context.Context, table string, rows any, mode db.WriteMode) error {
	if err := f.failAppend[table]; err != nil {
		return err
	}
	v := reflect.ValueOf(rows)
	cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(cp, v)
	existing, ok := f.tables[table]
	if !ok || mode == db.Replace {
		f.tables[table] = cp.Interface()
		return nil
	}
	f.tables[table] = reflect.AppendSlice(reflect.ValueOf(existing), cp).Interface()
	return nil
}

func (f *fakeWarehouse) RunQuery(_ context.Context, query string, dest any, _ ...any) error {
	if f.query == nil {
		return fmt.Errorf("unexpected query")
	}
	return f.query(query, dest)
}

// ExecuteStatement understands the author update statements.
func (f *fakeWarehouse) ExecuteStatement(_ context.Context, stmt string, args ...any) (int64, error) {
	f.statements = append(f.statements, stmt)
	authors, _ := f.tables[db.TableAuthor].([]db.Author)
	pk := args[1].(int64)
	var affected int64
	for i := range authors {
		if authors[i].AuthorPK != pk || authors[i].CurrentRowIndicator != author.Current {
			continue
		}
		switch stmt {
		case ExpireAuthorSQL:
			authors[i].RowExpirationDate = args[0].(time.Time)
			authors[i].CurrentRowIndicator = author.Expired
		case OverwriteEmailSQL:
			authors[i].Email = args[0].(string)
		default:
			return 0, fmt.Errorf("unexpected statement %q", stmt)
		}
		affected++
	}
	return affected, nil
}

func (f *fakeWarehouse) InTx(_ context.Context, fn func(tx Warehouse) error) error {
	snapshot := make(map[string]any, len(f.tables))
	for table, rows := range f.tables {
		v := reflect.ValueOf(rows)
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(cp, v)
		snapshot[table] = cp.Interface()
	}
	if err := fn(f); err != nil {
		f.tables = snapshot
		return err
	}
	return nil
}

func rowsOf[T any](f *fakeWarehouse, table string) []T {
	rows, _ := f.tables[table].([]T)
	return rows
}

// memStore serves extracts from memory.
type memStore map[string]string

func (m memStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	body, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, source.ErrExtractNotFound)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (m memStore) Describe() string { return "memory" }

func csvLines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
