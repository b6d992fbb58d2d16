package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is one extract row keyed by header column. Absent cells read as "".
type Record map[string]string

func (r Record) Get(column string) string {
	return r[column]
}

// ReadCSV loads name from store. The header row names the columns; cells are
// trimmed of a UTF-8 BOM and NFC-normalised.
func ReadCSV(ctx context.Context, store Store, name string) ([]Record, error) {
	f, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = strings.TrimSpace(cleanCell(col))
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if col == "" || i >= len(row) {
				continue
			}
			rec[col] = cleanCell(row[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

func cleanCell(value string) string {
	value = strings.TrimPrefix(value, "\ufeff")
	if !norm.NFC.IsNormalString(value) {
		value = norm.NFC.String(value)
	}
	return value
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
