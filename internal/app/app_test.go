package app

import (
	"testing"
	"time"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
)

func TestRunUsageExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no args", args: nil, want: 2},
		{name: "help", args: []string{"help"}, want: 0},
		{name: "unknown", args: []string{"nope"}, want: 2},
		{name: "stage help", args: []string{"keyword", "-h"}, want: 0},
		{name: "bad flag", args: []string{"author", "--bogus"}, want: 2},
		{name: "positional", args: []string{"paper", "extra"}, want: 2},
		{name: "negative runs", args: []string{"health", "--runs", "-1"}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Run(tt.args); got != tt.want {
				t.Fatalf("Run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestRunRowsFormatsLedger(t *testing.T) {
	t.Parallel()

	msg := " load: boom "
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := runRows([]db.ETLRun{
		{Stage: "paper", Status: db.RunStatusFailed, StartedAt: started, RowsWritten: 0, ErrorMessage: &msg},
		{Stage: "keyword", Status: db.RunStatusCompleted, StartedAt: started, RowsWritten: 12},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][4] != "load: boom" || rows[0][2] != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected failed row: %v", rows[0])
	}
	if rows[1][3] != "12" || rows[1][4] != "" {
		t.Fatalf("unexpected completed row: %v", rows[1])
	}
}
