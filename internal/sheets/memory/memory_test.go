package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"spendly/internal/core"
)

func TestExporter(t *testing.T) {
	e := New(nil)
	snap := core.Snapshot{Expenses: []core.Expense{{ID: "1", Title: "Tea", Amount: decimal.NewFromInt(2)}}}

	n, err := e.ExportSnapshot(context.Background(), snap)
	if err != nil || n != 1 {
		t.Fatalf("export: n=%d err=%v", n, err)
	}
	if e.Exports() != 1 || e.Rows()[0][1] != "Tea" {
		t.Errorf("unexpected state exports=%d rows=%v", e.Exports(), e.Rows())
	}

	boom := errors.New("boom")
	e.FailWith(boom)
	if _, err := e.ExportSnapshot(context.Background(), core.Snapshot{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if e.Exports() != 1 || len(e.Rows()) != 1 {
		t.Error("failed export must not replace rows")
	}
}
