package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendly/internal/core"
)

func TestRows(t *testing.T) {
	snap := core.Snapshot{
		Categories: []core.Category{{ID: "food", Name: "Food"}},
		Wallets:    []core.Wallet{{ID: "cash", Name: "Cash"}},
		Expenses: []core.Expense{
			{
				ID: "e2", Title: "Lunch", Amount: decimal.RequireFromString("12.5"),
				Date: core.NewDate(2024, 3, 2), CategoryID: "food", WalletID: "cash",
				CreatedAt: time.Date(2024, 3, 2, 13, 0, 0, 0, time.UTC),
			},
			{
				ID: "e1", Title: "Mystery", Amount: decimal.NewFromInt(3),
				Date: core.NewDate(2024, 3, 1), CategoryID: "gone", WalletID: "",
				Notes: "n", CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			},
		},
	}

	rows := Rows(snap)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	want := []string{"2024-03-02", "Lunch", "12.50", "Food", "Cash", "", "", "", "e2", "2024-03-02 13:00:00"}
	for i, v := range want {
		if rows[0][i] != v {
			t.Errorf("row 0 col %s = %q, want %q", Header[i], rows[0][i], v)
		}
	}
	if rows[1][3] != "gone" {
		t.Errorf("unknown category should export its ID, got %q", rows[1][3])
	}
	if len(rows[0]) != len(Header) {
		t.Errorf("row width %d != header width %d", len(rows[0]), len(Header))
	}
}
