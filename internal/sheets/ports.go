// Package sheets defines the spreadsheet export port used by the worker.
package sheets

import (
	"context"

	"spendly/internal/core"
)

// SnapshotExporter replaces the exported expense table with the
// expenses of snap and returns how many rows were written.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context, snap core.Snapshot) (rows int, err error)
}

// Header is the first row of every export.
var Header = []string{
	"Date", "Title", "Amount", "Category", "Wallet",
	"Merchant", "Notes", "Receipt", "ID", "Created At",
}

// Rows flattens the expenses of snap into table rows, resolving category
// and wallet IDs to names. Unknown references are exported as the raw ID.
func Rows(snap core.Snapshot) [][]string {
	categories := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		categories[c.ID] = c.Name
	}
	wallets := make(map[string]string, len(snap.Wallets))
	for _, w := range snap.Wallets {
		wallets[w.ID] = w.Name
	}

	rows := make([][]string, 0, len(snap.Expenses))
	for _, e := range snap.Expenses {
		rows = append(rows, []string{
			e.Date.String(),
			e.Title,
			e.Amount.StringFixed(2),
			nameOr(categories, e.CategoryID),
			nameOr(wallets, e.WalletID),
			e.Merchant,
			e.Notes,
			e.ReceiptRef,
			e.ID,
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}
