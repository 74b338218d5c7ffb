package store

import (
	"time"

	"github.com/shopspring/decimal"

	"spendly/internal/core"
)

var sampleCategories = []core.Category{
	{ID: "food", Name: "Food & Dining", Color: "#ef4444", Icon: "utensils"},
	{ID: "transport", Name: "Transport", Color: "#3b82f6", Icon: "car"},
	{ID: "shopping", Name: "Shopping", Color: "#a855f7", Icon: "shopping-bag"},
	{ID: "entertainment", Name: "Entertainment", Color: "#f59e0b", Icon: "film"},
	{ID: "bills", Name: "Bills & Utilities", Color: "#10b981", Icon: "receipt"},
	{ID: "health", Name: "Health", Color: "#ec4899", Icon: "heart-pulse"},
	{ID: "education", Name: "Education", Color: "#6366f1", Icon: "book"},
	{ID: "other", Name: "Other", Color: "#6b7280", Icon: "circle"},
}

var sampleWallets = []core.Wallet{
	{ID: "cash", Name: "Cash", Balance: decimal.RequireFromString("250.00"), Currency: "USD"},
	{ID: "card", Name: "Bank Card", Balance: decimal.RequireFromString("3420.75"), Currency: "USD"},
	{ID: "savings", Name: "Savings", Balance: decimal.RequireFromString("12000.00"), Currency: "USD"},
}

type sampleEntry struct {
	title, merchant, category, wallet, amount string
}

var sampleEntries = []sampleEntry{
	{"Groceries", "Whole Foods", "food", "card", "86.40"},
	{"Morning coffee", "Blue Bottle", "food", "cash", "4.75"},
	{"Metro pass", "City Transit", "transport", "card", "32.00"},
	{"Running shoes", "Nike", "shopping", "card", "119.99"},
	{"Movie night", "AMC", "entertainment", "card", "27.50"},
	{"Electricity bill", "ConEd", "bills", "card", "74.20"},
	{"Pharmacy", "CVS", "health", "cash", "18.35"},
	{"Online course", "Coursera", "education", "card", "49.00"},
	{"Team lunch", "Sweetgreen", "food", "card", "23.10"},
	{"Ride home", "Uber", "transport", "card", "16.80"},
	{"Streaming", "Netflix", "entertainment", "card", "15.49"},
	{"Internet", "Verizon", "bills", "card", "59.99"},
	{"Birthday gift", "Etsy", "other", "card", "42.00"},
	{"Dinner out", "Olive Garden", "food", "card", "61.25"},
	{"Gas", "Shell", "transport", "card", "45.60"},
}

// SampleData generates the bootstrap dataset: the fixed categories and wallets
// and one expense per entry, spread over the 30 days before now, newest first.
func SampleData(now time.Time, newID func() string) core.Snapshot {
	expenses := make([]core.Expense, 0, len(sampleEntries))
	step := 30 / len(sampleEntries)
	if step == 0 {
		step = 1
	}
	for i, e := range sampleEntries {
		day := now.AddDate(0, 0, -i*step)
		expenses = append(expenses, core.Expense{
			ID:         newID(),
			Title:      e.title,
			Amount:     decimal.RequireFromString(e.amount),
			Date:       core.DateOf(day),
			CategoryID: e.category,
			WalletID:   e.wallet,
			Merchant:   e.merchant,
			CreatedAt:  day,
		})
	}

	return core.Snapshot{
		Expenses:   expenses,
		Categories: append([]core.Category(nil), sampleCategories...),
		Wallets:    append([]core.Wallet(nil), sampleWallets...),
	}
}
