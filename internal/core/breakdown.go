package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is the amount spent in one category and its share of the
// grand total, in percent.
type CategoryTotal struct {
	Category   Category
	Total      decimal.Decimal
	Percentage float64
}

// BreakdownByCategory sums expenses per category, drops categories with no
// spending and ranks the rest by total, highest first. Categories with equal
// totals keep their order from categories. Expenses pointing at unknown
// categories are ignored. An empty result means there is no spending data.
func BreakdownByCategory(expenses []Expense, categories []Category) []CategoryTotal {
	sums := make(map[string]decimal.Decimal, len(categories))
	for _, e := range expenses {
		sums[e.CategoryID] = sums[e.CategoryID].Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(categories))
	grand := decimal.Zero
	for _, c := range categories {
		total := sums[c.ID]
		if total.IsZero() {
			continue
		}
		out = append(out, CategoryTotal{Category: c, Total: total})
		grand = grand.Add(total)
	}

	for i := range out {
		if grand.IsZero() {
			out[i].Percentage = 0
			continue
		}
		out[i].Percentage = out[i].Total.Div(grand).Mul(hundred).InexactFloat64()
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// GrandTotal returns the sum used as the percentage denominator.
func GrandTotal(totals []CategoryTotal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Total)
	}
	return sum
}
