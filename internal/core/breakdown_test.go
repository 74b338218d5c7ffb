package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBreakdownByCategory_RanksAndPercentages(t *testing.T) {
	cats := []Category{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}, {ID: "c", Name: "C"}}
	exps := []Expense{
		{ID: "1", CategoryID: "a", Amount: amount("200")},
		{ID: "2", CategoryID: "b", Amount: amount("100")},
		{ID: "3", CategoryID: "a", Amount: amount("100")},
	}

	got := BreakdownByCategory(exps, cats)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(got), got)
	}
	if got[0].Category.ID != "a" || !got[0].Total.Equal(amount("300")) || got[0].Percentage != 75.0 {
		t.Fatalf("unexpected first row %+v", got[0])
	}
	if got[1].Category.ID != "b" || !got[1].Total.Equal(amount("100")) || got[1].Percentage != 25.0 {
		t.Fatalf("unexpected second row %+v", got[1])
	}
	if !GrandTotal(got).Equal(amount("400")) {
		t.Fatalf("unexpected grand total %s", GrandTotal(got))
	}
}

func TestBreakdownByCategory_NoSpending(t *testing.T) {
	cats := []Category{{ID: "a"}, {ID: "b"}}

	if got := BreakdownByCategory(nil, cats); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}

	zero := []Expense{{ID: "1", CategoryID: "a", Amount: decimal.Zero}}
	if got := BreakdownByCategory(zero, cats); len(got) != 0 {
		t.Fatalf("expected empty result for zero totals, got %+v", got)
	}

	if got := BreakdownByCategory(zero, nil); len(got) != 0 {
		t.Fatalf("expected empty result without categories, got %+v", got)
	}
}

func TestBreakdownByCategory_TiesKeepCategoryOrder(t *testing.T) {
	cats := []Category{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	exps := []Expense{
		{ID: "1", CategoryID: "z", Amount: amount("50")},
		{ID: "2", CategoryID: "y", Amount: amount("50")},
		{ID: "3", CategoryID: "x", Amount: amount("50")},
	}

	got := BreakdownByCategory(exps, cats)
	want := []string{"x", "y", "z"}
	for i, id := range want {
		if got[i].Category.ID != id {
			t.Fatalf("row %d: got %s want %s", i, got[i].Category.ID, id)
		}
	}
}

func TestBreakdownByCategory_IgnoresDanglingCategory(t *testing.T) {
	cats := []Category{{ID: "a"}}
	exps := []Expense{
		{ID: "1", CategoryID: "a", Amount: amount("10")},
		{ID: "2", CategoryID: "ghost", Amount: amount("90")},
	}

	got := BreakdownByCategory(exps, cats)
	if len(got) != 1 || got[0].Percentage != 100 {
		t.Fatalf("dangling category must not affect totals: %+v", got)
	}
}
