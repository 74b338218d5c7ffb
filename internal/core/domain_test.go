package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExpenseDraftValidate(t *testing.T) {
	good := ExpenseDraft{
		Title:  "ok",
		Amount: decimal.NewFromInt(100),
		Date:   NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}

	bads := []ExpenseDraft{
		{Title: "a", Amount: decimal.NewFromInt(1)},                            // zero date
		{Title: " ", Amount: decimal.NewFromInt(1), Date: NewDate(2025, 1, 1)}, // blank title
		{Title: string(long), Amount: decimal.NewFromInt(1), Date: NewDate(2025, 1, 1)},
		{Title: "a", Amount: decimal.Zero, Date: NewDate(2025, 1, 1)},
		{Title: "a", Amount: decimal.NewFromInt(-3), Date: NewDate(2025, 1, 1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpensePatchApply(t *testing.T) {
	base := Expense{ID: "e1", Title: "Coffee", Amount: decimal.NewFromInt(3), Merchant: "Bar"}

	if !(ExpensePatch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}

	title := "Espresso"
	amount := decimal.RequireFromString("2.5")
	got := ExpensePatch{Title: &title, Amount: &amount}.Apply(base)

	if got.Title != "Espresso" || !got.Amount.Equal(amount) {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if got.Merchant != "Bar" || got.ID != "e1" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if base.Title != "Coffee" {
		t.Fatal("Apply must not mutate its input")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, 3, 9)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-03-09"` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("got %v want %v", back, d)
	}

	var fromTimestamp Date
	if err := json.Unmarshal([]byte(`"2025-03-09T18:30:00Z"`), &fromTimestamp); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if !fromTimestamp.Equal(d.Time) {
		t.Fatalf("timestamp not truncated to day: %v", fromTimestamp)
	}

	var empty Date
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil || !empty.IsZero() {
		t.Fatalf("empty date: %v %v", empty, err)
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2025, 7, 4, 23, 59, 0, 0, time.UTC)
	if got := DateOf(ts); got.String() != "2025-07-04" {
		t.Fatalf("unexpected day %s", got)
	}
}

func TestProfilePatchApply(t *testing.T) {
	p := UserProfile{ID: "u1", Email: "a@b.c", DisplayName: "Ann", Bio: "hi"}
	first := "Ann"
	phone := "+39 000"
	got := ProfilePatch{FirstName: &first, Phone: &phone}.Apply(p)

	if got.FirstName != "Ann" || got.Phone != "+39 000" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Bio != "hi" || got.ID != "u1" || got.Email != "a@b.c" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}
