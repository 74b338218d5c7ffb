package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendly/internal/core"
	applog "spendly/internal/log"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("exp-%d", n)
	}
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := Open(context.Background(), p,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
		WithLogger(applog.Discard()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func draft(title, amount, category string) core.ExpenseDraft {
	return core.ExpenseDraft{
		Title:      title,
		Amount:     decimal.RequireFromString(amount),
		Date:       core.NewDate(2025, 6, 1),
		CategoryID: category,
		WalletID:   "card",
		Merchant:   "Shop",
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestAddExpense_PrependsWithNewID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())

	first := s.AddExpense(ctx, draft("Coffee", "3.50", "food"))
	second := s.AddExpense(ctx, draft("Train", "12", "transport"))

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("ids must be unique and non-empty: %q %q", first.ID, second.ID)
	}
	if !first.CreatedAt.Equal(fixedNow) {
		t.Fatalf("CreatedAt not taken from clock: %v", first.CreatedAt)
	}

	got := s.Expenses()
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestAddExpense_RetriesCollidingID(t *testing.T) {
	ids := []string{"dup", "dup", "", "fresh"}
	i := 0
	gen := func() string {
		id := ids[i]
		i++
		return id
	}
	s := New(nil, WithIDGenerator(gen), WithLogger(applog.Discard()))
	ctx := context.Background()

	a := s.AddExpense(ctx, draft("a", "1", "food"))
	b := s.AddExpense(ctx, draft("b", "1", "food"))

	if a.ID != "dup" || b.ID != "fresh" {
		t.Fatalf("expected collision to be skipped, got %q and %q", a.ID, b.ID)
	}
}

func TestAddExpense_GeneratorWithoutFreshIDs(t *testing.T) {
	calls := 0
	gen := func() string {
		calls++
		return ""
	}
	s := New(nil, WithIDGenerator(gen), WithLogger(applog.Discard()))

	e := s.AddExpense(context.Background(), draft("a", "1", "food"))
	if e.ID == "" {
		t.Fatal("expected a fallback id")
	}
	if calls != maxIDAttempts {
		t.Fatalf("expected %d generator calls, got %d", maxIDAttempts, calls)
	}
}

func TestAddExpense_AcceptsUnvalidatedInput(t *testing.T) {
	s := newTestStore(t, NewMemoryPersister())
	e := s.AddExpense(context.Background(), core.ExpenseDraft{Amount: decimal.NewFromInt(-5), CategoryID: "missing"})
	if _, ok := s.Expense(e.ID); !ok {
		t.Fatal("store must accept any well-typed draft")
	}
}

func TestUpdateExpense(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())
	e := s.AddExpense(ctx, draft("Coffee", "3.50", "food"))

	title := "Espresso"
	updated, ok := s.UpdateExpense(ctx, e.ID, core.ExpensePatch{Title: &title})
	if !ok {
		t.Fatal("expected a match")
	}
	got, _ := s.Expense(e.ID)
	if mustJSON(t, updated) != mustJSON(t, got) {
		t.Fatalf("returned record %+v differs from stored %+v", updated, got)
	}
	if got.Title != "Espresso" || !got.Amount.Equal(e.Amount) || got.ID != e.ID {
		t.Fatalf("unexpected record after update: %+v", got)
	}
}

func TestUpdateExpense_UnmatchedLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())
	s.AddExpense(ctx, draft("Coffee", "3.50", "food"))
	before := mustJSON(t, s.Snapshot())

	title := "nope"
	if _, ok := s.UpdateExpense(ctx, "missing", core.ExpensePatch{Title: &title}); ok {
		t.Fatal("expected no match")
	}
	if after := mustJSON(t, s.Snapshot()); after != before {
		t.Fatalf("collection changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())
	a := s.AddExpense(ctx, draft("a", "1", "food"))
	b := s.AddExpense(ctx, draft("b", "2", "food"))
	c := s.AddExpense(ctx, draft("c", "3", "food"))

	if !s.DeleteExpense(ctx, b.ID) {
		t.Fatal("expected a match")
	}
	got := s.Expenses()
	if len(got) != 2 || got[0].ID != c.ID || got[1].ID != a.ID {
		t.Fatalf("unexpected expenses after delete: %+v", got)
	}

	before := mustJSON(t, s.Snapshot())
	if s.DeleteExpense(ctx, b.ID) {
		t.Fatal("second delete must not match")
	}
	if after := mustJSON(t, s.Snapshot()); after != before {
		t.Fatal("unmatched delete changed the collection")
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	ctx := context.Background()
	ops := func(s *Store) {
		a := s.AddExpense(ctx, draft("a", "10", "food"))
		b := s.AddExpense(ctx, draft("b", "20", "transport"))
		amount := decimal.RequireFromString("15")
		s.UpdateExpense(ctx, a.ID, core.ExpensePatch{Amount: &amount})
		s.DeleteExpense(ctx, b.ID)
		s.AddExpense(ctx, draft("c", "30", "bills"))
		s.UpdateExpense(ctx, "missing", core.ExpensePatch{})
	}

	p1, p2 := NewMemoryPersister(), NewMemoryPersister()
	s1, s2 := newTestStore(t, p1), newTestStore(t, p2)
	ops(s1)
	ops(s2)

	if mustJSON(t, s1.Snapshot()) != mustJSON(t, s2.Snapshot()) {
		t.Fatal("replaying the same operations produced different state")
	}

	saved, found, _ := p1.Load(ctx)
	if !found || mustJSON(t, saved) != mustJSON(t, s1.Snapshot()) {
		t.Fatal("last persisted snapshot must equal in-memory state")
	}
}

func TestEveryMutationPersists(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := newTestStore(t, p)

	e := s.AddExpense(ctx, draft("a", "1", "food"))
	s.UpdateExpense(ctx, e.ID, core.ExpensePatch{})
	s.DeleteExpense(ctx, e.ID)

	if p.Saves() != 3 {
		t.Fatalf("expected 3 saves, got %d", p.Saves())
	}
}

func TestPersistFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	p.FailWith(errors.New("disk full"))
	s := newTestStore(t, p)

	e := s.AddExpense(ctx, draft("a", "1", "food"))
	if _, ok := s.Expense(e.ID); !ok {
		t.Fatal("in-memory state must be updated even when the save fails")
	}
	if p.Saves() != 0 {
		t.Fatalf("expected no successful saves, got %d", p.Saves())
	}
}

func TestLoadSampleData(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := newTestStore(t, p)

	if !s.LoadSampleData(ctx) {
		t.Fatal("expected sample data to load into an empty store")
	}
	snap := s.Snapshot()
	if len(snap.Expenses) == 0 || len(snap.Categories) == 0 || len(snap.Wallets) == 0 {
		t.Fatalf("sample data incomplete: %d expenses, %d categories, %d wallets",
			len(snap.Expenses), len(snap.Categories), len(snap.Wallets))
	}
	for i := 1; i < len(snap.Expenses); i++ {
		if snap.Expenses[i].CreatedAt.After(snap.Expenses[i-1].CreatedAt) {
			t.Fatal("sample expenses must be newest first")
		}
	}

	before := mustJSON(t, snap)
	saves := p.Saves()
	if s.LoadSampleData(ctx) {
		t.Fatal("second load must be a no-op")
	}
	if mustJSON(t, s.Snapshot()) != before || p.Saves() != saves {
		t.Fatal("second load changed state or persisted")
	}
}

func TestLoadSampleData_SkippedWhenExpensesExist(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())
	s.AddExpense(ctx, draft("mine", "1", "food"))

	if s.LoadSampleData(ctx) {
		t.Fatal("sample data must not replace existing expenses")
	}
	if len(s.Expenses()) != 1 || len(s.Categories()) != 0 {
		t.Fatal("state changed")
	}
}

func TestOpenRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := newTestStore(t, p)
	s.LoadSampleData(ctx)
	s.AddExpense(ctx, draft("extra", "9.99", "other"))
	want := mustJSON(t, s.Snapshot())

	restored := newTestStore(t, p)
	if got := mustJSON(t, restored.Snapshot()); got != want {
		t.Fatalf("restored state differs:\n%s\n%s", got, want)
	}
}

type failingLoad struct{ MemoryPersister }

func (f *failingLoad) Load(context.Context) (core.Snapshot, bool, error) {
	return core.Snapshot{}, false, errors.New("corrupt")
}

func TestOpenSurfacesLoadError(t *testing.T) {
	if _, err := Open(context.Background(), &failingLoad{}); err == nil {
		t.Fatal("expected restore error")
	}
}

func TestReadersReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryPersister())
	s.LoadSampleData(ctx)

	exps := s.Expenses()
	exps[0].Title = "mutated"
	cats := s.Categories()
	cats[0].Name = "mutated"

	if s.Expenses()[0].Title == "mutated" || s.Categories()[0].Name == "mutated" {
		t.Fatal("readers must not expose internal slices")
	}
}

func TestConcurrentAddsAreSerialised(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	var mu sync.Mutex
	n := 0
	gen := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s := New(p, WithIDGenerator(gen), WithLogger(applog.Discard()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddExpense(ctx, draft("x", "1", "food"))
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, e := range s.Expenses() {
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
	if len(seen) != 50 || p.Saves() != 50 {
		t.Fatalf("expected 50 expenses and saves, got %d and %d", len(seen), p.Saves())
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := newTestStore(t, p)
	s.AddExpense(ctx, draft("a", "1", "food"))

	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	saves := p.Saves()
	s.AddExpense(ctx, draft("b", "1", "food"))
	if p.Saves() != saves {
		t.Fatal("store must not persist after Close")
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
