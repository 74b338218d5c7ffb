// Package store holds the domain state of one user: expenses, categories and
// wallets. Every mutation writes the full state through a Persister.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendly/internal/core"
	applog "spendly/internal/log"
)

// Persister durably mirrors the store's snapshot.
type Persister interface {
	// Load returns the last saved snapshot; found is false when nothing was saved yet.
	Load(ctx context.Context) (snap core.Snapshot, found bool, err error)
	// Save replaces the saved snapshot with snap.
	Save(ctx context.Context, snap core.Snapshot) error
}

// SampleFunc builds the bootstrap dataset used by LoadSampleData.
type SampleFunc func(now time.Time, newID func() string) core.Snapshot

// Store is the authoritative in-process collection of a user's expenses,
// categories and wallets. Operations are serialised, so the snapshot saved
// after the Nth operation reflects exactly operations 1..N.
type Store struct {
	mu        sync.Mutex
	state     core.Snapshot
	persister Persister
	now       func() time.Time
	newID     func() string
	sample    SampleFunc
	logger    *applog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt and sample data.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the expense identifier generator. Empty or
// already used ids are retried up to maxIDAttempts times, after which a
// random UUID is used.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithSampleData overrides the bootstrap dataset.
func WithSampleData(fn SampleFunc) Option {
	return func(s *Store) { s.sample = fn }
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(l *applog.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(applog.ComponentStore) }
}

// New returns an empty store backed by p. A nil persister keeps state in memory only.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		now:       time.Now,
		newID:     uuid.NewString,
		sample:    SampleData,
		logger:    applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a store restored from the snapshot saved in p, or an empty
// store when p holds none.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := New(p, opts...)
	if p == nil {
		return s, nil
	}

	snap, found, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	if found {
		s.state = snap.Clone()
	}
	s.logger.InfoContext(ctx, "Store restored",
		applog.FieldOperation, applog.OpRestore,
		"found", found,
		applog.FieldExpenseCnt, len(s.state.Expenses))
	return s, nil
}

// AddExpense records a new expense at the front of the collection and
// returns it with its assigned identifier and creation time.
func (s *Store) AddExpense(ctx context.Context, d core.ExpenseDraft) core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Expense{
		ID:         s.uniqueID(),
		Title:      d.Title,
		Amount:     d.Amount,
		Date:       d.Date,
		CategoryID: d.CategoryID,
		WalletID:   d.WalletID,
		Merchant:   d.Merchant,
		Notes:      d.Notes,
		ReceiptRef: d.ReceiptRef,
		CreatedAt:  s.now(),
	}
	s.state.Expenses = append([]core.Expense{e}, s.state.Expenses...)
	s.persist(ctx, applog.OpCreate)
	return e
}

// UpdateExpense applies patch to the expense with the given id and returns
// the updated record and whether one matched. An unmatched id leaves the
// collection unchanged.
func (s *Store) UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated core.Expense
	matched := false
	if i := s.indexOf(id); i >= 0 {
		s.state.Expenses[i] = patch.Apply(s.state.Expenses[i])
		updated, matched = s.state.Expenses[i], true
	}
	s.persist(ctx, applog.OpUpdate)
	return updated, matched
}

// DeleteExpense removes the expense with the given id and reports whether
// one matched.
func (s *Store) DeleteExpense(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	if i := s.indexOf(id); i >= 0 {
		next := make([]core.Expense, 0, len(s.state.Expenses)-1)
		next = append(next, s.state.Expenses[:i]...)
		s.state.Expenses = append(next, s.state.Expenses[i+1:]...)
		matched = true
	}
	s.persist(ctx, applog.OpDelete)
	return matched
}

// LoadSampleData replaces expenses, categories and wallets with the sample
// dataset, but only while there are no expenses. It reports whether it loaded.
func (s *Store) LoadSampleData(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Expenses) > 0 {
		return false
	}
	s.state = s.sample(s.now(), s.newID).Clone()
	s.persist(ctx, applog.OpSeed)
	return true
}

// Expense returns the expense with the given id.
func (s *Store) Expense(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.state.Expenses[i], true
	}
	return core.Expense{}, false
}

// Expenses returns a copy of the expenses, newest first.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.state.Expenses...)
}

// Categories returns a copy of the categories.
func (s *Store) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.state.Categories...)
}

// Wallets returns a copy of the wallets.
func (s *Store) Wallets() []core.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Wallet(nil), s.state.Wallets...)
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Close writes the current state one last time and detaches the persister.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	err := s.persister.Save(ctx, s.state.Clone())
	s.persister = nil
	if err != nil {
		return fmt.Errorf("final snapshot save: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.state.Expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

const maxIDAttempts = 16

// uniqueID asks the generator for an id not already in use.
func (s *Store) uniqueID() string {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
	for {
		if id := uuid.NewString(); s.indexOf(id) < 0 {
			return id
		}
	}
}

// persist must be called with s.mu held. Save failures are logged, not returned.
func (s *Store) persist(ctx context.Context, op string) {
	if s.persister == nil {
		return
	}
	// The write completes even if the triggering request goes away.
	ctx = context.WithoutCancel(ctx)
	if err := s.persister.Save(ctx, s.state.Clone()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist snapshot",
			applog.FieldOperation, op,
			applog.FieldExpenseCnt, len(s.state.Expenses),
			applog.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Snapshot persisted",
		applog.FieldOperation, op,
		applog.FieldExpenseCnt, len(s.state.Expenses))
}
