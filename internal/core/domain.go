package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day without a time component.
	Date struct {
		time.Time
	}

	Expense struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Amount     decimal.Decimal `json:"amount"`
		Date       Date            `json:"date"`
		CategoryID string          `json:"categoryId"`
		WalletID   string          `json:"walletId"`
		Merchant   string          `json:"merchant"`
		Notes      string          `json:"notes,omitempty"`
		ReceiptRef string          `json:"receiptRef,omitempty"`
		CreatedAt  time.Time       `json:"createdAt"`
	}

	// ExpenseDraft carries the caller-supplied fields of a new expense.
	// ID and CreatedAt are assigned by the store.
	ExpenseDraft struct {
		Title      string
		Amount     decimal.Decimal
		Date       Date
		CategoryID string
		WalletID   string
		Merchant   string
		Notes      string
		ReceiptRef string
	}

	// ExpensePatch is a partial update; nil fields are left unchanged.
	ExpensePatch struct {
		Title      *string
		Amount     *decimal.Decimal
		Date       *Date
		CategoryID *string
		WalletID   *string
		Merchant   *string
		Notes      *string
		ReceiptRef *string
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}

	Wallet struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Balance  decimal.Decimal `json:"balance"`
		Currency string          `json:"currency"`
	}

	// Snapshot is the full persisted state of a domain store.
	Snapshot struct {
		Expenses   []Expense  `json:"expenses"`
		Categories []Category `json:"categories"`
		Wallets    []Wallet   `json:"wallets"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrMissingDate   = errors.New("date cannot be zero")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	// Accept full timestamps written by older snapshots.
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

// Validate checks the fields a user must supply when recording an expense.
// The store itself accepts any draft; this is used by input surfaces.
func (e ExpenseDraft) Validate() error {
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return ErrTitleTooLong
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Apply returns a copy of e with every non-nil patch field replaced.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.WalletID != nil {
		e.WalletID = *p.WalletID
	}
	if p.Merchant != nil {
		e.Merchant = *p.Merchant
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if p.ReceiptRef != nil {
		e.ReceiptRef = *p.ReceiptRef
	}
	return e
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p == ExpensePatch{}
}

// Clone returns a deep copy of the snapshot's slices.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Expenses:   append([]Expense(nil), s.Expenses...),
		Categories: append([]Category(nil), s.Categories...),
		Wallets:    append([]Wallet(nil), s.Wallets...),
	}
}
