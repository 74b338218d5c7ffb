package http

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"spendly/internal/core"
	applog "spendly/internal/log"
)

type expenseList struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items := s.store.Expenses()
	NewJSONResponse().JSON(expenseList{Expenses: items, Count: len(items)}).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.Expense(r.PathValue("id"))
	if !ok {
		NotFoundError("expense not found").Write(w)
		return
	}
	NewJSONResponse().JSON(e).Write(w)
}

// handleCreateExpense validates the input before it reaches the store;
// rejected input leaves the store untouched.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	draft, err := parseExpenseDraft(p, s.now())
	if err != nil {
		writeValidationError(w, err)
		return
	}

	e := s.store.AddExpense(ctx, draft)
	logger.InfoContext(ctx, "Expense created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldExpenseID, e.ID,
		applog.FieldAmount, e.Amount.StringFixed(2),
		applog.FieldCategoryID, e.CategoryID)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(e).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	patch, err := parseExpensePatch(p)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	e, ok := s.store.UpdateExpense(ctx, id, patch)
	if !ok {
		NotFoundError("expense not found").Write(w)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Expense updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldExpenseID, id)
	NewJSONResponse().JSON(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if !s.store.DeleteExpense(ctx, id) {
		NotFoundError("expense not found").Write(w)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	NoContent().Write(w)
}

func (s *Server) handleLoadSampleData(w http.ResponseWriter, r *http.Request) {
	loaded := s.store.LoadSampleData(r.Context())
	NewJSONResponse().JSON(map[string]any{
		"loaded":   loaded,
		"expenses": len(s.store.Expenses()),
	}).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{"categories": s.store.Categories()}).Write(w)
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{"wallets": s.store.Wallets()}).Write(w)
}

type categoryTotalJSON struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon"`
	Total      decimal.Decimal `json:"total"`
	Percentage float64         `json:"percentage"`
}

type breakdownJSON struct {
	Categories []categoryTotalJSON `json:"categories"`
	GrandTotal decimal.Decimal     `json:"grandTotal"`
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	totals := core.BreakdownByCategory(snap.Expenses, snap.Categories)
	out := breakdownJSON{
		Categories: make([]categoryTotalJSON, 0, len(totals)),
		GrandTotal: core.GrandTotal(totals),
	}
	for _, t := range totals {
		out.Categories = append(out.Categories, categoryTotalJSON{
			CategoryID: t.Category.ID,
			Name:       t.Category.Name,
			Color:      t.Category.Color,
			Icon:       t.Category.Icon,
			Total:      t.Total,
			Percentage: t.Percentage,
		})
	}
	NewJSONResponse().JSON(out).Write(w)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ValidationErrorResponse(ve).Write(w)
		return
	}
	BadRequestError(err.Error()).Write(w)
}
