package http

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"spendly/internal/core"
	applog "spendly/internal/log"
)

const recentExpenses = 10

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return core.FormatAmount(d, "") },
	"percent": func(p float64) string {
		return decimal.NewFromFloat(p).StringFixed(1) + "%"
	},
	"barWidth": func(p float64) int {
		switch {
		case p <= 0:
			return 0
		case p < 2:
			return 2
		case p > 100:
			return 100
		default:
			return int(p + 0.5)
		}
	},
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks templates and the persistence backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if err := s.ready(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	profileState := "not_configured"
	if s.profiles != nil && s.profiles.Configured() {
		profileState = s.profiles.State().String()
	}

	NewJSONResponse().Status(code).JSON(map[string]any{
		"status":   status,
		"checks":   checks,
		"profile":  profileState,
		"security": s.security.snapshot(),
	}).Write(w)
}

type breakdownRow struct {
	Name       string
	Color      string
	Icon       string
	Total      decimal.Decimal
	Percentage float64
}

type expenseRow struct {
	core.Expense
	CategoryName string
}

type indexData struct {
	Total          decimal.Decimal
	Breakdown      []breakdownRow
	Expenses       []expenseRow
	ExpenseCount   int
	Categories     []core.Category
	Wallets        []core.Wallet
	Today          string
	SignedIn       bool
	DisplayName    string
	ProfileEnabled bool
}

// handleIndex renders the dashboard: category breakdown, recent expenses
// and the expense form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snap := s.store.Snapshot()
	totals := core.BreakdownByCategory(snap.Expenses, snap.Categories)

	names := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name
	}

	data := indexData{
		Total:        core.GrandTotal(totals),
		ExpenseCount: len(snap.Expenses),
		Categories:   snap.Categories,
		Wallets:      snap.Wallets,
		Today:        core.DateOf(s.now()).String(),
	}
	for _, t := range totals {
		data.Breakdown = append(data.Breakdown, breakdownRow{
			Name:       t.Category.Name,
			Color:      t.Category.Color,
			Icon:       t.Category.Icon,
			Total:      t.Total,
			Percentage: t.Percentage,
		})
	}
	for i, e := range snap.Expenses {
		if i == recentExpenses {
			break
		}
		data.Expenses = append(data.Expenses, expenseRow{Expense: e, CategoryName: names[e.CategoryID]})
	}
	if s.profiles != nil && s.profiles.Configured() {
		data.ProfileEnabled = true
		if m, ok := s.profiles.Mirror(); ok {
			data.SignedIn = true
			data.DisplayName = m.Profile.DisplayName
		} else if id := s.profiles.Session(); id != nil {
			data.SignedIn = true
			data.DisplayName = id.DisplayName
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err,
			"template", "index.html")
		http.Error(w, "rendering failed", http.StatusInternalServerError)
	}
}
