package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/summary"
)

// Page is the list envelope shared by every collection endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type transactionView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Amount    string    `json:"amount"`
	Type      core.Kind `json:"type"`
	Category  *int64    `json:"category"`
	Date      core.Date `json:"transaction_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type categoryView struct {
	ID   int64     `json:"id"`
	Name string    `json:"name"`
	Type core.Kind `json:"type"`
}

type budgetView struct {
	ID       int64  `json:"id"`
	Category int64  `json:"category"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	Limit    string `json:"limit_amount"`
}

// number renders money as a bare JSON decimal with two places.
type number core.Money

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(core.Money(n).String()), nil
}

type summaryView struct {
	Start         core.Date `json:"start"`
	End           core.Date `json:"end"`
	PreviousStart core.Date `json:"previous_start"`
	PreviousEnd   core.Date `json:"previous_end"`

	TotalBalance  number  `json:"total_balance"`
	TotalIncome   number  `json:"total_income"`
	TotalExpenses number  `json:"total_expenses"`
	SavingsRate   float64 `json:"savings_rate"`

	PreviousIncome      number  `json:"previous_income"`
	PreviousExpenses    number  `json:"previous_expenses"`
	PreviousSavingsRate float64 `json:"previous_savings_rate"`

	IncomeChangePct      float64 `json:"income_change_pct"`
	ExpensesChangePct    float64 `json:"expenses_change_pct"`
	SavingsRateChangePct float64 `json:"savings_rate_change_pct"`

	TransactionCount int `json:"transaction_count"`
}

type dashboardSummaryView struct {
	summaryView
	HasCategories   bool `json:"has_categories"`
	HasTransactions bool `json:"has_transactions"`
	HasBudgets      bool `json:"has_budgets"`
}

type budgetStatusView struct {
	BudgetID     int64   `json:"budget_id"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Limit        number  `json:"limit_amount"`
	Spent        number  `json:"spent"`
	Remaining    number  `json:"remaining"`
	Percent      float64 `json:"percent"`
	Over         bool    `json:"over"`
	Warn         bool    `json:"warn"`
}

type monthView struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Income   number `json:"income"`
	Expenses number `json:"expenses"`
	Balance  number `json:"balance"`
}

func toTransactionView(t core.Transaction) transactionView {
	v := transactionView{
		ID:        t.ID,
		Title:     t.Title,
		Amount:    t.Amount.String(),
		Type:      t.Kind,
		Date:      t.Date,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.CategoryID != 0 {
		id := t.CategoryID
		v.Category = &id
	}
	return v
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Type: c.Kind}
}

func toBudgetView(b core.Budget) budgetView {
	return budgetView{ID: b.ID, Category: b.CategoryID, Month: b.Month, Year: b.Year, Limit: b.Limit.String()}
}

func toSummaryView(c summary.Comparison) summaryView {
	return summaryView{
		Start:                c.Range.From,
		End:                  c.Range.To,
		PreviousStart:        c.PreviousRange.From,
		PreviousEnd:          c.PreviousRange.To,
		TotalBalance:         number(c.TotalBalance),
		TotalIncome:          number(c.TotalIncome),
		TotalExpenses:        number(c.TotalExpenses),
		SavingsRate:          round1(c.SavingsRate),
		PreviousIncome:       number(c.PrevIncome),
		PreviousExpenses:     number(c.PrevExpenses),
		PreviousSavingsRate:  round1(c.PrevSavingsRate),
		IncomeChangePct:      round1(c.IncomeChangePct),
		ExpensesChangePct:    round1(c.ExpensesChangePct),
		SavingsRateChangePct: round1(c.SavingsRateChangePct),
		TransactionCount:     c.Count,
	}
}

func toDashboardSummaryView(d services.DashboardSummary) dashboardSummaryView {
	return dashboardSummaryView{
		summaryView:     toSummaryView(d.Comparison),
		HasCategories:   d.HasCategories,
		HasTransactions: d.HasTransactions,
		HasBudgets:      d.HasBudgets,
	}
}

func toBudgetStatusView(s summary.BudgetStatus) budgetStatusView {
	return budgetStatusView{
		BudgetID:     s.Budget.ID,
		CategoryID:   s.Budget.CategoryID,
		CategoryName: s.CategoryName,
		Limit:        number(s.Budget.Limit),
		Spent:        number(s.Spent),
		Remaining:    number(s.Remaining),
		Percent:      round1(s.Percent),
		Over:         s.Over,
		Warn:         s.Warn(),
	}
}

func toMonthView(m summary.MonthTotals) monthView {
	return monthView{
		Year:     m.Year,
		Month:    int(m.Month),
		Income:   number(m.Income),
		Expenses: number(m.Expenses),
		Balance:  number(m.Balance()),
	}
}

func mapSlice[T, V any](in []T, f func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, x := range in {
		out = append(out, f(x))
	}
	return out
}

// round1 rounds a percentage to one decimal for display
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, r, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
}

// writeStoreError maps domain errors to their status codes
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Not found.")
	case isValidationError(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Store operation failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "Internal server error.")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrInvalidKind, core.ErrInvalidCategory,
		core.ErrEmptyTitle, core.ErrEmptyName, core.ErrZeroDate,
		core.ErrInvalidDay, core.ErrInvalidMonth, core.ErrInvalidYear,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
