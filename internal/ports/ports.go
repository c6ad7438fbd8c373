// Package ports declares the storage interfaces the rest of the application
// depends on. Backends live in internal/store/memory, internal/storage and
// internal/storage/postgres.
package ports

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

const (
	OrderDateDesc   = "-transaction_date"
	OrderDateAsc    = "transaction_date"
	OrderAmountDesc = "-amount"
	OrderAmountAsc  = "amount"
)

type (
	// TransactionFilter narrows a transaction listing. Zero fields do not
	// filter. Start and End are inclusive.
	TransactionFilter struct {
		Start      core.Date
		End        core.Date
		CategoryID int64
		Kind       core.Kind
		Search     string
		Ordering   string
		Limit      int
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		DeleteCategory(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		// UpsertBudget updates the budget of the same category, month and
		// year if one exists; created reports which happened.
		UpsertBudget(ctx context.Context, b core.Budget) (saved core.Budget, created bool, err error)
		// ListBudgets returns budgets of year/month; zero values match all.
		ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is what every backend provides.
	Store interface {
		TransactionStore
		CategoryStore
		BudgetStore
		Pinger
	}
)

// NormalizedOrdering maps unknown values to the default newest-first order.
func (f TransactionFilter) NormalizedOrdering() string {
	switch f.Ordering {
	case OrderDateAsc, OrderDateDesc, OrderAmountAsc, OrderAmountDesc:
		return f.Ordering
	default:
		return OrderDateDesc
	}
}

// Matches applies every filter except ordering and limit to t.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if !f.Start.IsZero() && t.Date.Before(f.Start.Time) {
		return false
	}
	if !f.End.IsZero() && t.Date.After(f.End.Time) {
		return false
	}
	if f.CategoryID != 0 && t.CategoryID != f.CategoryID {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(s)) {
		return false
	}
	return true
}
