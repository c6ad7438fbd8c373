package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/summary"
)

// DashboardSummary is the period comparison plus the empty-state flags the
// dashboard needs to decide what to render.
type DashboardSummary struct {
	summary.Comparison
	HasCategories   bool
	HasTransactions bool
	HasBudgets      bool
}

// DashboardService reads from the store and feeds the summary package
type DashboardService struct {
	store ports.Store
}

func NewDashboardService(store ports.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Summary fetches categories, budgets and transactions concurrently and
// compares r with the period before it. Only transactions inside the two
// periods are loaded.
func (s *DashboardService) Summary(ctx context.Context, r summary.DateRange) (DashboardSummary, error) {
	var (
		cats    []core.Category
		budgets []core.Budget
		probe   []core.Transaction
		txs     []core.Transaction
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = s.store.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgets(ctx, 0, 0)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		probe, err = s.store.ListTransactions(ctx, ports.TransactionFilter{Limit: 1})
		if err != nil {
			return fmt.Errorf("probe transactions: %w", err)
		}
		return nil
	})
	if r.Present() {
		g.Go(func() error {
			var err error
			txs, err = s.store.ListTransactions(ctx, ports.TransactionFilter{
				Start: r.Previous().From,
				End:   r.To,
			})
			if err != nil {
				return fmt.Errorf("list transactions: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, err
	}

	return DashboardSummary{
		Comparison:      summary.Summarize(txs, r),
		HasCategories:   len(cats) > 0,
		HasTransactions: len(probe) > 0,
		HasBudgets:      len(budgets) > 0,
	}, nil
}

// Overview returns the monthly series for r. Absent ranges yield nil.
func (s *DashboardService) Overview(ctx context.Context, r summary.DateRange) ([]summary.MonthTotals, error) {
	if !r.Present() {
		return nil, nil
	}
	txs, err := s.store.ListTransactions(ctx, ports.TransactionFilter{Start: r.From, End: r.To})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return summary.MonthlyOverview(txs, r), nil
}

// Budgets returns the progress of every budget set for year/month.
func (s *DashboardService) Budgets(ctx context.Context, year int, month time.Month) ([]summary.BudgetStatus, error) {
	var (
		budgets []core.Budget
		cats    []core.Category
		txs     []core.Transaction
	)
	r := summary.Month(year, month)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgets(ctx, year, int(month))
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cats, err = s.store.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(ctx, ports.TransactionFilter{
			Start: r.From,
			End:   r.To,
			Kind:  core.KindExpense,
		})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary.BudgetProgress(budgets, cats, txs, year, month), nil
}

// Recent returns the newest transactions, newest first.
func (s *DashboardService) Recent(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 5
	}
	txs, err := s.store.ListTransactions(ctx, ports.TransactionFilter{
		Ordering: ports.OrderDateDesc,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	return txs, nil
}
