package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/summary"
)

// sweepConcurrency bounds the months checked in parallel by Sweep
const sweepConcurrency = 4

// EventWorker reacts to transaction events: it watches budgets and exports
// new transactions to a spreadsheet.
type EventWorker struct {
	store     ports.Store
	dashboard *services.DashboardService
	exporter  sheets.RowWriter
	logger    *applog.Logger
}

// NewEventWorker accepts a nil exporter, which disables spreadsheet export.
func NewEventWorker(store ports.Store, exporter sheets.RowWriter, logger *applog.Logger) *EventWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &EventWorker{
		store:     store,
		dashboard: services.NewDashboardService(store),
		exporter:  exporter,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// Handle processes one event. A returned error asks for redelivery.
func (w *EventWorker) Handle(ctx context.Context, evt *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		applog.FieldEventID, evt.EventID,
		applog.FieldEventType, evt.Type,
		applog.FieldTransactionID, evt.TransactionID)

	if evt.Type == amqp.EventDeleted {
		return nil
	}

	if evt.Kind == core.KindExpense && evt.CategoryID != 0 && !evt.Date.IsZero() {
		if _, err := w.CheckBudgets(ctx, evt.Date.Year(), evt.Date.Time.Month(), evt.CategoryID); err != nil {
			return fmt.Errorf("check budgets: %w", err)
		}
	}

	if evt.Type == amqp.EventCreated && w.exporter != nil {
		if err := w.export(ctx, evt.TransactionID); err != nil {
			return fmt.Errorf("export transaction: %w", err)
		}
	}
	return nil
}

// CheckBudgets logs every budget of year/month that reached the warning
// threshold or went over its limit and returns those budgets. A zero
// categoryID checks all categories.
func (w *EventWorker) CheckBudgets(ctx context.Context, year int, month time.Month, categoryID int64) ([]summary.BudgetStatus, error) {
	statuses, err := w.dashboard.Budgets(ctx, year, month)
	if err != nil {
		return nil, err
	}

	var alerts []summary.BudgetStatus
	for _, s := range statuses {
		if categoryID != 0 && s.Budget.CategoryID != categoryID {
			continue
		}
		args := []any{
			applog.FieldCategoryID, s.Budget.CategoryID,
			"category", s.CategoryName,
			applog.FieldYear, year,
			applog.FieldMonth, int(month),
			"spent", s.Spent.String(),
			"limit", s.Budget.Limit.String(),
			"percent", s.Percent,
		}
		switch {
		case s.Over:
			w.logger.ErrorContext(ctx, "Budget exceeded", args...)
		case s.Warn():
			w.logger.WarnContext(ctx, "Budget nearly exhausted", args...)
		default:
			continue
		}
		alerts = append(alerts, s)
	}
	return alerts, nil
}

// Sweep checks every month that has a budget.
func (w *EventWorker) Sweep(ctx context.Context) error {
	budgets, err := w.store.ListBudgets(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	type period struct{ year, month int }
	seen := make(map[period]struct{})
	var periods []period
	for _, b := range budgets {
		p := period{b.Year, b.Month}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].year != periods[j].year {
			return periods[i].year < periods[j].year
		}
		return periods[i].month < periods[j].month
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, p := range periods {
		g.Go(func() error {
			_, err := w.CheckBudgets(gctx, p.year, time.Month(p.month), 0)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("budget sweep: %w", err)
	}
	w.logger.DebugContext(ctx, "Budget sweep completed", "months", len(periods))
	return nil
}

// Run sweeps once at startup and then on every tick until ctx is done.
func (w *EventWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Sweep(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup budget sweep failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic budget sweep failed", applog.FieldError, err)
			}
		}
	}
}

func (w *EventWorker) export(ctx context.Context, id int64) error {
	tx, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it; nothing to export.
		w.logger.WarnContext(ctx, "Transaction gone before export", applog.FieldTransactionID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	var category string
	if tx.CategoryID != 0 {
		if c, err := w.store.GetCategory(ctx, tx.CategoryID); err == nil {
			category = c.Name
		}
	}

	ref, err := w.exporter.Append(ctx, sheets.RowFor(tx, category))
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Exported transaction",
		applog.FieldTransactionID, id,
		"sheets_ref", ref,
		applog.FieldAmountCents, tx.Amount.Cents)
	return nil
}
