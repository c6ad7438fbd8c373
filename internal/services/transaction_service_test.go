package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/store/memory"
	"fintrack/internal/summary"
)

type fakePublisher struct {
	mu       sync.Mutex
	events   []*amqp.TransactionEvent
	err      error
	closed   bool
	closeErr error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, evt *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return f.closeErr
}

func newStore() *memory.Store {
	return memory.New([]core.Category{
		{Name: "Salary", Kind: core.KindIncome},
		{Name: "Groceries", Kind: core.KindExpense},
	})
}

func expense(title string, cents int64, cat int64, d core.Date) core.Transaction {
	return core.Transaction{Title: title, Amount: core.Money{Cents: cents}, Kind: core.KindExpense, CategoryID: cat, Date: d}
}

func TestTransactionService_PublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(newStore(), pub, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, expense("Milk", 250, 2, core.NewDate(2024, 1, 3)))
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	created.Amount = core.Money{Cents: 300}
	if _, err := svc.Update(ctx, created); err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() = %v", err)
	}

	want := []amqp.EventType{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(want))
	}
	for i, evt := range pub.events {
		if evt.Type != want[i] || evt.TransactionID != created.ID {
			t.Errorf("event %d = %s/%d, want %s/%d", i, evt.Type, evt.TransactionID, want[i], created.ID)
		}
	}
	if pub.events[1].AmountCents != 300 {
		t.Errorf("updated event amount = %d, want 300", pub.events[1].AmountCents)
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	store := newStore()
	svc := NewTransactionService(store, &fakePublisher{err: errors.New("circuit breaker is open")}, nil)

	saved, err := svc.Create(context.Background(), expense("Rent", 90000, 0, core.NewDate(2024, 1, 1)))
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if _, err := store.GetTransaction(context.Background(), saved.ID); err != nil {
		t.Fatalf("transaction not stored: %v", err)
	}
}

func TestTransactionService_Validation(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(newStore(), pub, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"empty title", expense(" ", 100, 0, core.NewDate(2024, 1, 1)), core.ErrEmptyTitle},
		{"zero amount", expense("x", 0, 0, core.NewDate(2024, 1, 1)), core.ErrInvalidAmount},
		{"zero date", expense("x", 100, 0, core.Date{}), core.ErrZeroDate},
		{"unknown category", expense("x", 100, 99, core.NewDate(2024, 1, 1)), core.ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.tx); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(pub.events) != 0 {
		t.Errorf("rejected writes published %d events", len(pub.events))
	}
	if err := svc.Delete(ctx, 12345); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrNotFound", err)
	}
}

func TestTransactionService_Close(t *testing.T) {
	t.Run("nil publisher", func(t *testing.T) {
		if err := NewTransactionService(newStore(), nil, nil).Close(); err != nil {
			t.Fatalf("Close() = %v", err)
		}
	})
	t.Run("publisher error is wrapped", func(t *testing.T) {
		pub := &fakePublisher{closeErr: errors.New("boom")}
		err := NewTransactionService(newStore(), pub, nil).Close()
		if err == nil || !pub.closed {
			t.Fatalf("Close() = %v, closed = %v", err, pub.closed)
		}
	})
}

func TestDashboardService_Summary(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	seed := []core.Transaction{
		{Title: "Pay", Amount: core.Money{Cents: 10000}, Kind: core.KindIncome, CategoryID: 1, Date: core.NewDate(2024, 1, 15)},
		{Title: "Food", Amount: core.Money{Cents: 4000}, Kind: core.KindExpense, CategoryID: 2, Date: core.NewDate(2024, 1, 20)},
		{Title: "Old pay", Amount: core.Money{Cents: 8000}, Kind: core.KindIncome, CategoryID: 1, Date: core.NewDate(2023, 12, 10)},
		{Title: "Ancient", Amount: core.Money{Cents: 999}, Kind: core.KindIncome, Date: core.NewDate(2020, 1, 1)},
	}
	for _, tx := range seed {
		if _, err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	svc := NewDashboardService(store)

	got, err := svc.Summary(ctx, summary.NewDateRange(core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31)))
	if err != nil {
		t.Fatalf("Summary() = %v", err)
	}
	if got.TotalIncome.Cents != 10000 || got.TotalExpenses.Cents != 4000 || got.TotalBalance.Cents != 6000 {
		t.Errorf("totals = %+v", got.Comparison)
	}
	if got.SavingsRate != 60 {
		t.Errorf("savings rate = %v, want 60", got.SavingsRate)
	}
	if got.PrevIncome.Cents != 8000 {
		t.Errorf("previous income = %d, want 8000", got.PrevIncome.Cents)
	}
	if !got.HasCategories || !got.HasTransactions || got.HasBudgets {
		t.Errorf("flags = %v/%v/%v", got.HasCategories, got.HasTransactions, got.HasBudgets)
	}

	absent, err := svc.Summary(ctx, summary.DateRange{})
	if err != nil {
		t.Fatalf("Summary(absent) = %v", err)
	}
	if absent.TotalIncome.Cents != 0 || absent.Count != 0 || !absent.HasTransactions {
		t.Errorf("absent range = %+v", absent)
	}
}

func TestDashboardService_BudgetsAndRecent(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	if _, _, err := store.UpsertBudget(ctx, core.Budget{CategoryID: 2, Month: 3, Year: 2024, Limit: core.Money{Cents: 10000}}); err != nil {
		t.Fatalf("budget: %v", err)
	}
	for i, cents := range []int64{5000, 3500, 700} {
		d := core.NewDate(2024, 3, 1+i)
		if _, err := store.CreateTransaction(ctx, expense("Shop", cents, 2, d)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	svc := NewDashboardService(store)

	statuses, err := svc.Budgets(ctx, 2024, time.March)
	if err != nil {
		t.Fatalf("Budgets() = %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	s := statuses[0]
	if s.Spent.Cents != 9200 || math.Abs(s.Percent-92) > 1e-9 || !s.Warn() || s.Over {
		t.Errorf("status = %+v", s)
	}
	if s.CategoryName != "Groceries" {
		t.Errorf("category name = %q", s.CategoryName)
	}

	recent, err := svc.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() = %v", err)
	}
	if len(recent) != 3 || !recent[0].Date.Equal(core.NewDate(2024, 3, 3).Time) {
		t.Errorf("recent = %+v", recent)
	}
}

func TestDashboardService_Overview(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	if _, err := store.CreateTransaction(ctx, expense("Feb", 100, 0, core.NewDate(2024, 2, 29))); err != nil {
		t.Fatal(err)
	}
	svc := NewDashboardService(store)

	series, err := svc.Overview(ctx, summary.NewDateRange(core.NewDate(2024, 1, 15), core.NewDate(2024, 3, 2)))
	if err != nil {
		t.Fatalf("Overview() = %v", err)
	}
	if len(series) != 3 || series[1].Expenses.Cents != 100 {
		t.Errorf("series = %+v", series)
	}
	if empty, _ := svc.Overview(ctx, summary.DateRange{}); empty != nil {
		t.Errorf("absent range should give nil, got %+v", empty)
	}
}
