package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

func newTx(title, date string, cents int64, kind core.Kind, cat int64) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{Title: title, Date: d, Amount: core.Money{Cents: cents}, Kind: kind, CategoryID: cat}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) == 0 {
		t.Fatalf("expected defaults when files missing")
	}

	content := "# header\nRent\nSalary:income\nRent\nBonus:gift\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 {
		t.Fatalf("unexpected cats: %+v", cats)
	}
	if cats[0].Name != "Rent" || cats[0].Kind != core.KindExpense || cats[0].ID != 1 {
		t.Fatalf("unexpected first category: %+v", cats[0])
	}
	if cats[1].Name != "Salary" || cats[1].Kind != core.KindIncome {
		t.Fatalf("unexpected second category: %+v", cats[1])
	}
}

func TestTransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Category{{Name: "Food", Kind: core.KindExpense}})

	created, err := s.CreateTransaction(ctx, newTx("Lunch", "2024-01-10", 1250, core.KindExpense, 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", created)
	}

	created.Title = "Team lunch"
	updated, err := s.UpdateTransaction(ctx, created)
	if err != nil || updated.Title != "Team lunch" || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("update: %+v, %v", updated, err)
	}

	if err := s.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateTransaction(ctx, newTx("Ghost", "2024-01-10", 100, core.KindExpense, 99)); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := s.CreateTransaction(ctx, newTx("", "2024-01-10", 100, core.KindExpense, 0)); !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestListTransactionsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Category{{Name: "Food", Kind: core.KindExpense}})
	for _, tx := range []core.Transaction{
		newTx("Salary", "2024-01-01", 300000, core.KindIncome, 0),
		newTx("Groceries", "2024-01-15", 8000, core.KindExpense, 1),
		newTx("Dinner", "2024-02-01", 4500, core.KindExpense, 1),
		newTx("Rent", "2023-12-31", 90000, core.KindExpense, 0),
	} {
		if _, err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter ports.TransactionFilter
		want   []string
	}{
		{"default newest first", ports.TransactionFilter{}, []string{"Dinner", "Groceries", "Salary", "Rent"}},
		{"date window", ports.TransactionFilter{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31), Ordering: ports.OrderDateAsc}, []string{"Salary", "Groceries"}},
		{"category", ports.TransactionFilter{CategoryID: 1, Ordering: ports.OrderAmountAsc}, []string{"Dinner", "Groceries"}},
		{"kind", ports.TransactionFilter{Kind: core.KindIncome}, []string{"Salary"}},
		{"search", ports.TransactionFilter{Search: "din"}, []string{"Dinner"}},
		{"limit", ports.TransactionFilter{Ordering: ports.OrderAmountDesc, Limit: 2}, []string{"Salary", "Rent"}},
		{"unknown ordering", ports.TransactionFilter{Ordering: "title", Limit: 1}, []string{"Dinner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.want))
			}
			for i, title := range tt.want {
				if got[i].Title != title {
					t.Fatalf("position %d: got %q, want %q", i, got[i].Title, title)
				}
			}
		})
	}
}

func TestUpsertBudget(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Category{{Name: "Food", Kind: core.KindExpense}})

	b := core.Budget{CategoryID: 1, Month: 3, Year: 2024, Limit: core.Money{Cents: 20000}}
	first, created, err := s.UpsertBudget(ctx, b)
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}

	b.Limit = core.Money{Cents: 25000}
	second, created, err := s.UpsertBudget(ctx, b)
	if err != nil || created || second.ID != first.ID || second.Limit.Cents != 25000 {
		t.Fatalf("second upsert: %+v created=%v err=%v", second, created, err)
	}

	list, _ := s.ListBudgets(ctx, 2024, 3)
	if len(list) != 1 {
		t.Fatalf("expected one budget, got %d", len(list))
	}
	if list, _ := s.ListBudgets(ctx, 2024, 4); len(list) != 0 {
		t.Fatalf("expected no budgets for April, got %d", len(list))
	}

	if err := s.DeleteCategory(ctx, 1); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if list, _ := s.ListBudgets(ctx, 0, 0); len(list) != 0 {
		t.Fatalf("budgets should go with their category, got %d", len(list))
	}
}
