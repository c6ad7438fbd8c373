// Package memory is an in-process backend. Data is lost on restart.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	cats    []core.Category
	txs     map[int64]core.Transaction
	budgets map[int64]core.Budget
	now     func() time.Time
}

var _ ports.Store = (*Store)(nil)

func New(cats []core.Category) *Store {
	s := &Store{
		txs:     make(map[int64]core.Transaction),
		budgets: make(map[int64]core.Budget),
		now:     time.Now,
	}
	for _, c := range dedupe(cats) {
		s.nextID++
		c.ID = s.nextID
		s.cats = append(s.cats, c)
	}
	return s
}

// NewFromFiles seeds categories from base/seed_categories.txt. Each line is
// "Name" or "Name:kind"; kind defaults to expense.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = []core.Category{
			{Name: "Salary", Kind: core.KindIncome},
			{Name: "Groceries", Kind: core.KindExpense},
			{Name: "Housing", Kind: core.KindExpense},
			{Name: "Transport", Kind: core.KindExpense},
		}
	}
	return New(cats)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

// DeleteCategory detaches its transactions and drops its budgets, the same
// as the SQL backends' ON DELETE rules.
func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.cats {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	s.cats = append(s.cats[:idx], s.cats[idx+1:]...)
	for tid, t := range s.txs {
		if t.CategoryID == id {
			t.CategoryID = 0
			s.txs[tid] = t
		}
	}
	for bid, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bid)
		}
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategory(t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = s.now().UTC()
	t.UpdatedAt = t.CreatedAt
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.txs[t.ID]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	if err := s.checkCategory(t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = s.now().UTC()
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	sortTransactions(out, f.NormalizedOrdering())
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, bool, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategory(b.CategoryID); err != nil {
		return core.Budget{}, false, err
	}
	for id, existing := range s.budgets {
		if existing.CategoryID == b.CategoryID && existing.Month == b.Month && existing.Year == b.Year {
			b.ID = id
			s.budgets[id] = b
			return b, false, nil
		}
	}
	s.nextID++
	b.ID = s.nextID
	s.budgets[b.ID] = b
	return b, true, nil
}

func (s *Store) ListBudgets(_ context.Context, year, month int) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if (year == 0 || b.Year == year) && (month == 0 || b.Month == month) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

// checkCategory must be called with s.mu held.
func (s *Store) checkCategory(id int64) error {
	if id == 0 {
		return nil
	}
	for _, c := range s.cats {
		if c.ID == id {
			return nil
		}
	}
	return fmt.Errorf("category %d: %w", id, core.ErrInvalidCategory)
}

func sortTransactions(txs []core.Transaction, ordering string) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		switch ordering {
		case ports.OrderDateAsc:
			if !a.Date.Equal(b.Date.Time) {
				return a.Date.Before(b.Date.Time)
			}
		case ports.OrderAmountAsc:
			if a.Amount != b.Amount {
				return a.Amount.Cents < b.Amount.Cents
			}
		case ports.OrderAmountDesc:
			if a.Amount != b.Amount {
				return a.Amount.Cents > b.Amount.Cents
			}
		default:
			if !a.Date.Equal(b.Date.Time) {
				return a.Date.After(b.Date.Time)
			}
		}
		return a.ID > b.ID
	})
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, kindText, found := strings.Cut(line, ":")
		kind := core.KindExpense
		if found {
			k, err := core.ParseKind(kindText)
			if err != nil {
				continue
			}
			kind = k
		}
		out = append(out, core.Category{Name: strings.TrimSpace(name), Kind: kind})
	}
	return out
}

// dedupe keeps the first occurrence of each name/kind pair, in input order.
func dedupe(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Validate() != nil {
			continue
		}
		key := string(c.Kind) + "/" + c.Name
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
