package summary

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// Warning threshold for budget consumption, in percent.
const BudgetWarnPercent = 80.0

// BudgetStatus is one budget's consumption for its month.
type BudgetStatus struct {
	Budget       core.Budget
	CategoryName string
	Spent        core.Money
	Remaining    core.Money
	Percent      float64
	Over         bool
}

// Warn reports whether spending reached the warning threshold without
// exceeding the limit.
func (s BudgetStatus) Warn() bool {
	return !s.Over && s.Budget.Limit.Cents > 0 && s.Percent >= BudgetWarnPercent
}

// BudgetProgress returns the status of every budget set for year/month,
// sorted by category name. Only expense transactions count as spending.
func BudgetProgress(budgets []core.Budget, categories []core.Category, txs []core.Transaction, year int, month time.Month) []BudgetStatus {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	spent := make(map[int64]core.Money)
	r := Month(year, month)
	for _, tx := range txs {
		if tx.Kind != core.KindExpense || tx.CategoryID == 0 || !countable(tx.Amount) {
			continue
		}
		if r.Contains(tx.Date) {
			spent[tx.CategoryID] = addSaturating(spent[tx.CategoryID], tx.Amount)
		}
	}

	var out []BudgetStatus
	for _, b := range budgets {
		if b.Year != year || b.Month != int(month) {
			continue
		}
		s := BudgetStatus{
			Budget:       b,
			CategoryName: names[b.CategoryID],
			Spent:        spent[b.CategoryID],
		}
		s.Remaining = b.Limit.Sub(s.Spent)
		s.Over = s.Spent.Cents > b.Limit.Cents
		if b.Limit.Cents > 0 {
			s.Percent = finite(s.Spent.Units() / b.Limit.Units() * 100)
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CategoryName != out[j].CategoryName {
			return out[i].CategoryName < out[j].CategoryName
		}
		return out[i].Budget.CategoryID < out[j].Budget.CategoryID
	})
	return out
}
