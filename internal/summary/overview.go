package summary

import (
	"time"

	"fintrack/internal/core"
)

// MonthTotals is one point of the monthly income/expense series.
type MonthTotals struct {
	Year     int
	Month    time.Month
	Income   core.Money
	Expenses core.Money
}

func (m MonthTotals) Balance() core.Money { return m.Income.Sub(m.Expenses) }

// MonthlyOverview buckets the transactions inside r by calendar month,
// oldest first. Months without activity are present with zero totals.
func MonthlyOverview(txs []core.Transaction, r DateRange) []MonthTotals {
	if !r.Present() {
		return nil
	}
	var out []MonthTotals
	index := make(map[int]int)
	for y, m := r.From.Year(), r.From.Time.Month(); ; {
		index[y*12+int(m)] = len(out)
		out = append(out, MonthTotals{Year: y, Month: m})
		if y == r.To.Year() && m == r.To.Time.Month() {
			break
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}

	for _, tx := range txs {
		if !r.Contains(tx.Date) || !countable(tx.Amount) {
			continue
		}
		i := index[tx.Date.Year()*12+tx.Date.Month()]
		switch tx.Kind {
		case core.KindIncome:
			out[i].Income = addSaturating(out[i].Income, tx.Amount)
		case core.KindExpense:
			out[i].Expenses = addSaturating(out[i].Expenses, tx.Amount)
		}
	}
	return out
}
