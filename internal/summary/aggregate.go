package summary

import (
	"math"

	"fintrack/internal/core"
)

// Totals are the income and expense sums of one period.
type Totals struct {
	Income   core.Money
	Expenses core.Money
	Count    int
}

// Balance is income minus expenses.
func (t Totals) Balance() core.Money {
	return t.Income.Sub(t.Expenses)
}

// SavingsRate of these totals, in percent.
func (t Totals) SavingsRate() float64 {
	return SavingsRate(t.Income.Units(), t.Expenses.Units())
}

// Comparison is the dashboard figure set for a selected range and the
// equally long period right before it.
type Comparison struct {
	Range         DateRange
	PreviousRange DateRange

	TotalIncome   core.Money
	TotalExpenses core.Money
	TotalBalance  core.Money
	SavingsRate   float64

	PrevIncome      core.Money
	PrevExpenses    core.Money
	PrevSavingsRate float64

	IncomeChangePct      float64
	ExpensesChangePct    float64
	SavingsRateChangePct float64

	// Count is the number of transactions that fell in the current range.
	Count int
}

// Summarize computes current totals for r, derives the previous period and
// compares the two. An absent r yields a zero Comparison. Malformed
// transactions (zero date, unknown kind, negative amount) contribute nothing.
func Summarize(txs []core.Transaction, r DateRange) Comparison {
	if !r.Present() {
		return Comparison{}
	}
	r = r.days()
	prev := r.Previous()
	cur := Accumulate(txs, r)
	before := Accumulate(txs, prev)

	c := Comparison{
		Range:           r,
		PreviousRange:   prev,
		TotalIncome:     cur.Income,
		TotalExpenses:   cur.Expenses,
		TotalBalance:    cur.Balance(),
		SavingsRate:     cur.SavingsRate(),
		PrevIncome:      before.Income,
		PrevExpenses:    before.Expenses,
		PrevSavingsRate: before.SavingsRate(),
		Count:           cur.Count,
	}
	c.IncomeChangePct = PctChange(c.TotalIncome.Units(), c.PrevIncome.Units())
	c.ExpensesChangePct = PctChange(c.TotalExpenses.Units(), c.PrevExpenses.Units())
	c.SavingsRateChangePct = PctChange(c.SavingsRate, c.PrevSavingsRate)
	return c
}

// Accumulate sums the transactions inside r in a single pass. Negative
// amounts and amounts above core.MaxAmountCents are malformed; sums saturate
// instead of wrapping.
func Accumulate(txs []core.Transaction, r DateRange) Totals {
	var t Totals
	if !r.Present() {
		return t
	}
	for _, tx := range txs {
		if !r.Contains(tx.Date) || !countable(tx.Amount) {
			continue
		}
		switch tx.Kind {
		case core.KindIncome:
			t.Income = addSaturating(t.Income, tx.Amount)
		case core.KindExpense:
			t.Expenses = addSaturating(t.Expenses, tx.Amount)
		default:
			continue
		}
		t.Count++
	}
	return t
}

// PctChange is ((curr-prev)/prev)*100, or 0 when prev is 0.
func PctChange(curr, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return finite((curr - prev) / prev * 100)
}

// SavingsRate is ((income-expenses)/income)*100, or 0 when income <= 0.
func SavingsRate(income, expenses float64) float64 {
	if !(income > 0) {
		return 0
	}
	return finite((income - expenses) / income * 100)
}

// countable reports whether an amount may enter a sum.
func countable(m core.Money) bool {
	return m.Cents >= 0 && m.Cents <= core.MaxAmountCents
}

// addSaturating adds two non-negative amounts, clamping at math.MaxInt64.
func addSaturating(a, b core.Money) core.Money {
	if a.Cents > math.MaxInt64-b.Cents {
		return core.Money{Cents: math.MaxInt64}
	}
	return a.Add(b)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
