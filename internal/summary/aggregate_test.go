package summary

import (
	"math"
	"reflect"
	"testing"

	"fintrack/internal/core"
)

func tx(date string, cents int64, kind core.Kind) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{Date: d, Amount: core.Money{Cents: cents}, Kind: kind}
}

func rng(from, to string) DateRange {
	return ParseDateRange(from, to)
}

func TestSummarizeCurrentPeriod(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-01-05", 10000, core.KindIncome),
		tx("2024-01-10", 4000, core.KindExpense),
	}
	got := Summarize(txs, rng("2024-01-01", "2024-01-31"))

	if got.TotalIncome.Cents != 10000 {
		t.Errorf("TotalIncome = %d, want 10000", got.TotalIncome.Cents)
	}
	if got.TotalExpenses.Cents != 4000 {
		t.Errorf("TotalExpenses = %d, want 4000", got.TotalExpenses.Cents)
	}
	if got.TotalBalance.Cents != 6000 {
		t.Errorf("TotalBalance = %d, want 6000", got.TotalBalance.Cents)
	}
	if got.SavingsRate != 60 {
		t.Errorf("SavingsRate = %v, want 60", got.SavingsRate)
	}
	if got.Count != 2 {
		t.Errorf("Count = %d, want 2", got.Count)
	}
}

func TestSummarizeBoundsAreInclusive(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-01-01", 100, core.KindIncome),
		tx("2024-01-31", 100, core.KindIncome),
		tx("2024-02-01", 100, core.KindIncome),
		tx("2023-12-31", 100, core.KindExpense),
	}
	got := Summarize(txs, rng("2024-01-01", "2024-01-31"))
	if got.TotalIncome.Cents != 200 || got.TotalExpenses.Cents != 0 {
		t.Fatalf("income=%d expenses=%d", got.TotalIncome.Cents, got.TotalExpenses.Cents)
	}
	// 2023-12-31 is inside the previous 31-day window.
	if got.PrevExpenses.Cents != 100 {
		t.Fatalf("PrevExpenses = %d, want 100", got.PrevExpenses.Cents)
	}
}

func TestSummarizeAbsentRange(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-01-05", 10000, core.KindIncome),
		tx("2024-01-10", 4000, core.KindExpense),
	}
	cases := []DateRange{
		{},
		{From: core.NewDate(2024, 1, 1)},
		{To: core.NewDate(2024, 1, 31)},
		rng("2024-02-01", "2024-01-01"), // inverted
		rng("bad", "2024-01-31"),
	}
	for i, r := range cases {
		if got := Summarize(txs, r); got != (Comparison{}) {
			t.Errorf("case %d: expected zero comparison, got %+v", i, got)
		}
	}
}

func TestPreviousPeriod(t *testing.T) {
	cases := []struct {
		name     string
		from, to string
		prevFrom string
		prevTo   string
		days     int
	}{
		{"month boundary leap year", "2024-03-01", "2024-03-10", "2024-02-20", "2024-02-29", 10},
		{"month boundary non-leap year", "2023-03-01", "2023-03-10", "2023-02-19", "2023-02-28", 10},
		{"single day", "2024-05-15", "2024-05-15", "2024-05-14", "2024-05-14", 1},
		{"year boundary", "2024-01-01", "2024-01-31", "2023-12-01", "2023-12-31", 31},
		{"full year", "2023-01-01", "2023-12-31", "2022-01-01", "2022-12-31", 365},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := rng(tc.from, tc.to)
			if r.Days() != tc.days {
				t.Fatalf("Days() = %d, want %d", r.Days(), tc.days)
			}
			prev := r.Previous()
			if prev.From.String() != tc.prevFrom || prev.To.String() != tc.prevTo {
				t.Fatalf("Previous() = %s, want %s..%s", prev, tc.prevFrom, tc.prevTo)
			}
			if prev.Days() != tc.days {
				t.Fatalf("previous period has %d days, want %d", prev.Days(), tc.days)
			}
		})
	}
}

func TestSummarizeComparesWithPreviousPeriod(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-02", 11000, core.KindIncome),
		tx("2024-03-03", 5500, core.KindExpense),
		tx("2024-02-25", 10000, core.KindIncome),
		tx("2024-02-20", 5000, core.KindExpense),
		tx("2024-02-19", 99999, core.KindIncome), // just outside the previous window
	}
	got := Summarize(txs, rng("2024-03-01", "2024-03-10"))

	if got.PrevIncome.Cents != 10000 || got.PrevExpenses.Cents != 5000 {
		t.Fatalf("prev income=%d expenses=%d", got.PrevIncome.Cents, got.PrevExpenses.Cents)
	}
	if !approx(got.IncomeChangePct, 10) {
		t.Errorf("IncomeChangePct = %v, want 10", got.IncomeChangePct)
	}
	if !approx(got.ExpensesChangePct, 10) {
		t.Errorf("ExpensesChangePct = %v, want 10", got.ExpensesChangePct)
	}
	if got.SavingsRate != 50 || got.PrevSavingsRate != 50 || got.SavingsRateChangePct != 0 {
		t.Errorf("savings rates = %v / %v (change %v)", got.SavingsRate, got.PrevSavingsRate, got.SavingsRateChangePct)
	}
}

func TestSummarizeZeroBaseline(t *testing.T) {
	txs := []core.Transaction{tx("2024-03-05", 5000, core.KindIncome)}
	got := Summarize(txs, rng("2024-03-01", "2024-03-10"))
	if got.IncomeChangePct != 0 {
		t.Fatalf("IncomeChangePct = %v, want 0", got.IncomeChangePct)
	}
	if got.PrevSavingsRate != 0 || got.SavingsRateChangePct != 0 {
		t.Fatalf("prev savings rate = %v, change = %v", got.PrevSavingsRate, got.SavingsRateChangePct)
	}
}

func TestSummarizeIgnoresMalformedRecords(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-01-05", 10000, core.KindIncome),
		{Amount: core.Money{Cents: 500}, Kind: core.KindIncome}, // no date
		tx("2024-01-06", 700, core.Kind("transfer")),
		tx("2024-01-07", -300, core.KindExpense),
		tx("2024-01-08", 0, core.KindExpense),
	}
	txs = append(txs, core.TransactionsFromRecords([]core.TransactionRecord{
		{Date: "2024-01-09", Amount: "abc", Type: "expense"},
		{Date: "31/01/2024", Amount: "20", Type: "income"},
	})...)

	got := Summarize(txs, rng("2024-01-01", "2024-01-31"))
	if got.TotalIncome.Cents != 10000 || got.TotalExpenses.Cents != 0 {
		t.Fatalf("income=%d expenses=%d", got.TotalIncome.Cents, got.TotalExpenses.Cents)
	}
	if got.SavingsRate != 100 {
		t.Fatalf("SavingsRate = %v, want 100", got.SavingsRate)
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-02", 12345, core.KindIncome),
		tx("2024-03-03", 678, core.KindExpense),
		tx("2024-02-22", 9000, core.KindIncome),
		tx("2024-02-23", 10000, core.KindExpense),
	}
	r := rng("2024-03-01", "2024-03-10")
	first := Summarize(txs, r)
	second := Summarize(txs, r)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestSummarizeOutputIsFinite(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-03-02", 100, core.KindExpense),
		tx("2024-02-25", 100, core.KindIncome),
		tx("2024-02-26", 500, core.KindExpense),
	}
	got := Summarize(txs, rng("2024-03-01", "2024-03-10"))
	for name, v := range map[string]float64{
		"SavingsRate":          got.SavingsRate,
		"PrevSavingsRate":      got.PrevSavingsRate,
		"IncomeChangePct":      got.IncomeChangePct,
		"ExpensesChangePct":    got.ExpensesChangePct,
		"SavingsRateChangePct": got.SavingsRateChangePct,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", name, v)
		}
	}
	if got.TotalBalance.Cents != -100 {
		t.Errorf("TotalBalance = %d, want -100", got.TotalBalance.Cents)
	}
}

func TestPctChange(t *testing.T) {
	cases := []struct {
		curr, prev, want float64
	}{
		{110, 100, 10},
		{50, 0, 0},
		{0, 0, 0},
		{-5, 0, 0},
		{50, 100, -50},
		{0, 100, -100},
		{math.NaN(), 10, 0},
	}
	for _, tc := range cases {
		if got := PctChange(tc.curr, tc.prev); !approx(got, tc.want) {
			t.Errorf("PctChange(%v, %v) = %v, want %v", tc.curr, tc.prev, got, tc.want)
		}
	}
}

func TestSavingsRate(t *testing.T) {
	cases := []struct {
		income, expenses, want float64
	}{
		{100, 40, 60},
		{100, 0, 100},
		{0.01, 0, 100},
		{0, 50, 0},
		{-10, 5, 0},
		{100, 150, -50},
		{math.NaN(), 1, 0},
	}
	for _, tc := range cases {
		if got := SavingsRate(tc.income, tc.expenses); !approx(got, tc.want) {
			t.Errorf("SavingsRate(%v, %v) = %v, want %v", tc.income, tc.expenses, got, tc.want)
		}
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarizeHugeAmountsDoNotWrap(t *testing.T) {
	records := []core.TransactionRecord{
		{Date: "2024-01-01", Amount: "46116860184273879.03", Type: "income"},
		{Date: "2024-01-02", Amount: "46116860184273879.03", Type: "income"},
		{Date: "2024-01-03", Amount: "46116860184273879.03", Type: "income"},
		{Date: "2024-01-04", Amount: "9999999999.99", Type: "income"},
		{Date: "2024-01-05", Amount: "100", Type: "expense"},
	}
	got := Summarize(core.TransactionsFromRecords(records), rng("2024-01-01", "2024-01-31"))
	if got.TotalIncome.Cents != core.MaxAmountCents {
		t.Fatalf("TotalIncome = %s, want only the in-limit record", got.TotalIncome)
	}
	if got.TotalBalance.Cents != core.MaxAmountCents-10000 || got.SavingsRate <= 99 {
		t.Errorf("balance=%s rate=%v", got.TotalBalance, got.SavingsRate)
	}

	// Built in code, past the parser: still ignored.
	txs := []core.Transaction{tx("2024-01-10", math.MaxInt64/2, core.KindIncome)}
	if got := Summarize(txs, rng("2024-01-01", "2024-01-31")); got.TotalIncome.Cents != 0 || got.Count != 0 {
		t.Errorf("oversized transaction counted: %+v", got)
	}
}

func TestAddSaturating(t *testing.T) {
	got := addSaturating(core.Money{Cents: math.MaxInt64 - 5}, core.Money{Cents: core.MaxAmountCents})
	if got.Cents != math.MaxInt64 {
		t.Errorf("addSaturating = %d, want MaxInt64", got.Cents)
	}
	if got := addSaturating(core.Money{Cents: 150}, core.Money{Cents: 250}); got.Cents != 400 {
		t.Errorf("addSaturating = %d, want 400", got.Cents)
	}
}
