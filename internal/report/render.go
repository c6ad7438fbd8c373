package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"fintrack/internal/core"
	"fintrack/internal/summary"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatPDF   = "pdf"
)

var (
	overStyle = color.New(color.FgRed, color.Bold).SprintFunc()
	warnStyle = color.New(color.FgYellow, color.Bold).SprintFunc()
	okStyle   = color.New(color.FgGreen).SprintFunc()
)

// amount renders money as a bare JSON decimal.
type amount core.Money

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(core.Money(a).String()), nil
}

type comparisonJSON struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	PreviousStart string `json:"previous_start"`
	PreviousEnd   string `json:"previous_end"`

	TotalBalance  amount  `json:"total_balance"`
	TotalIncome   amount  `json:"total_income"`
	TotalExpenses amount  `json:"total_expenses"`
	SavingsRate   float64 `json:"savings_rate"`

	PreviousIncome      amount  `json:"previous_income"`
	PreviousExpenses    amount  `json:"previous_expenses"`
	PreviousSavingsRate float64 `json:"previous_savings_rate"`

	IncomeChangePct      float64 `json:"income_change_pct"`
	ExpensesChangePct    float64 `json:"expenses_change_pct"`
	SavingsRateChangePct float64 `json:"savings_rate_change_pct"`
}

type monthJSON struct {
	Month    string `json:"month"`
	Income   amount `json:"income"`
	Expenses amount `json:"expenses"`
	Balance  amount `json:"balance"`
}

type budgetJSON struct {
	Category  string  `json:"category"`
	Limit     amount  `json:"limit_amount"`
	Spent     amount  `json:"spent"`
	Remaining amount  `json:"remaining"`
	Percent   float64 `json:"percent"`
	Over      bool    `json:"over"`
}

// WriteSummary renders c in format. PDF output is binary.
func WriteSummary(w io.Writer, c summary.Comparison, format string) error {
	switch format {
	case FormatTable, "":
		return summaryTable(w, c)
	case FormatJSON:
		return writeJSON(w, comparisonJSON{
			Start:                c.Range.From.String(),
			End:                  c.Range.To.String(),
			PreviousStart:        c.PreviousRange.From.String(),
			PreviousEnd:          c.PreviousRange.To.String(),
			TotalBalance:         amount(c.TotalBalance),
			TotalIncome:          amount(c.TotalIncome),
			TotalExpenses:        amount(c.TotalExpenses),
			SavingsRate:          c.SavingsRate,
			PreviousIncome:       amount(c.PrevIncome),
			PreviousExpenses:     amount(c.PrevExpenses),
			PreviousSavingsRate:  c.PrevSavingsRate,
			IncomeChangePct:      c.IncomeChangePct,
			ExpensesChangePct:    c.ExpensesChangePct,
			SavingsRateChangePct: c.SavingsRateChangePct,
		})
	case FormatCSV:
		return writeCSV(w, summaryRows(c))
	case FormatPDF:
		return summaryPDF(w, c)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteOverview renders the monthly series in format.
func WriteOverview(w io.Writer, months []summary.MonthTotals, format string) error {
	switch format {
	case FormatTable, "", FormatCSV:
		rows := [][]string{{"Month", "Income", "Expenses", "Balance"}}
		for _, m := range months {
			rows = append(rows, []string{monthLabel(m), m.Income.String(), m.Expenses.String(), m.Balance().String()})
		}
		if format == FormatCSV {
			return writeCSV(w, rows)
		}
		return renderTable(w, rows)
	case FormatJSON:
		out := make([]monthJSON, 0, len(months))
		for _, m := range months {
			out = append(out, monthJSON{Month: monthLabel(m), Income: amount(m.Income), Expenses: amount(m.Expenses), Balance: amount(m.Balance())})
		}
		return writeJSON(w, out)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteBudgets renders budget progress; the table marks warnings and
// overruns in color.
func WriteBudgets(w io.Writer, statuses []summary.BudgetStatus, format string) error {
	switch format {
	case FormatTable, "":
		rows := [][]string{{"Category", "Limit", "Spent", "Remaining", "Used", "Status"}}
		for _, s := range statuses {
			rows = append(rows, []string{
				s.CategoryName,
				s.Budget.Limit.String(),
				s.Spent.String(),
				s.Remaining.String(),
				pct(s.Percent),
				budgetState(s),
			})
		}
		return renderTable(w, rows)
	case FormatJSON:
		out := make([]budgetJSON, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, budgetJSON{
				Category:  s.CategoryName,
				Limit:     amount(s.Budget.Limit),
				Spent:     amount(s.Spent),
				Remaining: amount(s.Remaining),
				Percent:   s.Percent,
				Over:      s.Over,
			})
		}
		return writeJSON(w, out)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func summaryRows(c summary.Comparison) [][]string {
	return [][]string{
		{"Metric", "Current", "Previous", "Change"},
		{"Period", c.Range.String(), c.PreviousRange.String(), ""},
		{"Income", c.TotalIncome.String(), c.PrevIncome.String(), pct(c.IncomeChangePct)},
		{"Expenses", c.TotalExpenses.String(), c.PrevExpenses.String(), pct(c.ExpensesChangePct)},
		{"Balance", c.TotalBalance.String(), c.PrevIncome.Sub(c.PrevExpenses).String(), ""},
		{"Savings rate", pct(c.SavingsRate), pct(c.PrevSavingsRate), pct(c.SavingsRateChangePct)},
	}
}

func summaryTable(w io.Writer, c summary.Comparison) error {
	rows := summaryRows(c)
	rows[2][3] = changeStyle(c.IncomeChangePct, false)
	rows[3][3] = changeStyle(c.ExpensesChangePct, true)
	rows[5][3] = changeStyle(c.SavingsRateChangePct, false)
	return renderTable(w, rows)
}

// changeStyle colors a change green when it is good news. For expenses a
// rise is bad.
func changeStyle(v float64, inverse bool) string {
	s := pct(v)
	switch {
	case v == 0:
		return pterm.FgYellow.Sprint(s)
	case (v > 0) != inverse:
		return pterm.FgGreen.Sprint(s)
	default:
		return pterm.FgRed.Sprint(s)
	}
}

func budgetState(s summary.BudgetStatus) string {
	switch {
	case s.Over:
		return overStyle("OVER")
	case s.Warn():
		return warnStyle("WARN")
	default:
		return okStyle("OK")
	}
}

func renderTable(w io.Writer, rows [][]string) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData(rows)).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func monthLabel(m summary.MonthTotals) string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
