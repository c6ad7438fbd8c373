package storage

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Dialect captures what differs between the SQL backends when building
// transaction listings.
type Dialect struct {
	Placeholder func(n int) string
	Like        string
	DateArg     func(core.Date) any
}

var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	Like:        "LIKE",
	DateArg:     func(d core.Date) any { return d.String() },
}

// TransactionWhere renders the WHERE, ORDER BY and LIMIT clauses for f.
// Placeholders are numbered from 1.
func TransactionWhere(d Dialect, f ports.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(expr, d.Placeholder(len(args))))
	}

	if !f.Start.IsZero() {
		add("transaction_date >= %s", d.DateArg(f.Start))
	}
	if !f.End.IsZero() {
		add("transaction_date <= %s", d.DateArg(f.End))
	}
	if f.CategoryID != 0 {
		add("category_id = %s", f.CategoryID)
	}
	if f.Kind != "" {
		add("kind = %s", string(f.Kind))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("title "+d.Like+" %s", "%"+s+"%")
	}

	var b strings.Builder
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(orderClause(f.NormalizedOrdering()))
	if f.Limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", f.Limit))
	}
	return b.String(), args
}

func orderClause(ordering string) string {
	switch ordering {
	case ports.OrderDateAsc:
		return "transaction_date ASC, id DESC"
	case ports.OrderAmountAsc:
		return "amount_cents ASC, id DESC"
	case ports.OrderAmountDesc:
		return "amount_cents DESC, id DESC"
	default:
		return "transaction_date DESC, id DESC"
	}
}
