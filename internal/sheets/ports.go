// Package sheets describes the spreadsheet export of transactions.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Header is the first row of an export sheet; Row.Values follows its order.
var Header = []any{"Date", "Title", "Kind", "Amount", "Category"}

// Row is one exported transaction.
type Row struct {
	Date     core.Date
	Title    string
	Kind     core.Kind
	Amount   core.Money
	Category string
}

// Ports for outbound adapters.
type (
	RowWriter interface {
		Append(ctx context.Context, row Row) (rowRef string, err error)
	}

	// RecordReader reads exported rows back as loosely typed records.
	RecordReader interface {
		Records(ctx context.Context, year int) ([]core.TransactionRecord, error)
	}
)

// RowFor builds the export row of t. An empty category is written as-is.
func RowFor(t core.Transaction, category string) Row {
	return Row{
		Date:     t.Date,
		Title:    t.Title,
		Kind:     t.Kind,
		Amount:   t.Amount,
		Category: category,
	}
}

func (r Row) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if r.Title == "" {
		return core.ErrEmptyTitle
	}
	if !r.Kind.Valid() {
		return core.ErrInvalidKind
	}
	if r.Amount.Cents <= 0 {
		return core.ErrInvalidAmount
	}
	return nil
}

// Values renders the row as sheet cells. The amount is a plain decimal so
// the sheet's locale decides its display.
func (r Row) Values() []any {
	return []any{r.Date.String(), r.Title, string(r.Kind), r.Amount.String(), r.Category}
}
