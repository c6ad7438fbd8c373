package report

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/sheets"
	"fintrack/internal/summary"
)

// Source yields the transactions a report for r needs. Sources may return
// more than that; the aggregator filters by date.
type Source interface {
	Transactions(ctx context.Context, r summary.DateRange) ([]core.Transaction, error)
}

// RecordSource serves records already in memory, typically a loaded file.
type RecordSource []core.TransactionRecord

func (s RecordSource) Transactions(context.Context, summary.DateRange) ([]core.Transaction, error) {
	return core.TransactionsFromRecords(s), nil
}

// StoreSource reads the current and previous period from a backend.
type StoreSource struct {
	Store ports.TransactionStore
}

func (s StoreSource) Transactions(ctx context.Context, r summary.DateRange) ([]core.Transaction, error) {
	if !r.Present() {
		return nil, nil
	}
	txs, err := s.Store.ListTransactions(ctx, ports.TransactionFilter{Start: r.Previous().From, End: r.To})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// SheetSource reads the yearly export sheets covering both periods.
type SheetSource struct {
	Reader sheets.RecordReader
}

func (s SheetSource) Transactions(ctx context.Context, r summary.DateRange) ([]core.Transaction, error) {
	if !r.Present() {
		return nil, nil
	}
	var records []core.TransactionRecord
	for year := r.Previous().From.Year(); year <= r.To.Year(); year++ {
		recs, err := s.Reader.Records(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("read %d sheet: %w", year, err)
		}
		records = append(records, recs...)
	}
	return core.TransactionsFromRecords(records), nil
}

// Summary loads from src and compares r with the period before it.
func Summary(ctx context.Context, src Source, r summary.DateRange) (summary.Comparison, error) {
	txs, err := src.Transactions(ctx, r)
	if err != nil {
		return summary.Comparison{}, err
	}
	return summary.Summarize(txs, r), nil
}

// Overview loads from src and buckets r by month.
func Overview(ctx context.Context, src Source, r summary.DateRange) ([]summary.MonthTotals, error) {
	txs, err := src.Transactions(ctx, r)
	if err != nil {
		return nil, err
	}
	return summary.MonthlyOverview(txs, r), nil
}

// CurrentMonth is the range of the month containing now.
func CurrentMonth(now time.Time) summary.DateRange {
	return summary.Month(now.Year(), now.Month())
}
