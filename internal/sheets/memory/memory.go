// Package memory keeps exported rows in process, for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Sheet struct {
	mu   sync.Mutex
	rows []ports.Row
}

var (
	_ ports.RowWriter    = (*Sheet)(nil)
	_ ports.RecordReader = (*Sheet)(nil)
)

func New() *Sheet {
	return &Sheet{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Sheet) Append(_ context.Context, row ports.Row) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Sheet) Rows() []ports.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Row(nil), s.rows...)
}

// Records returns the rows of year in append order.
func (s *Sheet) Records(_ context.Context, year int) ([]core.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.TransactionRecord
	for _, r := range s.rows {
		if r.Date.Year() != year {
			continue
		}
		out = append(out, core.TransactionRecord{
			Title:  r.Title,
			Date:   r.Date.String(),
			Amount: core.FlexAmount(r.Amount.String()),
			Type:   string(r.Kind),
		})
	}
	return out, nil
}
