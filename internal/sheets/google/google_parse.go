package google

import (
	"strings"

	"fintrack/internal/core"
)

// parseRows converts a values matrix (as returned by the Sheets API) into
// records. A first row naming Date and Amount is treated as the header and
// fixes the column order; without it the export order is assumed. Cells are
// kept raw so malformed rows coerce the same way as any other input.
func parseRows(values [][]any) []core.TransactionRecord {
	if len(values) == 0 {
		return nil
	}
	cols := map[string]int{"date": 0, "title": 1, "kind": 2, "amount": 3, "category": 4}
	start := 0
	if header := toStrings(values[0]); indexOf(header, "Date") != -1 && indexOf(header, "Amount") != -1 {
		for name := range cols {
			cols[name] = indexOf(header, name)
		}
		start = 1
	}

	out := make([]core.TransactionRecord, 0, len(values)-start)
	for _, raw := range values[start:] {
		row := toStrings(raw)
		if strings.Join(row, "") == "" {
			continue
		}
		out = append(out, core.TransactionRecord{
			Title:  safeGet(row, cols["title"]),
			Date:   safeGet(row, cols["date"]),
			Amount: core.FlexAmount(safeGet(row, cols["amount"])),
			Type:   safeGet(row, cols["kind"]),
		})
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
