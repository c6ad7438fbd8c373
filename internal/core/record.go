package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// TransactionRecord is a transaction as it arrives from outside: every field
// is loosely typed. Amount may be a JSON string or number.
type TransactionRecord struct {
	ID       int64      `json:"id,omitempty" yaml:"id,omitempty"`
	Title    string     `json:"title,omitempty" yaml:"title,omitempty"`
	Date     string     `json:"transaction_date" yaml:"transaction_date"`
	Amount   FlexAmount `json:"amount" yaml:"amount"`
	Type     string     `json:"type" yaml:"type"`
	Category int64      `json:"category,omitempty" yaml:"category,omitempty"`
}

// FlexAmount keeps the raw text of an amount so malformed values can be
// coerced instead of failing the whole decode.
type FlexAmount string

func (a *FlexAmount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = FlexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*a = FlexAmount(n.String())
		return nil
	}
	// Anything else (objects, booleans, null) is malformed; keep it empty.
	*a = ""
	return nil
}

func (a *FlexAmount) UnmarshalText(b []byte) error {
	*a = FlexAmount(b)
	return nil
}

// Transaction converts the record without failing: an unparseable date
// becomes the zero Date, a malformed amount becomes zero and an unknown type
// is kept as-is so it matches neither kind.
func (r TransactionRecord) Transaction() Transaction {
	date, _ := ParseDate(r.Date)
	return Transaction{
		ID:         r.ID,
		Title:      r.Title,
		Amount:     Money{Cents: CoerceCents(string(r.Amount))},
		Kind:       Kind(strings.ToLower(strings.TrimSpace(r.Type))),
		CategoryID: r.Category,
		Date:       date,
	}
}

// RecordFromTransaction is the inverse used when serving stored data.
func RecordFromTransaction(t Transaction) TransactionRecord {
	return TransactionRecord{
		ID:       t.ID,
		Title:    t.Title,
		Date:     t.Date.String(),
		Amount:   FlexAmount(t.Amount.String()),
		Type:     string(t.Kind),
		Category: t.CategoryID,
	}
}

// TransactionsFromRecords converts a batch with Transaction.
func TransactionsFromRecords(records []TransactionRecord) []Transaction {
	out := make([]Transaction, 0, len(records))
	for _, r := range records {
		out = append(out, r.Transaction())
	}
	return out
}

// ParseID parses a positive database identifier.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
