package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/summary"
)

const (
	maxBodyBytes = 1 << 20
	pageSize     = 100
)

// errBadRequest marks input that could not be decoded at all.
var errBadRequest = errors.New("malformed request")

type transactionInput struct {
	Title    string          `json:"title"`
	Amount   core.FlexAmount `json:"amount"`
	Type     string          `json:"type"`
	Category *int64          `json:"category"`
	Date     string          `json:"transaction_date"`
}

type categoryInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type budgetInput struct {
	Category int64           `json:"category"`
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Limit    core.FlexAmount `json:"limit_amount"`
}

type summaryInput struct {
	Start        string                   `json:"start"`
	End          string                   `json:"end"`
	Transactions []core.TransactionRecord `json:"transactions"`
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

// toTransaction validates the input strictly; unlike raw summary records,
// a stored transaction never carries a coerced amount or date.
func (in transactionInput) toTransaction() (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(string(in.Amount))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	kind, err := core.ParseKind(in.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("type: %w", err)
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction_date: %w", core.ErrZeroDate)
	}
	t := core.Transaction{
		Title:  strings.TrimSpace(in.Title),
		Amount: core.Money{Cents: cents},
		Kind:   kind,
		Date:   date,
	}
	if in.Category != nil {
		if *in.Category <= 0 {
			return core.Transaction{}, fmt.Errorf("category: %w", core.ErrInvalidCategory)
		}
		t.CategoryID = *in.Category
	}
	return t, t.Validate()
}

func (in categoryInput) toCategory() (core.Category, error) {
	kind, err := core.ParseKind(in.Type)
	if err != nil {
		return core.Category{}, fmt.Errorf("type: %w", err)
	}
	c := core.Category{Name: strings.TrimSpace(in.Name), Kind: kind}
	return c, c.Validate()
}

func (in budgetInput) toBudget() (core.Budget, error) {
	var cents int64
	if s := strings.TrimSpace(string(in.Limit)); s != "0" && s != "0.00" {
		var err error
		if cents, err = core.ParseDecimalToCents(s); err != nil {
			return core.Budget{}, fmt.Errorf("limit_amount: %w", err)
		}
	}
	b := core.Budget{CategoryID: in.Category, Month: in.Month, Year: in.Year, Limit: core.Money{Cents: cents}}
	return b, b.Validate()
}

// parseTransactionFilter reads the listing query parameters. Unparseable
// dates and categories are errors; an unknown ordering falls back to the
// default.
func parseTransactionFilter(r *http.Request) (ports.TransactionFilter, error) {
	q := r.URL.Query()
	f := ports.TransactionFilter{
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
	}
	var err error
	if s := q.Get("start_date"); s != "" {
		if f.Start, err = core.ParseDate(s); err != nil {
			return f, fmt.Errorf("%w: start_date", errBadRequest)
		}
	}
	if s := q.Get("end_date"); s != "" {
		if f.End, err = core.ParseDate(s); err != nil {
			return f, fmt.Errorf("%w: end_date", errBadRequest)
		}
	}
	if s := q.Get("category"); s != "" {
		id, ok := core.ParseID(s)
		if !ok {
			return f, fmt.Errorf("%w: category", errBadRequest)
		}
		f.CategoryID = id
	}
	if s := q.Get("type"); s != "" {
		if f.Kind, err = core.ParseKind(s); err != nil {
			return f, fmt.Errorf("%w: type", errBadRequest)
		}
	}
	return f, nil
}

// parsePage returns the 1-based page number; false means it is not a
// positive integer.
func parsePage(r *http.Request) (int, bool) {
	s := r.URL.Query().Get("page")
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// parseRange reads start/end; anything missing or malformed is an absent
// range, which the aggregator reports as zeros.
func parseRange(r *http.Request) summary.DateRange {
	q := r.URL.Query()
	return summary.ParseDateRange(q.Get("start"), q.Get("end"))
}

// parseYearMonth defaults to the current month.
func parseYearMonth(r *http.Request, now time.Time) (int, time.Month, error) {
	q := r.URL.Query()
	year, month := now.Year(), now.Month()
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1900 || y > 9999 {
			return 0, 0, core.ErrInvalidYear
		}
		year = y
	}
	if s := q.Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, core.ErrInvalidMonth
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func pathID(r *http.Request) (int64, bool) {
	return core.ParseID(r.PathValue("id"))
}

// pageURL rebuilds the request URL pointing at page n.
func pageURL(r *http.Request, n int) *string {
	u := *r.URL
	u.Host = r.Host
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	q := u.Query()
	if n == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// paginate cuts items to page n of pageSize and fills the envelope links.
func paginate[T any](r *http.Request, items []T, n int) (Page[T], bool) {
	total := len(items)
	start := (n - 1) * pageSize
	if start > 0 && start >= total {
		return Page[T]{}, false
	}
	end := min(start+pageSize, total)

	p := Page[T]{Count: total, Results: items[start:end]}
	if p.Results == nil {
		p.Results = []T{}
	}
	if end < total {
		p.Next = pageURL(r, n+1)
	}
	if n > 1 {
		p.Previous = pageURL(r, n-1)
	}
	return p, true
}
