package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: t.TempDir() + "/nope.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("err = %v", err)
	}
}

func TestClient_Append(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Values [][]any `json:"values"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "USER_ENTERED" {
			t.Errorf("valueInputOption = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"updates":{"updatedRange":"'2024 Transactions'!A7:E7"}}`))
	})

	row := ports.RowFor(core.Transaction{
		Title:  "Groceries",
		Amount: core.Money{Cents: 4250},
		Kind:   core.KindExpense,
		Date:   core.NewDate(2024, 3, 5),
	}, "Food")

	ref, err := c.Append(context.Background(), row)
	if err != nil {
		t.Fatalf("Append() = %v", err)
	}
	if ref != "'2024 Transactions'!A7:E7" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "2024 Transactions") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("path = %q", gotPath)
	}
	if len(gotBody.Values) != 1 {
		t.Fatalf("values = %v", gotBody.Values)
	}
	want := []string{"2024-03-05", "Groceries", "expense", "42.50", "Food"}
	for i, v := range want {
		if gotBody.Values[0][i] != v {
			t.Errorf("cell %d = %v, want %q", i, gotBody.Values[0][i], v)
		}
	}
}

func TestClient_AppendValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Transactions"}

	_, err := c.Append(context.Background(), ports.Row{Title: "x", Kind: core.KindExpense, Amount: core.Money{Cents: 1}})
	if !errors.Is(err, core.ErrZeroDate) {
		t.Fatalf("err = %v, want ErrZeroDate", err)
	}

	_, err = c.Append(context.Background(), ports.Row{Date: core.NewDate(2024, 1, 1), Title: "x", Kind: core.KindIncome, Amount: core.Money{Cents: 1}})
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Fatalf("err = %v", err)
	}
}

func TestClient_Records(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "2023 Transactions") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"values":[["Date","Title","Kind","Amount","Category"],["2023-05-01","Pay","income","1000.00","Salary"]]}`))
	})

	records, err := c.Records(context.Background(), 2023)
	if err != nil {
		t.Fatalf("Records() = %v", err)
	}
	if len(records) != 1 || records[0].Title != "Pay" || records[0].Amount != "1000.00" {
		t.Fatalf("records = %+v", records)
	}
	if tx := records[0].Transaction(); tx.Amount.Cents != 100000 || tx.Kind != core.KindIncome {
		t.Errorf("transaction = %+v", tx)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Transactions", 2025, "2025 Transactions"},
		{"", 2023, ""},
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
		{"12345 Numbers", 2024, "2024 12345 Numbers"},
	}

	for _, tt := range tests {
		if got := yearPrefixedName(tt.baseName, tt.year); got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestParseRows(t *testing.T) {
	tests := []struct {
		name   string
		values [][]any
		want   []core.TransactionRecord
	}{
		{"empty", nil, nil},
		{
			name: "header reorders columns",
			values: [][]any{
				{"Amount", "Date", "Kind", "Title"},
				{"12,50", "2024-01-02", "Expense", "Lunch"},
			},
			want: []core.TransactionRecord{{Title: "Lunch", Date: "2024-01-02", Amount: "12,50", Type: "Expense"}},
		},
		{
			name: "no header uses export order and skips blank rows",
			values: [][]any{
				{"2024-01-02", "Lunch", "expense", "12.50", "Food"},
				{"", "", ""},
				{"2024-01-03", "Short"},
			},
			want: []core.TransactionRecord{
				{Title: "Lunch", Date: "2024-01-02", Amount: "12.50", Type: "expense"},
				{Title: "Short", Date: "2024-01-03"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRows(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("record %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
