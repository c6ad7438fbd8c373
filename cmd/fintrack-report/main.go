package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/services"
	"fintrack/internal/summary"
)

type options struct {
	from, to    string
	input       string
	db          string
	databaseURL string
	sheet       bool
	format      string
	output      string
	year, month int
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "fintrack-report",
		Short:         "Income and expense reports from files, databases or exported sheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.input, "input", "i", "", "JSON, YAML or TOML file of transaction records")
	pf.StringVar(&opts.db, "db", "", "SQLite database path")
	pf.StringVar(&opts.databaseURL, "database-url", "", "Postgres connection URL")
	pf.BoolVar(&opts.sheet, "sheet", false, "Read the Google Sheets export configured in the environment")
	pf.StringVarP(&opts.format, "format", "f", report.FormatTable, "Output format: table, json, csv or pdf")
	pf.StringVarP(&opts.output, "output", "o", "", "Write to this file instead of stdout")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Compare a date range with the period of equal length before it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummary(cmd.Context(), opts)
		},
	}
	summaryCmd.Flags().StringVar(&opts.from, "from", "", "First day of the range (YYYY-MM-DD)")
	summaryCmd.Flags().StringVar(&opts.to, "to", "", "Last day of the range (YYYY-MM-DD)")

	overviewCmd := &cobra.Command{
		Use:   "overview",
		Short: "Monthly income, expenses and balance over a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOverview(cmd.Context(), opts)
		},
	}
	overviewCmd.Flags().StringVar(&opts.from, "from", "", "First day of the range (YYYY-MM-DD)")
	overviewCmd.Flags().StringVar(&opts.to, "to", "", "Last day of the range (YYYY-MM-DD)")

	budgetsCmd := &cobra.Command{
		Use:   "budgets",
		Short: "Budget consumption for one month (database sources only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBudgets(cmd.Context(), opts)
		},
	}
	now := time.Now()
	budgetsCmd.Flags().IntVar(&opts.year, "year", now.Year(), "Budget year")
	budgetsCmd.Flags().IntVar(&opts.month, "month", int(now.Month()), "Budget month (1-12)")

	root.AddCommand(summaryCmd, overviewCmd, budgetsCmd)
	return root
}

func runSummary(ctx context.Context, opts *options) error {
	src, doc, closeFn, err := openSource(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	r, err := resolveRange(opts, doc)
	if err != nil {
		return err
	}
	c, err := report.Summary(ctx, src, r)
	if err != nil {
		return err
	}
	return withOutput(opts.output, func(w io.Writer) error {
		return report.WriteSummary(w, c, opts.format)
	})
}

func runOverview(ctx context.Context, opts *options) error {
	src, doc, closeFn, err := openSource(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	r, err := resolveRange(opts, doc)
	if err != nil {
		return err
	}
	months, err := report.Overview(ctx, src, r)
	if err != nil {
		return err
	}
	return withOutput(opts.output, func(w io.Writer) error {
		return report.WriteOverview(w, months, opts.format)
	})
}

func runBudgets(ctx context.Context, opts *options) error {
	if opts.month < 1 || opts.month > 12 {
		return fmt.Errorf("invalid month %d", opts.month)
	}
	res, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	if res == nil {
		return errors.New("budgets need --db or --database-url")
	}
	defer res.Close()

	statuses, err := services.NewDashboardService(res.Store).Budgets(ctx, opts.year, time.Month(opts.month))
	if err != nil {
		return err
	}
	return withOutput(opts.output, func(w io.Writer) error {
		return report.WriteBudgets(w, statuses, opts.format)
	})
}

// openSource picks exactly one of --input, --db, --database-url or --sheet.
func openSource(ctx context.Context, opts *options) (report.Source, *report.Document, func(), error) {
	n := 0
	for _, set := range []bool{opts.input != "", opts.db != "", opts.databaseURL != "", opts.sheet} {
		if set {
			n++
		}
	}
	if n != 1 {
		return nil, nil, nil, errors.New("choose exactly one source: --input, --db, --database-url or --sheet")
	}
	noop := func() {}

	switch {
	case opts.input != "":
		doc, err := report.LoadFile(opts.input)
		if err != nil {
			return nil, nil, nil, err
		}
		return report.RecordSource(doc.Transactions), doc, noop, nil
	case opts.sheet:
		cfg := config.Load()
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		}, quietLogger())
		if err != nil {
			return nil, nil, nil, err
		}
		return report.SheetSource{Reader: client}, nil, noop, nil
	default:
		res, err := openStore(ctx, opts)
		if err != nil {
			return nil, nil, nil, err
		}
		return report.StoreSource{Store: res.Store}, nil, func() { _ = res.Close() }, nil
	}
}

// openStore returns nil when no database flag is set.
func openStore(ctx context.Context, opts *options) (*backend.BackendResult, error) {
	var bc backend.Config
	switch {
	case opts.db != "":
		bc = backend.Config{Type: backend.SQLiteBackend, SQLiteDBPath: opts.db}
	case opts.databaseURL != "":
		bc = backend.Config{Type: backend.PostgresBackend, DatabaseURL: opts.databaseURL}
	default:
		return nil, nil
	}
	return backend.NewFactory(quietLogger().Logger).CreateBackend(ctx, bc)
}

// resolveRange prefers the flags and falls back to the input document. A
// missing or malformed range is reported instead of silently yielding zeros.
func resolveRange(opts *options, doc *report.Document) (summary.DateRange, error) {
	from, to := opts.from, opts.to
	if from == "" && to == "" && doc != nil {
		from, to = doc.Start, doc.End
	}
	if from == "" && to == "" {
		return report.CurrentMonth(time.Now()), nil
	}
	r := summary.ParseDateRange(from, to)
	if !r.Present() {
		return summary.DateRange{}, fmt.Errorf("invalid range %q..%q: need YYYY-MM-DD with from <= to", from, to)
	}
	return r, nil
}

func withOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	pterm.Success.Printfln("Report written to %s", path)
	return nil
}

// quietLogger keeps library logs off stdout, which carries the report.
func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: os.Stderr, Level: config.Load().SlogLevel(), Component: applog.ComponentReport})
}
