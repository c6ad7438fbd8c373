// Package storage is the SQLite backend. Schema changes live in
// migrations/ and are applied on open.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"

	_ "modernc.org/sqlite"
)

const transactionColumns = "id, title, amount_cents, kind, COALESCE(category_id, 0), transaction_date, created_at, updated_at"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name, kind) VALUES (?, ?)", c.Name, string(c.Kind))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	err := r.db.QueryRowContext(ctx, "SELECT id, name, kind FROM categories WHERE id = ?", id).Scan(&c.ID, &c.Name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Kind = core.Kind(kind)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, kind FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c    core.Category
			kind string
		)
		if err := rows.Scan(&c.ID, &c.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.Kind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "categories", "category", id)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := r.checkCategory(ctx, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = r.now().UTC().Truncate(time.Second)
	t.UpdatedAt = t.CreatedAt

	res, err := r.db.ExecContext(ctx, `INSERT INTO transactions
		(title, amount_cents, kind, category_id, transaction_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Amount.Cents, string(t.Kind), nullableID(t.CategoryID), t.Date.String(),
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := r.checkCategory(ctx, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	t.UpdatedAt = r.now().UTC().Truncate(time.Second)

	res, err := r.db.ExecContext(ctx, `UPDATE transactions
		SET title = ?, amount_cents = ?, kind = ?, category_id = ?, transaction_date = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Amount.Cents, string(t.Kind), nullableID(t.CategoryID), t.Date.String(),
		t.UpdatedAt.Format(time.RFC3339), t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "transactions", "transaction", id)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	where, args := TransactionWhere(SQLite, f)
	rows, err := r.db.QueryContext(ctx, "SELECT "+transactionColumns+" FROM transactions"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, bool, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, false, err
	}
	if err := r.checkCategory(ctx, b.CategoryID); err != nil {
		return core.Budget{}, false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, "SELECT id FROM budgets WHERE category_id = ? AND month = ? AND year = ?",
		b.CategoryID, b.Month, b.Year).Scan(&b.ID)
	created := errors.Is(err, sql.ErrNoRows)
	switch {
	case created:
		res, err := tx.ExecContext(ctx, "INSERT INTO budgets (category_id, month, year, limit_cents) VALUES (?, ?, ?, ?)",
			b.CategoryID, b.Month, b.Year, b.Limit.Cents)
		if err != nil {
			return core.Budget{}, false, fmt.Errorf("insert budget: %w", err)
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return core.Budget{}, false, fmt.Errorf("budget id: %w", err)
		}
	case err != nil:
		return core.Budget{}, false, fmt.Errorf("find budget: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, "UPDATE budgets SET limit_cents = ? WHERE id = ?", b.Limit.Cents, b.ID); err != nil {
			return core.Budget{}, false, fmt.Errorf("update budget: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Budget{}, false, fmt.Errorf("commit: %w", err)
	}
	return b, created, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, category_id, month, year, limit_cents FROM budgets
		WHERE (? = 0 OR year = ?) AND (? = 0 OR month = ?) ORDER BY id`, year, year, month, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Month, &b.Year, &b.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "budgets", "budget", id)
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, table, noun string, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", noun, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %d: %w", noun, id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) checkCategory(ctx context.Context, id int64) error {
	if id == 0 {
		return nil
	}
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("category %d: %w", id, core.ErrInvalidCategory)
	}
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var t core.Transaction
	var kind, date, created, updated string
	if err := s.Scan(&t.ID, &t.Title, &t.Amount.Cents, &kind, &t.CategoryID, &date, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	// Rows are written by this package; a bad date leaves the zero value,
	// which every consumer treats as malformed.
	t.Date, _ = core.ParseDate(date)
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return t, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
