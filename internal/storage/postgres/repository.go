// Package postgres is the PostgreSQL backend built on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/storage"
)

const transactionColumns = "id, title, amount_cents, kind, COALESCE(category_id, 0), transaction_date, created_at, updated_at"

var dialect = storage.Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Like:        "ILIKE",
	DateArg:     func(d core.Date) any { return d.Time },
}

type Repository struct {
	pool *pgxpool.Pool
}

var _ ports.Store = (*Repository)(nil)

// NewRepository migrates the database at databaseURL and opens a pool.
func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	err := r.pool.QueryRow(ctx, "INSERT INTO categories (name, kind) VALUES ($1, $2) RETURNING id",
		c.Name, string(c.Kind)).Scan(&c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	err := r.pool.QueryRow(ctx, "SELECT id, name, kind FROM categories WHERE id = $1", id).Scan(&c.ID, &c.Name, &kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Kind = core.Kind(kind)
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, kind FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Category, error) {
		var (
			c    core.Category
			kind string
		)
		err := row.Scan(&c.ID, &c.Name, &kind)
		c.Kind = core.Kind(kind)
		return c, err
	})
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "categories", "category", id)
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := r.checkCategory(ctx, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO transactions (title, amount_cents, kind, category_id, transaction_date)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		t.Title, t.Amount.Cents, string(t.Kind), nullableID(t.CategoryID), t.Date.Time,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := r.checkCategory(ctx, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}
	updated, err := scanTransaction(r.pool.QueryRow(ctx, `UPDATE transactions
		SET title = $1, amount_cents = $2, kind = $3, category_id = $4, transaction_date = $5, updated_at = now()
		WHERE id = $6 RETURNING `+transactionColumns,
		t.Title, t.Amount.Cents, string(t.Kind), nullableID(t.CategoryID), t.Date.Time, t.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "transactions", "transaction", id)
}

func (r *Repository) ListTransactions(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	where, args := storage.TransactionWhere(dialect, f)
	rows, err := r.pool.Query(ctx, "SELECT "+transactionColumns+" FROM transactions"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return txs, nil
}

func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, bool, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, false, err
	}
	if err := r.checkCategory(ctx, b.CategoryID); err != nil {
		return core.Budget{}, false, err
	}
	var created bool
	err := r.pool.QueryRow(ctx, `INSERT INTO budgets (category_id, month, year, limit_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category_id, month, year) DO UPDATE SET limit_cents = EXCLUDED.limit_cents
		RETURNING id, (xmax = 0)`,
		b.CategoryID, b.Month, b.Year, b.Limit.Cents).Scan(&b.ID, &created)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("upsert budget: %w", err)
	}
	return b, created, nil
}

func (r *Repository) ListBudgets(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, category_id, month, year, limit_cents FROM budgets
		WHERE ($1 = 0 OR year = $1) AND ($2 = 0 OR month = $2) ORDER BY id`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Budget, error) {
		var (
			b     core.Budget
			month int16
		)
		err := row.Scan(&b.ID, &b.CategoryID, &month, &b.Year, &b.Limit.Cents)
		b.Month = int(month)
		return b, err
	})
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "budgets", "budget", id)
}

func (r *Repository) deleteByID(ctx context.Context, table, noun string, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", noun, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", noun, id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) checkCategory(ctx context.Context, id int64) error {
	if id == 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return fmt.Errorf("category %d: %w", id, core.ErrInvalidCategory)
	}
	return nil
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t    core.Transaction
		kind string
		date time.Time
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Amount.Cents, &kind, &t.CategoryID, &date, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.Date = core.DateOf(date)
	return t, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
