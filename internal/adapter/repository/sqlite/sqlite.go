// Package sqlite provides repository implementations backed by an embedded
// SQLite database. Amounts are stored as decimal strings so no precision is
// lost crossing the storage boundary.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"budgetpulse/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// DB wraps the SQLite handle and exposes the two repositories.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc.org/sqlite is not safe for concurrent writers on one connection.
	db.SetMaxOpenConns(1)

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			type TEXT NOT NULL,
			date TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			recurring INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			budget_amount TEXT NOT NULL,
			spent_amount TEXT NOT NULL,
			period TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Transactions returns the transaction repository view of the database.
func (s *DB) Transactions() *TransactionStore { return &TransactionStore{db: s.db} }

// Budgets returns the budget repository view of the database.
func (s *DB) Budgets() *BudgetStore { return &BudgetStore{db: s.db} }

func (s *DB) Close() error { return s.db.Close() }

// TransactionStore implements domain.TransactionRepository over SQLite.
type TransactionStore struct {
	db *sql.DB
}

func (s *TransactionStore) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, description, category, type, date, notes, recurring, created_at, updated_at
		FROM transactions ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *TransactionStore) Add(ctx context.Context, tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, description, category, type, date, notes, recurring, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.Amount.String(), tx.Description, tx.Category, string(tx.Type),
		formatTime(tx.Date), tx.Notes, boolToInt(tx.Recurring),
		formatTime(tx.CreatedAt), formatTime(tx.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) Update(ctx context.Context, tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, description = ?, category = ?, type = ?, date = ?, notes = ?, recurring = ?, updated_at = ?
		WHERE id = ?`,
		tx.Amount.String(), tx.Description, tx.Category, string(tx.Type),
		formatTime(tx.Date), tx.Notes, boolToInt(tx.Recurring), formatTime(tx.UpdatedAt),
		tx.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (s *TransactionStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// BudgetStore implements domain.BudgetRepository over SQLite.
type BudgetStore struct {
	db *sql.DB
}

func (s *BudgetStore) List(ctx context.Context) ([]domain.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, budget_amount, spent_amount, period, start_date, end_date, active, created_at, updated_at
		FROM budgets ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *BudgetStore) Add(ctx context.Context, b domain.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, category, budget_amount, spent_amount, period, start_date, end_date, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.Category, b.BudgetAmount.String(), b.SpentAmount.String(), string(b.Period),
		formatTime(b.StartDate), formatTime(b.EndDate), boolToInt(b.Active),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *BudgetStore) Update(ctx context.Context, b domain.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets
		SET category = ?, budget_amount = ?, spent_amount = ?, period = ?, start_date = ?, end_date = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		b.Category, b.BudgetAmount.String(), b.SpentAmount.String(), string(b.Period),
		formatTime(b.StartDate), formatTime(b.EndDate), boolToInt(b.Active), formatTime(b.UpdatedAt),
		b.ID.String())
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (s *BudgetStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var tx domain.Transaction
	var id, amount, txType, date, createdAt, updatedAt string
	var recurring int
	err := row.Scan(&id, &amount, &tx.Description, &tx.Category, &txType, &date, &tx.Notes, &recurring, &createdAt, &updatedAt)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if tx.ID, err = uuid.Parse(id); err != nil {
		return domain.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Transaction{}, fmt.Errorf("parse transaction amount: %w", err)
	}
	tx.Type = domain.TransactionType(txType)
	tx.Recurring = recurring != 0
	if tx.Date, err = parseTime(date); err != nil {
		return domain.Transaction{}, err
	}
	if tx.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Transaction{}, err
	}
	if tx.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func scanBudget(row rowScanner) (domain.Budget, error) {
	var b domain.Budget
	var id, budgetAmount, spentAmount, period, start, end, createdAt, updatedAt string
	var active int
	err := row.Scan(&id, &b.Category, &budgetAmount, &spentAmount, &period, &start, &end, &active, &createdAt, &updatedAt)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	if b.ID, err = uuid.Parse(id); err != nil {
		return domain.Budget{}, fmt.Errorf("parse budget id: %w", err)
	}
	if b.BudgetAmount, err = decimal.NewFromString(budgetAmount); err != nil {
		return domain.Budget{}, fmt.Errorf("parse budget amount: %w", err)
	}
	if b.SpentAmount, err = decimal.NewFromString(spentAmount); err != nil {
		return domain.Budget{}, fmt.Errorf("parse spent amount: %w", err)
	}
	b.Period = domain.BudgetPeriod(period)
	b.Active = active != 0
	if b.StartDate, err = parseTime(start); err != nil {
		return domain.Budget{}, err
	}
	if b.EndDate, err = parseTime(end); err != nil {
		return domain.Budget{}, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Budget{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Budget{}, err
	}
	return b, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
