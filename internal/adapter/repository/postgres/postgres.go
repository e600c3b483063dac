// Package postgres provides repository implementations backed by PostgreSQL,
// for deployments where the analysis engine runs alongside a shared database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"budgetpulse/internal/domain"
)

var ErrNotFound = errors.New("record not found")

const pingTimeout = 5 * time.Second

// DB wraps the PostgreSQL handle and exposes the two repositories.
type DB struct {
	db *sql.DB
}

// Open connects to the database at url, verifies the connection and runs
// migrations.
func Open(ctx context.Context, url string) (*DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres database: %w", err)
	}

	s := &DB{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			amount NUMERIC(20, 4) NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			type TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			recurring BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id UUID PRIMARY KEY,
			category TEXT NOT NULL,
			budget_amount NUMERIC(20, 4) NOT NULL,
			spent_amount NUMERIC(20, 4) NOT NULL,
			period TEXT NOT NULL,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
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

// TransactionStore implements domain.TransactionRepository over PostgreSQL.
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
		var (
			tx             domain.Transaction
			id, amount, ty string
		)
		err := rows.Scan(&id, &amount, &tx.Description, &tx.Category, &ty,
			&tx.Date, &tx.Notes, &tx.Recurring, &tx.CreatedAt, &tx.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse transaction amount: %w", err)
		}
		tx.Type = domain.TransactionType(ty)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tx.ID, tx.Amount.String(), tx.Description, tx.Category, string(tx.Type),
		tx.Date, tx.Notes, tx.Recurring, tx.CreatedAt, tx.UpdatedAt)
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
		SET amount = $1, description = $2, category = $3, type = $4, date = $5, notes = $6, recurring = $7, updated_at = $8
		WHERE id = $9`,
		tx.Amount.String(), tx.Description, tx.Category, string(tx.Type),
		tx.Date, tx.Notes, tx.Recurring, tx.UpdatedAt, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (s *TransactionStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// BudgetStore implements domain.BudgetRepository over PostgreSQL.
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
		var (
			b                               domain.Budget
			id, budgetAmount, spent, period string
		)
		err := rows.Scan(&id, &b.Category, &budgetAmount, &spent, &period,
			&b.StartDate, &b.EndDate, &b.Active, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse budget id: %w", err)
		}
		if b.BudgetAmount, err = decimal.NewFromString(budgetAmount); err != nil {
			return nil, fmt.Errorf("parse budget amount: %w", err)
		}
		if b.SpentAmount, err = decimal.NewFromString(spent); err != nil {
			return nil, fmt.Errorf("parse spent amount: %w", err)
		}
		b.Period = domain.BudgetPeriod(period)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.Category, b.BudgetAmount.String(), b.SpentAmount.String(), string(b.Period),
		b.StartDate, b.EndDate, b.Active, b.CreatedAt, b.UpdatedAt)
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
		SET category = $1, budget_amount = $2, spent_amount = $3, period = $4, start_date = $5, end_date = $6, active = $7, updated_at = $8
		WHERE id = $9`,
		b.Category, b.BudgetAmount.String(), b.SpentAmount.String(), string(b.Period),
		b.StartDate, b.EndDate, b.Active, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (s *BudgetStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
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
