package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a transaction for analysis purposes
type TransactionType string

const (
	TypeIncome   TransactionType = "INCOME"
	TypeExpense  TransactionType = "EXPENSE"
	TypeTransfer TransactionType = "TRANSFER"
)

var (
	ErrNegativeAmount   = errors.New("transaction amount must not be negative")
	ErrEmptyDescription = errors.New("transaction description cannot be empty")
	ErrInvalidType      = errors.New("transaction type must be INCOME, EXPENSE or TRANSFER")
	ErrZeroDate         = errors.New("transaction date cannot be zero")
)

// Transaction represents a single financial transaction in the domain layer.
// Instances are treated as immutable values: field updates go through the
// With* constructors, which return a fresh copy with UpdatedAt stamped.
type Transaction struct {
	ID          uuid.UUID
	Amount      decimal.Decimal // ABSOLUTE VALUE (always >= 0)
	Description string
	Category    string
	Type        TransactionType
	Date        time.Time
	Notes       string
	Recurring   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTransaction creates a transaction dated now with a fresh identifier.
func NewTransaction(amount decimal.Decimal, description, category string, txType TransactionType) Transaction {
	now := time.Now()
	return Transaction{
		ID:          uuid.New(),
		Amount:      amount,
		Description: description,
		Category:    category,
		Type:        txType,
		Date:        now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate ensures the transaction adheres to domain rules
func (t Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	switch t.Type {
	case TypeIncome, TypeExpense, TypeTransfer:
	default:
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// IsExpense reports whether the transaction participates in expense-scoped analyses.
func (t Transaction) IsExpense() bool {
	return t.Type == TypeExpense
}

// IsIncome reports whether the transaction is an income entry.
func (t Transaction) IsIncome() bool {
	return t.Type == TypeIncome
}

// WithAmount returns a copy with the amount replaced and UpdatedAt stamped.
func (t Transaction) WithAmount(amount decimal.Decimal) Transaction {
	t.Amount = amount
	t.UpdatedAt = time.Now()
	return t
}

// WithDescription returns a copy with the description replaced and UpdatedAt stamped.
func (t Transaction) WithDescription(description string) Transaction {
	t.Description = description
	t.UpdatedAt = time.Now()
	return t
}

// WithCategory returns a copy with the category replaced and UpdatedAt stamped.
func (t Transaction) WithCategory(category string) Transaction {
	t.Category = category
	t.UpdatedAt = time.Now()
	return t
}

// WithDate returns a copy with the date replaced and UpdatedAt stamped.
func (t Transaction) WithDate(date time.Time) Transaction {
	t.Date = date
	t.UpdatedAt = time.Now()
	return t
}

// WithNotes returns a copy with the notes replaced and UpdatedAt stamped.
func (t Transaction) WithNotes(notes string) Transaction {
	t.Notes = notes
	t.UpdatedAt = time.Now()
	return t
}

// WithRecurring returns a copy with the recurring flag replaced and UpdatedAt stamped.
func (t Transaction) WithRecurring(recurring bool) Transaction {
	t.Recurring = recurring
	t.UpdatedAt = time.Now()
	return t
}
