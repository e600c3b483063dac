// Package backup exports and imports the full dataset as a single JSON
// document, for migrating between storage backends or keeping offline copies.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
)

const formatVersion = 1

type document struct {
	Version      int           `json:"version"`
	ExportedAt   time.Time     `json:"exported_at"`
	Transactions []transaction `json:"transactions"`
	Budgets      []budget      `json:"budgets"`
}

type transaction struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Date        time.Time       `json:"date"`
	Notes       string          `json:"notes,omitempty"`
	Recurring   bool            `json:"recurring,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type budget struct {
	ID           uuid.UUID       `json:"id"`
	Category     string          `json:"category"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	SpentAmount  decimal.Decimal `json:"spent_amount"`
	Period       string          `json:"period"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Service reads and writes backup documents against the repositories.
type Service struct {
	transactions domain.TransactionRepository
	budgets      domain.BudgetRepository
	logger       *log.Logger
}

// NewService creates a new Service instance
func NewService(transactions domain.TransactionRepository, budgets domain.BudgetRepository, logger *log.Logger) *Service {
	return &Service{
		transactions: transactions,
		budgets:      budgets,
		logger:       logger.WithComponent(log.ComponentBackup),
	}
}

// Export writes the full dataset to w as indented JSON.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	txs, err := s.transactions.List(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	doc := document{
		Version:      formatVersion,
		ExportedAt:   time.Now().UTC(),
		Transactions: make([]transaction, len(txs)),
		Budgets:      make([]budget, len(budgets)),
	}
	for i, t := range txs {
		doc.Transactions[i] = toTransactionDTO(t)
	}
	for i, b := range budgets {
		doc.Budgets[i] = toBudgetDTO(b)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	s.logger.Info("backup exported",
		"transactions", len(doc.Transactions),
		"budgets", len(doc.Budgets),
	)
	return nil
}

// Import reads a backup document from r and adds every record to the
// repositories. Records failing domain validation abort the import.
func (s *Service) Import(ctx context.Context, r io.Reader) error {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version != formatVersion {
		return fmt.Errorf("unsupported backup version %d", doc.Version)
	}

	for _, dto := range doc.Transactions {
		tx := fromTransactionDTO(dto)
		if err := s.transactions.Add(ctx, tx); err != nil {
			return fmt.Errorf("import transaction %s: %w", tx.ID, err)
		}
	}
	for _, dto := range doc.Budgets {
		b := fromBudgetDTO(dto)
		if err := s.budgets.Add(ctx, b); err != nil {
			return fmt.Errorf("import budget %s: %w", b.ID, err)
		}
	}

	s.logger.Info("backup imported",
		"transactions", len(doc.Transactions),
		"budgets", len(doc.Budgets),
	)
	return nil
}

// ExportToFile exports to path, creating or truncating the file.
func (s *Service) ExportToFile(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()
	if err := s.Export(ctx, f); err != nil {
		return err
	}
	return f.Close()
}

// ImportFromFile imports the backup document at path.
func (s *Service) ImportFromFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()
	return s.Import(ctx, f)
}

func toTransactionDTO(t domain.Transaction) transaction {
	return transaction{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Type:        string(t.Type),
		Date:        t.Date,
		Notes:       t.Notes,
		Recurring:   t.Recurring,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromTransactionDTO(dto transaction) domain.Transaction {
	return domain.Transaction{
		ID:          dto.ID,
		Amount:      dto.Amount,
		Description: dto.Description,
		Category:    dto.Category,
		Type:        domain.TransactionType(dto.Type),
		Date:        dto.Date,
		Notes:       dto.Notes,
		Recurring:   dto.Recurring,
		CreatedAt:   dto.CreatedAt,
		UpdatedAt:   dto.UpdatedAt,
	}
}

func toBudgetDTO(b domain.Budget) budget {
	return budget{
		ID:           b.ID,
		Category:     b.Category,
		BudgetAmount: b.BudgetAmount,
		SpentAmount:  b.SpentAmount,
		Period:       string(b.Period),
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		Active:       b.Active,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func fromBudgetDTO(dto budget) domain.Budget {
	return domain.Budget{
		ID:           dto.ID,
		Category:     dto.Category,
		BudgetAmount: dto.BudgetAmount,
		SpentAmount:  dto.SpentAmount,
		Period:       domain.BudgetPeriod(dto.Period),
		StartDate:    dto.StartDate,
		EndDate:      dto.EndDate,
		Active:       dto.Active,
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
	}
}
