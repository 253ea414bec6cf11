// Package store persists statements and their normalized transactions
// as a polymorphic parent plus child documents, and enforces the
// anti-mixing invariants at write time.
//
// Atomicity is by convention: transaction documents are written first
// and the parent statement last, and every read path resolves child
// documents through their parent. A batch whose parent was never
// written is unreachable, so no reader can observe a statement with
// only some of its transactions present.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

var (
	// ErrNotFound covers both a nonexistent statement and one owned by
	// a different user. Keeping the two indistinguishable avoids
	// leaking the existence of other users' data.
	ErrNotFound = errors.New("statement not found")

	// ErrValidationFailed means a transaction in the batch violated an
	// anti-mixing invariant; nothing from the batch was persisted.
	ErrValidationFailed = errors.New("statement batch validation failed")

	// ErrStoreUnavailable means the persistence layer is unreachable.
	// Retryable by the caller; never retried internally.
	ErrStoreUnavailable = errors.New("statement store unavailable")
)

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	StatementID string
	BankType    models.BankType
}

// CategorySpend is one row of the category-wise debit rollup.
type CategorySpend struct {
	Category         string          `json:"category"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TransactionCount int             `json:"transactionCount"`
}

// BankSpend is one row of the per-bank debit/credit rollup.
type BankSpend struct {
	BankType         models.BankType `json:"bankType"`
	TotalDebit       decimal.Decimal `json:"totalDebit"`
	TotalCredit      decimal.Decimal `json:"totalCredit"`
	TransactionCount int             `json:"transactionCount"`
	NetAmount        decimal.Decimal `json:"netAmount"`
}

// Summary is the overall rollup for one user.
type Summary struct {
	TotalDebit       decimal.Decimal `json:"totalDebit"`
	TotalCredit      decimal.Decimal `json:"totalCredit"`
	NetFlow          decimal.Decimal `json:"netFlow"`
	TransactionCount int             `json:"transactionCount"`
}

// Store is the persistence boundary. Every read, delete and aggregate
// operation takes the caller's userID and applies it inside the query
// itself, so a bug in an outer layer cannot leak cross-user data.
type Store interface {
	// Ingest stamps a fresh statementId and the statement's identity
	// onto every transaction, validates the batch, and persists the
	// statement plus all transactions as one logical unit. On any
	// validation or write failure nothing remains visible to readers.
	Ingest(ctx context.Context, stmt *models.Statement, txns []models.Transaction) (string, error)

	Statement(ctx context.Context, userID, statementID string) (*models.Statement, error)
	Statements(ctx context.Context, userID string, bankType models.BankType) ([]models.Statement, error)
	Transactions(ctx context.Context, userID string, f TransactionFilter) ([]models.Transaction, error)

	// Delete removes the statement only if it belongs to userID and
	// cascades to every transaction sharing its statementId.
	Delete(ctx context.Context, userID, statementID string) error

	CategorySpend(ctx context.Context, userID string, bankType models.BankType) ([]CategorySpend, error)
	BankSpend(ctx context.Context, userID string) ([]BankSpend, error)
	UserSummary(ctx context.Context, userID string, bankType models.BankType) (*Summary, error)

	Ping(ctx context.Context) error
}

// prepare allocates ids, stamps parent identity onto every child and
// re-verifies the full batch. Called by every backend before writing.
func prepare(stmt *models.Statement, txns []models.Transaction, now time.Time) error {
	if stmt == nil {
		return fmt.Errorf("%w: nil statement", ErrValidationFailed)
	}
	if stmt.UserID == "" {
		return fmt.Errorf("%w: statement has no userId", ErrValidationFailed)
	}
	if _, err := models.ParseBankType(string(stmt.BankType)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if len(txns) == 0 {
		return fmt.Errorf("%w: statement has no transactions", ErrValidationFailed)
	}

	stmt.ID = uuid.NewString()
	stmt.CreatedAt = now
	stmt.TransactionCount = len(txns)

	for i := range txns {
		txns[i].ID = uuid.NewString()
		txns[i].StatementID = stmt.ID
		txns[i].UserID = stmt.UserID
		txns[i].BankType = stmt.BankType
		txns[i].CreatedAt = now
	}

	return ValidateBatch(stmt, txns)
}

// ValidateBatch checks the anti-mixing invariants and field
// constraints for a statement and its transactions. Any violation
// rejects the whole batch.
func ValidateBatch(stmt *models.Statement, txns []models.Transaction) error {
	if err := stmt.BankSpecific.Validate(stmt.BankType); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	for i, txn := range txns {
		switch {
		case txn.StatementID != stmt.ID:
			return fmt.Errorf("%w: transaction %d statementId %q does not match statement %q",
				ErrValidationFailed, i, txn.StatementID, stmt.ID)
		case txn.UserID != stmt.UserID:
			return fmt.Errorf("%w: transaction %d userId does not match statement owner",
				ErrValidationFailed, i)
		case txn.BankType != stmt.BankType:
			return fmt.Errorf("%w: transaction %d bankType %q does not match statement bankType %q",
				ErrValidationFailed, i, txn.BankType, stmt.BankType)
		case txn.Direction != models.Debit && txn.Direction != models.Credit:
			return fmt.Errorf("%w: transaction %d has invalid direction %q",
				ErrValidationFailed, i, txn.Direction)
		case txn.Amount.IsNegative():
			return fmt.Errorf("%w: transaction %d has negative amount %s",
				ErrValidationFailed, i, txn.Amount)
		case models.ForbiddenCategory(txn.Category):
			return fmt.Errorf("%w: transaction %d carries forbidden category %q",
				ErrValidationFailed, i, txn.Category)
		}
	}
	return nil
}
