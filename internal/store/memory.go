package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// Memory is an in-memory Store. It backs tests and the CLI's
// store-less parse mode. Data is lost on restart.
type Memory struct {
	mu         sync.RWMutex
	statements map[string]models.Statement
	// transactions keyed by statementId, in source order.
	transactions map[string][]models.Transaction

	// failTxnAt simulates a write failure on the nth transaction
	// insert (1-based) of the next Ingest. Test hook.
	failTxnAt int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		statements:   make(map[string]models.Statement),
		transactions: make(map[string][]models.Transaction),
	}
}

// FailTransactionInsertAt makes the next Ingest fail while inserting
// the nth transaction (1-based). Used to exercise the no-partial-write
// guarantee.
func (m *Memory) FailTransactionInsertAt(n int) { m.failTxnAt = n }

func (m *Memory) Ingest(ctx context.Context, stmt *models.Statement, txns []models.Transaction) (string, error) {
	if err := prepare(stmt, txns, time.Now().UTC()); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failTxnAt > 0 && m.failTxnAt <= len(txns) {
		n := m.failTxnAt
		m.failTxnAt = 0
		// Nothing has been made visible; the batch simply never lands.
		return "", fmt.Errorf("%w: simulated failure inserting transaction %d", ErrStoreUnavailable, n)
	}

	batch := make([]models.Transaction, len(txns))
	copy(batch, txns)
	m.transactions[stmt.ID] = batch
	m.statements[stmt.ID] = *stmt

	return stmt.ID, nil
}

func (m *Memory) Statement(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stmt, ok := m.statements[statementID]
	if !ok || stmt.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, statementID)
	}
	out := stmt
	return &out, nil
}

func (m *Memory) Statements(ctx context.Context, userID string, bankType models.BankType) ([]models.Statement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Statement
	for _, stmt := range m.statements {
		if stmt.UserID != userID {
			continue
		}
		if bankType != "" && stmt.BankType != bankType {
			continue
		}
		out = append(out, stmt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Transactions(ctx context.Context, userID string, f TransactionFilter) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if f.StatementID != "" {
		stmt, ok := m.statements[f.StatementID]
		if !ok || stmt.UserID != userID {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, f.StatementID)
		}
	}

	var out []models.Transaction
	for id, batch := range m.transactions {
		stmt, ok := m.statements[id]
		if !ok || stmt.UserID != userID {
			continue
		}
		if f.StatementID != "" && id != f.StatementID {
			continue
		}
		if f.BankType != "" && stmt.BankType != f.BankType {
			continue
		}
		out = append(out, batch...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, userID, statementID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, ok := m.statements[statementID]
	if !ok || stmt.UserID != userID {
		return fmt.Errorf("%w: %s", ErrNotFound, statementID)
	}
	delete(m.statements, statementID)
	delete(m.transactions, statementID)
	return nil
}

func (m *Memory) CategorySpend(ctx context.Context, userID string, bankType models.BankType) ([]CategorySpend, error) {
	txns, err := m.Transactions(ctx, userID, TransactionFilter{BankType: bankType})
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*CategorySpend)
	var order []string
	for _, txn := range txns {
		if txn.Direction != models.Debit {
			continue
		}
		entry, ok := totals[txn.Category]
		if !ok {
			entry = &CategorySpend{Category: txn.Category, TotalAmount: decimal.Zero}
			totals[txn.Category] = entry
			order = append(order, txn.Category)
		}
		entry.TotalAmount = entry.TotalAmount.Add(txn.Amount)
		entry.TransactionCount++
	}

	out := make([]CategorySpend, 0, len(order))
	for _, cat := range order {
		out = append(out, *totals[cat])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalAmount.GreaterThan(out[j].TotalAmount) })
	return out, nil
}

func (m *Memory) BankSpend(ctx context.Context, userID string) ([]BankSpend, error) {
	txns, err := m.Transactions(ctx, userID, TransactionFilter{})
	if err != nil {
		return nil, err
	}

	totals := make(map[models.BankType]*BankSpend)
	var order []models.BankType
	for _, txn := range txns {
		entry, ok := totals[txn.BankType]
		if !ok {
			entry = &BankSpend{BankType: txn.BankType, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
			totals[txn.BankType] = entry
			order = append(order, txn.BankType)
		}
		if txn.Direction == models.Debit {
			entry.TotalDebit = entry.TotalDebit.Add(txn.Amount)
		} else {
			entry.TotalCredit = entry.TotalCredit.Add(txn.Amount)
		}
		entry.TransactionCount++
	}

	out := make([]BankSpend, 0, len(order))
	for _, bank := range order {
		entry := totals[bank]
		entry.NetAmount = entry.TotalCredit.Sub(entry.TotalDebit)
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalDebit.GreaterThan(out[j].TotalDebit) })
	return out, nil
}

func (m *Memory) UserSummary(ctx context.Context, userID string, bankType models.BankType) (*Summary, error) {
	txns, err := m.Transactions(ctx, userID, TransactionFilter{BankType: bankType})
	if err != nil {
		return nil, err
	}

	sum := &Summary{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, txn := range txns {
		if txn.Direction == models.Debit {
			sum.TotalDebit = sum.TotalDebit.Add(txn.Amount)
		} else {
			sum.TotalCredit = sum.TotalCredit.Add(txn.Amount)
		}
		sum.TransactionCount++
	}
	sum.NetFlow = sum.TotalCredit.Sub(sum.TotalDebit)
	return sum, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
