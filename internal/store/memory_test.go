package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

func seedBatch(userID string, bank models.BankType) (*models.Statement, []models.Transaction) {
	stmt := &models.Statement{
		UserID:        userID,
		BankType:      bank,
		AccountNumber: "00000041234567",
		AccountHolder: "ROHAN SHARMA",
	}
	txns := []models.Transaction{
		{
			Date:        models.Date(2024, 7, 2),
			Description: "UPI-SWIGGY BANGALORE",
			Amount:      decimal.RequireFromString("450.00"),
			Direction:   models.Debit,
			Category:    "food_dining",
			Channel:     models.ChannelUPI,
		},
		{
			Date:        models.Date(2024, 7, 5),
			Description: "NEFT SALARY ACME CORP",
			Amount:      decimal.RequireFromString("60000.00"),
			Direction:   models.Credit,
			Category:    "income",
			Channel:     models.ChannelTransfer,
		},
		{
			Date:        models.Date(2024, 7, 9),
			Description: "ATW CASH WDL",
			Amount:      decimal.RequireFromString("2000.00"),
			Direction:   models.Debit,
			Category:    "cash",
			Channel:     models.ChannelATM,
		},
	}
	return stmt, txns
}

func TestMemoryIngest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	stmt, txns := seedBatch("user-1", models.BankSBI)
	id, err := m.Ingest(ctx, stmt, txns)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, stmt.ID)
	assert.False(t, stmt.CreatedAt.IsZero())

	got, err := m.Statement(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, models.BankSBI, got.BankType)
	assert.Equal(t, 3, got.TransactionCount)

	stored, err := m.Transactions(ctx, "user-1", TransactionFilter{StatementID: id})
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, txn := range stored {
		assert.NotEmpty(t, txn.ID)
		assert.Equal(t, id, txn.StatementID)
		assert.Equal(t, "user-1", txn.UserID)
		assert.Equal(t, models.BankSBI, txn.BankType)
		assert.False(t, txn.CreatedAt.IsZero())
	}
	// Sorted by date ascending.
	assert.True(t, stored[0].Date.Before(stored[1].Date))
	assert.True(t, stored[1].Date.Before(stored[2].Date))
}

func TestMemoryOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	stmt, txns := seedBatch("alice", models.BankHDFC)
	id, err := m.Ingest(ctx, stmt, txns)
	require.NoError(t, err)

	// A foreign owner and a nonexistent id must be indistinguishable.
	_, errForeign := m.Statement(ctx, "mallory", id)
	_, errMissing := m.Statement(ctx, "alice", "no-such-id")
	assert.ErrorIs(t, errForeign, ErrNotFound)
	assert.ErrorIs(t, errMissing, ErrNotFound)

	_, err = m.Transactions(ctx, "mallory", TransactionFilter{StatementID: id})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := m.Statements(ctx, "mallory", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryIngestValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction)
	}{
		{
			name: "missing userId",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				stmt.UserID = ""
				return stmt, txns
			},
		},
		{
			name: "unknown bankType",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				stmt.BankType = "KOTAK"
				return stmt, txns
			},
		},
		{
			name: "empty batch",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				return stmt, nil
			},
		},
		{
			name: "negative amount",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				txns[1].Amount = decimal.RequireFromString("-5.00")
				return stmt, txns
			},
		},
		{
			name: "invalid direction",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				txns[0].Direction = "sideways"
				return stmt, txns
			},
		},
		{
			name: "forbidden category Unknown",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				txns[2].Category = "Unknown"
				return stmt, txns
			},
		},
		{
			name: "forbidden category others",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				txns[2].Category = "others"
				return stmt, txns
			},
		},
		{
			name: "sidecar bank mismatch",
			mutate: func(stmt *models.Statement, txns []models.Transaction) (*models.Statement, []models.Transaction) {
				stmt.BankSpecific = models.BankSpecific{HDFC: &models.HDFCSidecar{CustomerID: "88001234"}}
				return stmt, txns
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory()
			stmt, txns := tt.mutate(seedBatch("user-1", models.BankSBI))

			_, err := m.Ingest(ctx, stmt, txns)
			require.ErrorIs(t, err, ErrValidationFailed)

			// The rejected batch must leave no trace.
			list, err := m.Statements(ctx, "user-1", "")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestMemoryIngestNoPartialWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.FailTransactionInsertAt(2)

	stmt, txns := seedBatch("user-1", models.BankBOI)
	_, err := m.Ingest(ctx, stmt, txns)
	require.ErrorIs(t, err, ErrStoreUnavailable)

	list, err := m.Statements(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := m.Transactions(ctx, "user-1", TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	// The hook is one-shot; the retry lands whole.
	stmt2, txns2 := seedBatch("user-1", models.BankBOI)
	id, err := m.Ingest(ctx, stmt2, txns2)
	require.NoError(t, err)
	stored, err := m.Transactions(ctx, "user-1", TransactionFilter{StatementID: id})
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestMemoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	stmt, txns := seedBatch("user-1", models.BankAxis)
	id, err := m.Ingest(ctx, stmt, txns)
	require.NoError(t, err)

	// A foreign owner cannot delete, and the data survives the attempt.
	err = m.Delete(ctx, "mallory", id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Statement(ctx, "user-1", id)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "user-1", id))

	_, err = m.Statement(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Transactions(ctx, "user-1", TransactionFilter{StatementID: id})
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.Delete(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCategorySpend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	stmt, txns := seedBatch("user-1", models.BankSBI)
	_, err := m.Ingest(ctx, stmt, txns)
	require.NoError(t, err)

	rows, err := m.CategorySpend(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, rows, 2, "credits must not appear in the spend rollup")

	// Sorted by total descending: cash 2000 before food_dining 450.
	assert.Equal(t, "cash", rows[0].Category)
	assert.True(t, rows[0].TotalAmount.Equal(decimal.RequireFromString("2000.00")))
	assert.Equal(t, 1, rows[0].TransactionCount)
	assert.Equal(t, "food_dining", rows[1].Category)
	assert.True(t, rows[1].TotalAmount.Equal(decimal.RequireFromString("450.00")))

	// A bank filter that matches nothing yields an empty rollup.
	rows, err = m.CategorySpend(ctx, "user-1", models.BankHDFC)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryBankSpend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sbi, sbiTxns := seedBatch("user-1", models.BankSBI)
	_, err := m.Ingest(ctx, sbi, sbiTxns)
	require.NoError(t, err)

	hdfc := &models.Statement{UserID: "user-1", BankType: models.BankHDFC}
	hdfcTxns := []models.Transaction{
		{
			Date:      models.Date(2024, 7, 3),
			Amount:    decimal.RequireFromString("1200.00"),
			Direction: models.Debit,
			Category:  "shopping",
			Channel:   models.ChannelCard,
		},
	}
	_, err = m.Ingest(ctx, hdfc, hdfcTxns)
	require.NoError(t, err)

	rows, err := m.BankSpend(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Sorted by debit descending: SBI 2450 before HDFC 1200.
	assert.Equal(t, models.BankSBI, rows[0].BankType)
	assert.True(t, rows[0].TotalDebit.Equal(decimal.RequireFromString("2450.00")))
	assert.True(t, rows[0].TotalCredit.Equal(decimal.RequireFromString("60000.00")))
	assert.True(t, rows[0].NetAmount.Equal(decimal.RequireFromString("57550.00")))
	assert.Equal(t, 3, rows[0].TransactionCount)

	assert.Equal(t, models.BankHDFC, rows[1].BankType)
	assert.True(t, rows[1].TotalDebit.Equal(decimal.RequireFromString("1200.00")))
	assert.True(t, rows[1].NetAmount.Equal(decimal.RequireFromString("-1200.00")))
}

func TestMemoryUserSummary(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	stmt, txns := seedBatch("user-1", models.BankSBI)
	_, err := m.Ingest(ctx, stmt, txns)
	require.NoError(t, err)

	sum, err := m.UserSummary(ctx, "user-1", "")
	require.NoError(t, err)
	assert.True(t, sum.TotalDebit.Equal(decimal.RequireFromString("2450.00")))
	assert.True(t, sum.TotalCredit.Equal(decimal.RequireFromString("60000.00")))
	assert.True(t, sum.NetFlow.Equal(decimal.RequireFromString("57550.00")))
	assert.Equal(t, 3, sum.TransactionCount)

	// Bank filter with no matching statements sums to zero.
	sum, err = m.UserSummary(ctx, "user-1", models.BankUnion)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.TransactionCount)
	assert.True(t, sum.NetFlow.IsZero())
}

func TestValidateBatchMixedIdentity(t *testing.T) {
	stmt := &models.Statement{ID: "stmt-1", UserID: "user-1", BankType: models.BankSBI}

	base := models.Transaction{
		ID:          "txn-1",
		StatementID: "stmt-1",
		UserID:      "user-1",
		BankType:    models.BankSBI,
		Amount:      decimal.RequireFromString("10.00"),
		Direction:   models.Debit,
		Category:    "general",
	}

	tests := []struct {
		name   string
		mutate func(txn *models.Transaction)
	}{
		{"foreign statementId", func(txn *models.Transaction) { txn.StatementID = "stmt-2" }},
		{"foreign userId", func(txn *models.Transaction) { txn.UserID = "user-2" }},
		{"foreign bankType", func(txn *models.Transaction) { txn.BankType = models.BankCBI }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := base
			tt.mutate(&txn)
			err := ValidateBatch(stmt, []models.Transaction{txn})
			require.ErrorIs(t, err, ErrValidationFailed)
		})
	}

	require.NoError(t, ValidateBatch(stmt, []models.Transaction{base}))
}
