package analytics

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-pipeline/internal/models"
	"github.com/insightdelivered/statement-pipeline/internal/store"
)

func seedService(t *testing.T) *Service {
	t.Helper()
	st := store.NewMemory()
	stmt := &models.Statement{UserID: "user-1", BankType: models.BankSBI}
	txns := []models.Transaction{
		{
			Date:      models.Date(2024, 7, 2),
			Amount:    decimal.RequireFromString("450.00"),
			Direction: models.Debit,
			Category:  "food_dining",
			Channel:   models.ChannelUPI,
		},
		{
			Date:      models.Date(2024, 7, 5),
			Amount:    decimal.RequireFromString("60000.00"),
			Direction: models.Credit,
			Category:  "income",
			Channel:   models.ChannelTransfer,
		},
	}
	_, err := st.Ingest(context.Background(), stmt, txns)
	require.NoError(t, err)
	return New(st)
}

func TestCategorySpend(t *testing.T) {
	svc := seedService(t)

	rows, err := svc.CategorySpend(context.Background(), "user-1", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "food_dining", rows[0].Category)
	assert.True(t, rows[0].TotalAmount.Equal(decimal.RequireFromString("450.00")))
}

func TestSummaryWithFilter(t *testing.T) {
	svc := seedService(t)

	sum, err := svc.Summary(context.Background(), "user-1", "sbi")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TransactionCount)
	assert.True(t, sum.NetFlow.Equal(decimal.RequireFromString("59550.00")))
}

func TestInvalidBankFilter(t *testing.T) {
	svc := seedService(t)

	_, err := svc.CategorySpend(context.Background(), "user-1", "KOTAK")
	assert.ErrorIs(t, err, ErrInvalidBankFilter)

	_, err = svc.Summary(context.Background(), "user-1", "KOTAK")
	assert.ErrorIs(t, err, ErrInvalidBankFilter)
}
