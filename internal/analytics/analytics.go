// Package analytics exposes read-side rollups over persisted
// transactions: spend by category, totals per bank, and an overall
// summary per user.
package analytics

import (
	"context"
	"fmt"

	"github.com/insightdelivered/statement-pipeline/internal/models"
	"github.com/insightdelivered/statement-pipeline/internal/store"
)

// ErrInvalidBankFilter is returned when a bank filter names an
// unsupported bank code.
var ErrInvalidBankFilter = fmt.Errorf("invalid bank filter")

// Service answers analytics queries. Aggregation itself happens in the
// store so the numbers are computed next to the data.
type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// bankFilter validates an optional bank code. Empty means no filter.
func bankFilter(raw string) (models.BankType, error) {
	if raw == "" {
		return "", nil
	}
	bank, err := models.ParseBankType(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidBankFilter, raw)
	}
	return bank, nil
}

// CategorySpend returns per-category debit totals, largest first.
// Credits never count toward spend.
func (s *Service) CategorySpend(ctx context.Context, userID, bank string) ([]store.CategorySpend, error) {
	bankType, err := bankFilter(bank)
	if err != nil {
		return nil, err
	}
	return s.store.CategorySpend(ctx, userID, bankType)
}

// BankSpend returns debit/credit totals and net flow per bank.
func (s *Service) BankSpend(ctx context.Context, userID string) ([]store.BankSpend, error) {
	return s.store.BankSpend(ctx, userID)
}

// Summary returns the user's overall debit, credit and net flow.
func (s *Service) Summary(ctx context.Context, userID, bank string) (*store.Summary, error) {
	bankType, err := bankFilter(bank)
	if err != nil {
		return nil, err
	}
	return s.store.UserSummary(ctx, userID, bankType)
}
