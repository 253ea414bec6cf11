// Package pipeline runs an uploaded statement through the full chain:
// extract text, detect the bank, parse, normalize, categorize, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/bank"
	"github.com/insightdelivered/statement-pipeline/internal/categorize"
	"github.com/insightdelivered/statement-pipeline/internal/extractor"
	"github.com/insightdelivered/statement-pipeline/internal/models"
	"github.com/insightdelivered/statement-pipeline/internal/normalize"
	"github.com/insightdelivered/statement-pipeline/internal/store"
)

// MaxUploadBytes caps accepted PDF uploads at 50 MB.
const MaxUploadBytes = 50 << 20

// defaultTimeout bounds one full ingestion, extraction included.
const defaultTimeout = 2 * time.Minute

// ErrFileTooLarge is returned for uploads over MaxUploadBytes.
var ErrFileTooLarge = errors.New("file exceeds maximum upload size")

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("file is empty")

// extractFunc matches extractor.ExtractText; swappable in tests so the
// pipeline can run without real PDFs.
type extractFunc func(ctx context.Context, filePath string) ([]string, error)

// Result summarizes one successful ingestion.
type Result struct {
	StatementID          string          `json:"statementId"`
	BankType             models.BankType `json:"bankType"`
	TransactionsInserted int             `json:"transactionsInserted"`
	AccountNumber        string          `json:"accountNumber,omitempty"`
	AccountHolder        string          `json:"accountHolder,omitempty"`
	OpeningBalance       decimal.Decimal `json:"openingBalance"`
	ClosingBalance       decimal.Decimal `json:"closingBalance"`
}

// Ingestor wires the stages together. All stages up to the store are
// pure; only the final Ingest call writes, so any earlier failure
// leaves no trace.
type Ingestor struct {
	registry    *bank.Registry
	categorizer *categorize.Categorizer
	store       store.Store
	log         zerolog.Logger
	extract     extractFunc
}

func New(registry *bank.Registry, cat *categorize.Categorizer, st store.Store, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		registry:    registry,
		categorizer: cat,
		store:       st,
		log:         log,
		extract:     extractor.ExtractText,
	}
}

// Ingest processes one uploaded PDF for userID and returns the id of
// the stored statement.
func (ing *Ingestor) Ingest(ctx context.Context, userID, fileName string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	log := ing.log.With().Str("userId", userID).Str("fileName", fileName).Logger()
	start := time.Now()

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	pages, err := ing.extract(ctx, tmp.Name())
	if err != nil {
		log.Warn().Err(err).Msg("text extraction failed")
		return nil, err
	}

	adapter, err := ing.registry.Detect(pages)
	if err != nil {
		log.Warn().Err(err).Msg("bank detection failed")
		return nil, err
	}
	log = log.With().Str("bankType", string(adapter.Bank())).Logger()

	raw, err := adapter.Parse(pages)
	if err != nil {
		log.Warn().Err(err).Msg("statement parse failed")
		return nil, err
	}

	stmt, txns, err := normalize.Statement(raw)
	if err != nil {
		log.Warn().Err(err).Msg("normalization failed")
		return nil, err
	}
	stmt.UserID = userID
	stmt.FileName = fileName

	ing.categorizer.Apply(txns)

	id, err := ing.store.Ingest(ctx, stmt, txns)
	if err != nil {
		log.Error().Err(err).Msg("persisting statement failed")
		return nil, err
	}

	log.Info().
		Str("statementId", id).
		Int("transactions", len(txns)).
		Dur("elapsed", time.Since(start)).
		Msg("statement ingested")

	return &Result{
		StatementID:          id,
		BankType:             stmt.BankType,
		TransactionsInserted: len(txns),
		AccountNumber:        stmt.AccountNumber,
		AccountHolder:        stmt.AccountHolder,
		OpeningBalance:       stmt.OpeningBalance,
		ClosingBalance:       stmt.ClosingBalance,
	}, nil
}
