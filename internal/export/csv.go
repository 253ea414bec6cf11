// Package export renders a statement's transactions as CSV or XLSX
// for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

const dateLayout = "2006-01-02"

// CSVWriter writes a statement and its transactions in CSV format.
type CSVWriter struct {
	IncludeMetadata bool
}

// Write renders the statement to out. Metadata rows are prefixed with
// '#' so spreadsheet tools treat them as comments.
func (w *CSVWriter) Write(out io.Writer, stmt *models.Statement, txns []models.Transaction) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeMetadata {
		writer.Write([]string{"# Bank", string(stmt.BankType)})
		if stmt.AccountHolder != "" {
			writer.Write([]string{"# Account Holder", stmt.AccountHolder})
		}
		if stmt.AccountNumber != "" {
			writer.Write([]string{"# Account Number", stmt.AccountNumber})
		}
		if !stmt.PeriodStart.IsZero() && !stmt.PeriodEnd.IsZero() {
			period := stmt.PeriodStart.Format(dateLayout) + " to " + stmt.PeriodEnd.Format(dateLayout)
			writer.Write([]string{"# Statement Period", period})
		}
	}

	header := []string{"Date", "Description", "Merchant", "Category", "Channel", "Direction", "Amount", "Balance", "Reference"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, txn := range txns {
		row := []string{
			txn.Date.Format(dateLayout),
			txn.Description,
			txn.Merchant,
			txn.Category,
			string(txn.Channel),
			string(txn.Direction),
			txn.Amount.StringFixed(2),
			formatBalance(txn.Balance),
			txn.Reference,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	return nil
}

func formatBalance(b decimal.NullDecimal) string {
	if !b.Valid {
		return ""
	}
	return b.Decimal.StringFixed(2)
}
