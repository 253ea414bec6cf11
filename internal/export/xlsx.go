package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

const sheetName = "Transactions"

// XLSXWriter renders a statement as a spreadsheet with a summary block
// above the transaction table.
type XLSXWriter struct{}

func (w *XLSXWriter) Write(out io.Writer, stmt *models.Statement, txns []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	meta := [][]interface{}{
		{"Bank", string(stmt.BankType)},
		{"Account Holder", stmt.AccountHolder},
		{"Account Number", stmt.AccountNumber},
		{"Opening Balance", stmt.OpeningBalance.StringFixed(2)},
		{"Closing Balance", stmt.ClosingBalance.StringFixed(2)},
		{"Total Debit", stmt.TotalDebit.StringFixed(2)},
		{"Total Credit", stmt.TotalCredit.StringFixed(2)},
	}
	row := 1
	for _, pair := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &pair); err != nil {
			return fmt.Errorf("writing metadata row: %w", err)
		}
		row++
	}
	row++ // blank spacer row

	header := []interface{}{"Date", "Description", "Merchant", "Category", "Channel", "Direction", "Amount", "Balance", "Reference"}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheetName, cell, &header); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	row++

	for _, txn := range txns {
		balance := ""
		if txn.Balance.Valid {
			balance = txn.Balance.Decimal.StringFixed(2)
		}
		values := []interface{}{
			txn.Date.Format(dateLayout),
			txn.Description,
			txn.Merchant,
			txn.Category,
			string(txn.Channel),
			string(txn.Direction),
			txn.Amount.StringFixed(2),
			balance,
			txn.Reference,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("writing transaction row: %w", err)
		}
		row++
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
