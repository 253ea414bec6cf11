package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

func sampleStatement() (*models.Statement, []models.Transaction) {
	stmt := &models.Statement{
		BankType:      models.BankSBI,
		AccountNumber: "00000041234567",
		AccountHolder: "ROHAN SHARMA",
		PeriodStart:   models.Date(2024, 7, 1),
		PeriodEnd:     models.Date(2024, 7, 31),
	}
	txns := []models.Transaction{
		{
			Date:        models.Date(2024, 7, 2),
			Description: "UPI-SWIGGY BANGALORE",
			Merchant:    "Swiggy",
			Category:    "food_dining",
			Channel:     models.ChannelUPI,
			Direction:   models.Debit,
			Amount:      decimal.RequireFromString("450.00"),
			Balance:     decimal.NewNullDecimal(decimal.RequireFromString("9550.00")),
			Reference:   "418812345678",
		},
		{
			Date:        models.Date(2024, 7, 5),
			Description: "NEFT SALARY ACME CORP",
			Merchant:    "Acme Corp",
			Category:    "income",
			Channel:     models.ChannelTransfer,
			Direction:   models.Credit,
			Amount:      decimal.RequireFromString("60000.5"),
		},
	}
	return stmt, txns
}

func TestCSVWriter(t *testing.T) {
	stmt, txns := sampleStatement()

	var buf bytes.Buffer
	w := &CSVWriter{IncludeMetadata: true}
	if err := w.Write(&buf, stmt, txns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# Bank,SBI") {
		t.Errorf("missing bank metadata in:\n%s", out)
	}
	if !strings.Contains(out, "# Statement Period,2024-07-01 to 2024-07-31") {
		t.Errorf("missing period metadata in:\n%s", out)
	}

	// Records after the comment rows must parse as uniform CSV.
	var dataLines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "#") {
			dataLines = append(dataLines, line)
		}
	}
	records, err := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n"))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records: got %d, want header plus 2 rows", len(records))
	}

	row := records[1]
	if row[0] != "2024-07-02" || row[6] != "450.00" || row[7] != "9550.00" || row[8] != "418812345678" {
		t.Errorf("row 1: got %v", row)
	}

	// Amounts are always two decimal places; a missing balance is blank.
	row = records[2]
	if row[6] != "60000.50" {
		t.Errorf("amount: got %q, want 60000.50", row[6])
	}
	if row[7] != "" {
		t.Errorf("balance: got %q, want empty", row[7])
	}
}

func TestCSVWriterWithoutMetadata(t *testing.T) {
	stmt, txns := sampleStatement()

	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, stmt, txns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _, _ := strings.Cut(buf.String(), "\n")
	if first != "Date,Description,Merchant,Category,Channel,Direction,Amount,Balance,Reference" {
		t.Errorf("first line: got %q", first)
	}
}

func TestXLSXWriter(t *testing.T) {
	stmt, txns := sampleStatement()

	var buf bytes.Buffer
	w := &XLSXWriter{}
	if err := w.Write(&buf, stmt, txns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// XLSX files are zip archives.
	if buf.Len() == 0 || buf.Bytes()[0] != 'P' || buf.Bytes()[1] != 'K' {
		t.Errorf("output does not look like an xlsx archive")
	}
}
