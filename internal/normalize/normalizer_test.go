package normalize

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/bank"
	"github.com/insightdelivered/statement-pipeline/internal/models"
)

func TestStatement_TwoColumnLayout(t *testing.T) {
	raw := &bank.RawStatement{
		Bank:           models.BankHDFC,
		AccountNumber:  "50100123456789",
		OpeningBalance: "25,000.00",
		ClosingBalance: "84,550.00",
		PeriodStart:    "01/01/24",
		PeriodEnd:      "31/01/24",
		DateLayouts:    []string{"02/01/06"},
		Rows: []bank.RawRow{
			{Date: "02/01/24", Description: "UPI-SWIGGY BANGALORE-swiggy@icici", Debit: "450.00", Balance: "24,550.00"},
			{Date: "15/01/24", Description: "NEFT CR-SALARY JAN", Credit: "60,000.00", Balance: "84,550.00"},
		},
	}

	stmt, txns, err := Statement(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(txns) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txns))
	}
	if stmt.TransactionCount != 2 {
		t.Errorf("transaction count: got %d, want 2", stmt.TransactionCount)
	}

	txn := txns[0]
	if !txn.Date.Equal(models.Date(2024, 1, 2)) {
		t.Errorf("txn[0].Date: got %v", txn.Date)
	}
	if txn.Direction != models.Debit {
		t.Errorf("txn[0].Direction: got %q, want debit", txn.Direction)
	}
	if !txn.Amount.Equal(decimal.RequireFromString("450.00")) {
		t.Errorf("txn[0].Amount: got %s, want 450.00", txn.Amount)
	}
	if txn.Channel != models.ChannelUPI {
		t.Errorf("txn[0].Channel: got %q, want UPI", txn.Channel)
	}
	if !txn.Balance.Valid || !txn.Balance.Decimal.Equal(decimal.RequireFromString("24550.00")) {
		t.Errorf("txn[0].Balance: got %+v, want 24550.00", txn.Balance)
	}

	txn = txns[1]
	if txn.Direction != models.Credit {
		t.Errorf("txn[1].Direction: got %q, want credit", txn.Direction)
	}
	if txn.Channel != models.ChannelTransfer {
		t.Errorf("txn[1].Channel: got %q, want BANK_TRANSFER", txn.Channel)
	}

	if !stmt.TotalDebit.Equal(decimal.RequireFromString("450.00")) {
		t.Errorf("total debit: got %s, want 450.00", stmt.TotalDebit)
	}
	if !stmt.TotalCredit.Equal(decimal.RequireFromString("60000.00")) {
		t.Errorf("total credit: got %s, want 60000.00", stmt.TotalCredit)
	}
	if !stmt.OpeningBalance.Equal(decimal.RequireFromString("25000.00")) {
		t.Errorf("opening balance: got %s, want 25000.00", stmt.OpeningBalance)
	}
	if !stmt.PeriodStart.Equal(models.Date(2024, 1, 1)) || !stmt.PeriodEnd.Equal(models.Date(2024, 1, 31)) {
		t.Errorf("period: got %v to %v", stmt.PeriodStart, stmt.PeriodEnd)
	}

	// Ids and ownership are the store's job, not the normalizer's.
	if stmt.ID != "" || stmt.UserID != "" {
		t.Errorf("statement carries premature identity: id=%q user=%q", stmt.ID, stmt.UserID)
	}
}

func TestStatement_SingleAmountLayout(t *testing.T) {
	// Union-style rows: one amount column plus a Dr/Cr tag must fold
	// to the same canonical shape as the two-column layout.
	raw := &bank.RawStatement{
		Bank:        models.BankUnion,
		DateLayouts: []string{"02/01/2006"},
		Rows: []bank.RawRow{
			{Date: "02/07/2024", Description: "UPI/P2M/418812345678/SWIGGY", Amount: "450.00", DrCr: "Dr", Balance: "49,550.00"},
			{Date: "05/07/2024", Description: "NEFT/SALARY/ACME CORP", Amount: "45,000.00", DrCr: "CR", Balance: "94,550.00"},
		},
	}

	_, txns, err := Statement(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txns[0].Direction != models.Debit || !txns[0].Amount.Equal(decimal.RequireFromString("450.00")) {
		t.Errorf("txn[0]: got %s %s, want debit 450.00", txns[0].Direction, txns[0].Amount)
	}
	if txns[1].Direction != models.Credit || !txns[1].Amount.Equal(decimal.RequireFromString("45000.00")) {
		t.Errorf("txn[1]: got %s %s, want credit 45000.00", txns[1].Direction, txns[1].Amount)
	}
}

func TestStatement_SignedAmount(t *testing.T) {
	raw := &bank.RawStatement{
		Bank:        models.BankSBI,
		DateLayouts: []string{"02/01/2006"},
		Rows: []bank.RawRow{
			{Date: "02/07/2024", Description: "POS PURCHASE", Amount: "-450.00"},
		},
	}

	_, txns, err := Statement(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txns[0].Direction != models.Debit {
		t.Errorf("direction: got %q, want debit", txns[0].Direction)
	}
	if !txns[0].Amount.Equal(decimal.RequireFromString("450.00")) {
		t.Errorf("amount: got %s, want positive 450.00", txns[0].Amount)
	}
}

func TestStatement_MalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  bank.RawRow
	}{
		{"both debit and credit", bank.RawRow{Date: "02/07/2024", Debit: "100.00", Credit: "200.00"}},
		{"unparseable date", bank.RawRow{Date: "garbage", Debit: "100.00"}},
		{"no amount", bank.RawRow{Date: "02/07/2024", Description: "something"}},
		{"balance without direction", bank.RawRow{Date: "02/07/2024", Amount: "100.00", Balance: "900.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &bank.RawStatement{
				Bank:        models.BankSBI,
				DateLayouts: []string{"02/01/2006"},
				Rows:        []bank.RawRow{tt.row},
			}
			_, _, err := Statement(raw)
			if !errors.Is(err, ErrMalformedTransaction) {
				t.Fatalf("got %v, want ErrMalformedTransaction", err)
			}
		})
	}
}

func TestStatement_OutOfPeriodFlagged(t *testing.T) {
	raw := &bank.RawStatement{
		Bank:        models.BankSBI,
		PeriodStart: "01/07/2024",
		PeriodEnd:   "31/07/2024",
		DateLayouts: []string{"02/01/2006"},
		Rows: []bank.RawRow{
			{Date: "15/07/2024", Description: "IN PERIOD", Debit: "100.00"},
			{Date: "05/08/2024", Description: "AFTER PERIOD", Debit: "200.00"},
		},
	}

	_, txns, err := Statement(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("transactions: got %d, want 2 (out-of-period rows are kept)", len(txns))
	}
	if len(txns[0].Flags) != 0 {
		t.Errorf("txn[0].Flags: got %v, want none", txns[0].Flags)
	}
	if len(txns[1].Flags) != 1 || txns[1].Flags[0] != models.FlagOutOfPeriod {
		t.Errorf("txn[1].Flags: got %v, want [%s]", txns[1].Flags, models.FlagOutOfPeriod)
	}
}

func TestStatement_BalanceReconstruction(t *testing.T) {
	// No printed summary: opening comes from the first row's balance
	// plus its debit, closing from the last row's balance.
	raw := &bank.RawStatement{
		Bank:        models.BankSBI,
		DateLayouts: []string{"02/01/2006"},
		Rows: []bank.RawRow{
			{Date: "02/07/2024", Description: "TO TRANSFER", Debit: "450.00", Balance: "9,550.00"},
			{Date: "05/07/2024", Description: "BY TRANSFER", Credit: "1,000.00", Balance: "10,550.00"},
		},
	}

	stmt, _, err := Statement(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stmt.OpeningBalance.Equal(decimal.RequireFromString("10000.00")) {
		t.Errorf("opening balance: got %s, want 10000.00", stmt.OpeningBalance)
	}
	if !stmt.ClosingBalance.Equal(decimal.RequireFromString("10550.00")) {
		t.Errorf("closing balance: got %s, want 10550.00", stmt.ClosingBalance)
	}
}

func TestStatement_ExactTotals(t *testing.T) {
	// Amounts that misbehave in binary floating point must sum exactly.
	raw := &bank.RawStatement{
		Bank:        models.BankSBI,
		DateLayouts: []string{"02/01/2006"},
		Rows: []bank.RawRow{
			{Date: "02/07/2024", Description: "A", Debit: "0.10"},
			{Date: "03/07/2024", Description: "B", Debit: "0.20"},
		},
	}

	stmt, _, err := Statement(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stmt.TotalDebit.Equal(decimal.RequireFromString("0.30")) {
		t.Errorf("total debit: got %s, want exactly 0.30", stmt.TotalDebit)
	}
}

func TestInferChannel(t *testing.T) {
	tests := []struct {
		desc string
		ref  string
		want models.Channel
	}{
		{"UPI-SWIGGY-swiggy@icici", "", models.ChannelUPI},
		{"payment", "UPI418812345", models.ChannelUPI},
		{"POS 416021XXXXXX RELIANCE", "", models.ChannelCard},
		{"ATW-512967 CASH WDL", "", models.ChannelATM},
		{"NEFT/BOIN2024/RENT", "", models.ChannelTransfer},
		{"CHQ PAID 654321", "", models.ChannelTransfer},
		{"MISC CHARGES", "", models.ChannelOther},
	}
	for _, tt := range tests {
		if got := InferChannel(tt.desc, tt.ref); got != tt.want {
			t.Errorf("InferChannel(%q, %q) = %q, want %q", tt.desc, tt.ref, got, tt.want)
		}
	}
}
