package bank

import (
	"testing"
)

func TestAxisAdapter_Parse(t *testing.T) {
	a := &AxisAdapter{}

	pages := []string{
		`AXIS BANK LTD
Customer Name : ROHAN MEHTA
Account No : 911010012345678
Branch Name : PUNE CAMP
IFSC : UTIB0000123
Cust ID : 861234567

Tran Date Chq No Particulars Debit Credit Balance Init.Br
Opening Balance 20,000.00
05-02-2024 UPI/P2M/403456789012/ZOMATO 350.00 19,650.00 PUNE
12-02-2024 NEFT CR SALARY ACME 55,000.00 74,650.00 PUNE`,
	}

	raw, err := a.Parse(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.AccountNumber != "911010012345678" {
		t.Errorf("account number: got %q, want %q", raw.AccountNumber, "911010012345678")
	}
	sc := raw.Sidecar.Axis
	if sc == nil {
		t.Fatal("expected Axis sidecar")
	}
	if sc.CustomerID != "861234567" {
		t.Errorf("sidecar customer id: got %q, want %q", sc.CustomerID, "861234567")
	}

	if len(raw.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(raw.Rows))
	}

	// The Init.Br cell must be stripped before the amounts are read,
	// and the branch name must not survive in the description.
	row := raw.Rows[0]
	if row.Debit != "350.00" {
		t.Errorf("row[0].Debit: got %q, want %q", row.Debit, "350.00")
	}
	if row.Balance != "19,650.00" {
		t.Errorf("row[0].Balance: got %q, want %q", row.Balance, "19,650.00")
	}
	if want := "UPI/P2M/403456789012/ZOMATO"; row.Description != want {
		t.Errorf("row[0].Description: got %q, want %q", row.Description, want)
	}

	row = raw.Rows[1]
	if row.Credit != "55,000.00" {
		t.Errorf("row[1].Credit: got %q, want %q", row.Credit, "55,000.00")
	}
}

func TestAxisAdapter_LeadingChequeNumber(t *testing.T) {
	a := &AxisAdapter{}

	pages := []string{
		`AXIS BANK
Tran Date Chq No Particulars Debit Credit Balance
Opening Balance 10,000.00
07-03-2024 654321 CLG CHEQUE PAID 2,500.00 7,500.00`,
	}

	raw, err := a.Parse(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw.Rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(raw.Rows))
	}
	row := raw.Rows[0]
	if row.Reference != "654321" {
		t.Errorf("reference: got %q, want %q", row.Reference, "654321")
	}
	if want := "CLG CHEQUE PAID"; row.Description != want {
		t.Errorf("description: got %q, want %q", row.Description, want)
	}
	if row.Debit != "2,500.00" {
		t.Errorf("debit: got %q, want %q", row.Debit, "2,500.00")
	}
}
