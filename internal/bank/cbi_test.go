package bank

import (
	"testing"
)

func TestCBIAdapter_Parse(t *testing.T) {
	a := &CBIAdapter{}

	// Central Bank stacks each transaction across three lines: the
	// dated amounts line, the RRN line, and the counterparty line.
	pages := []string{
		`CENTRAL BANK OF INDIA
Account Holder : PRIYA NAIR
Account Number : 3012345678
Branch : FORT MUMBAI
IFSC : CBIN0281234

Value Date Post Date Details Amount Balance
02/07/24 02/07/24 TO TRF. 450.00 9,550.00
UPI RRN 418812345678
TRF TO SWIGGY BANGALORE
05/07/24 05/07/24 BY TRF. 45,000.00 54,550.00
UPI RRN 418899887766
TRF FROM ACME CORP SALARY`,
	}

	raw, err := a.Parse(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.AccountNumber != "3012345678" {
		t.Errorf("account number: got %q, want %q", raw.AccountNumber, "3012345678")
	}
	if raw.Sidecar.CBI == nil || raw.Sidecar.CBI.IFSC != "CBIN0281234" {
		t.Errorf("sidecar: got %+v, want IFSC CBIN0281234", raw.Sidecar.CBI)
	}

	if len(raw.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(raw.Rows))
	}

	row := raw.Rows[0]
	if row.Date != "02/07/24" {
		t.Errorf("row[0].Date: got %q, want %q", row.Date, "02/07/24")
	}
	if row.Amount != "450.00" || row.DrCr != "DR" {
		t.Errorf("row[0]: got amount %q tag %q, want 450.00 DR", row.Amount, row.DrCr)
	}
	if row.Balance != "9,550.00" {
		t.Errorf("row[0].Balance: got %q, want %q", row.Balance, "9,550.00")
	}
	if row.Reference != "418812345678" {
		t.Errorf("row[0].Reference: got %q, want %q", row.Reference, "418812345678")
	}
	// The TRF TO line replaces line A's own text as the description.
	if want := "TRF TO SWIGGY BANGALORE"; row.Description != want {
		t.Errorf("row[0].Description: got %q, want %q", row.Description, want)
	}

	row = raw.Rows[1]
	if row.Amount != "45,000.00" || row.DrCr != "CR" {
		t.Errorf("row[1]: got amount %q tag %q, want 45,000.00 CR", row.Amount, row.DrCr)
	}
	if row.Reference != "418899887766" {
		t.Errorf("row[1].Reference: got %q, want %q", row.Reference, "418899887766")
	}
	if want := "TRF FROM ACME CORP SALARY"; row.Description != want {
		t.Errorf("row[1].Description: got %q, want %q", row.Description, want)
	}
}

func TestCBIAdapter_LastRowFlushed(t *testing.T) {
	a := &CBIAdapter{}

	pages := []string{
		`CENTRAL BANK OF INDIA
Value Date Post Date Details Amount Balance
10/07/24 10/07/24 TO TRF. 100.00 900.00`,
	}

	raw, err := a.Parse(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw.Rows) != 1 {
		t.Fatalf("rows: got %d, want 1 (final row must be flushed)", len(raw.Rows))
	}
}
