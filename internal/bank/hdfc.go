package bank

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// HDFCAdapter handles HDFC Bank statement PDFs.
//
// HDFC statements use this layout:
//
//	Date | Narration | Chq./Ref.No. | Value Dt | Withdrawal Amt. | Deposit Amt. | Closing Balance
//
// Date format: DD/MM/YY.
// Example line: "02/01/24 UPI-SWIGGY-swiggy@icici  0000401234567890  02/01/24  450.00  12,345.67"
type HDFCAdapter struct{}

func (a *HDFCAdapter) Bank() models.BankType { return models.BankHDFC }
func (a *HDFCAdapter) Name() string          { return "HDFC Bank" }

func (a *HDFCAdapter) Detect(text string) bool {
	return strings.Contains(text, "HDFC BANK") || strings.Contains(text, "HDFC0")
}

var (
	hdfcDatePattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{2})\b`)
	// Ref column followed by the value date column.
	hdfcRefValuePattern = regexp.MustCompile(`\s([A-Z0-9]{10,22})\s+(\d{2}/\d{2}/\d{2})\s*$`)
	hdfcCustIDPattern   = regexp.MustCompile(`(?i)\bCust(?:omer)?\s*ID\s*[.:\-]?\s*(\d{6,12})\b`)
)

func (a *HDFCAdapter) Parse(pages []string) (*RawStatement, error) {
	allText := strings.Join(pages, "\n")

	if !hasHeaderRow(allText, "date", "narration", "balance") &&
		!hasHeaderRow(allText, "withdrawal", "deposit", "balance") {
		return nil, errMissingHeader(a, "Date | Narration | Chq./Ref.No. | Value Dt | Withdrawal | Deposit | Closing Balance")
	}

	raw := &RawStatement{
		Bank:          models.BankHDFC,
		AccountNumber: findAccountNumber(allText),
		AccountHolder: extractLabeledValue(allText, "Account Holder", "MR.", "MRS.", "MS."),
		DateLayouts:   []string{"02/01/06", "02/01/2006"},
	}
	raw.OpeningBalance = extractLabeledAmount(allText, "opening balance")
	raw.ClosingBalance = extractLabeledAmount(allText, "closing balance")
	raw.PeriodStart, raw.PeriodEnd = extractPeriod(allText)

	raw.Sidecar.HDFC = &models.HDFCSidecar{
		Branch: extractLabeledValue(allText, "Account Branch", "Branch"),
		IFSC:   findIFSC(allText),
	}
	if m := hdfcCustIDPattern.FindStringSubmatch(allText); m != nil {
		raw.Sidecar.HDFC.CustomerID = m[1]
	}

	var prevBalance decimal.Decimal
	hasPrev := false
	if raw.OpeningBalance != "" {
		if d, err := ParseMoney(raw.OpeningBalance); err == nil {
			prevBalance, hasPrev = d, true
		}
	}

	for _, page := range pages {
		inTable := false
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || isSummaryLine(line) {
				continue
			}

			m := hdfcDatePattern.FindStringSubmatch(line)
			if m == nil {
				if inTable && len(raw.Rows) > 0 && !hdfcLooksLikeFurniture(line) {
					last := &raw.Rows[len(raw.Rows)-1]
					last.Description += " " + line
				}
				continue
			}
			inTable = true

			rest, amounts := splitTrailingAmounts(strings.TrimSpace(line[len(m[1]):]))
			if len(amounts) == 0 {
				continue
			}

			row := RawRow{Date: m[1], Description: rest}
			// Pull the ref number and drop the redundant value date.
			if rm := hdfcRefValuePattern.FindStringSubmatch(rest); rm != nil {
				row.Reference = rm[1]
				row.Description = strings.TrimSpace(rest[:len(rest)-len(rm[0])])
			}

			switch len(amounts) {
			case 3:
				row.Debit, row.Credit, row.Balance = amounts[0], amounts[1], amounts[2]
			case 2:
				row.Balance = amounts[1]
				switch classifyByBalance(amounts[0], amounts[1], prevBalance, hasPrev) {
				case "DR":
					row.Debit = amounts[0]
				case "CR":
					row.Credit = amounts[0]
				default:
					if creditNarration(row.Description) {
						row.Credit = amounts[0]
					} else if hdfcDebitNarration(row.Description) {
						row.Debit = amounts[0]
					} else {
						row.Amount = amounts[0]
					}
				}
			case 1:
				row.Amount = amounts[0]
			}

			if row.Balance != "" {
				if d, err := ParseMoney(row.Balance); err == nil {
					prevBalance, hasPrev = d, true
				}
			}
			raw.Rows = append(raw.Rows, row)
		}
	}

	if len(raw.Rows) == 0 {
		return nil, errNoRows(a)
	}
	return raw, nil
}

// hdfcDebitNarration recognizes HDFC's outgoing narration prefixes.
// UPI-, POS, ATW and ACH D- rows are withdrawals.
func hdfcDebitNarration(desc string) bool {
	upper := strings.ToUpper(desc)
	for _, prefix := range []string{"UPI-", "POS ", "ATW-", "ATW ", "ACH D-", "EMI", "IB BILLPAY"} {
		if strings.HasPrefix(upper, prefix) || strings.Contains(upper, " "+prefix) {
			return true
		}
	}
	return false
}

func hdfcLooksLikeFurniture(line string) bool {
	upper := strings.ToUpper(line)
	return strings.Contains(upper, "HDFC BANK") ||
		strings.Contains(upper, "IFSC") ||
		strings.Contains(upper, "REGD. OFFICE") ||
		strings.Contains(upper, "GSTIN")
}
