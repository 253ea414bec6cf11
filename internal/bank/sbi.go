package bank

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// SBIAdapter handles State Bank of India statement PDFs.
//
// SBI statements use this layout:
//
//	Txn Date | Narration | Ref No./Cheque No. | Debit | Credit | Balance
//
// Date format: DD/MM/YYYY (older exports use DD-MM-YYYY).
// Example line: "02/07/2024 TO TRANSFER-UPI/DR/418812345/SWIGGY  UPI418812345  450.00  12,345.67"
type SBIAdapter struct{}

func (a *SBIAdapter) Bank() models.BankType { return models.BankSBI }
func (a *SBIAdapter) Name() string          { return "State Bank of India" }

func (a *SBIAdapter) Detect(text string) bool {
	if strings.Contains(text, "STATE BANK OF INDIA") {
		return true
	}
	// IFSC prefix is the strongest tie-breaker: plain "SBI" shows up in
	// other banks' narrations (SBI CARDS payments etc).
	return strings.Contains(text, "SBIN0")
}

var (
	sbiDatePattern = regexp.MustCompile(`^(\d{2}[-/]\d{2}[-/]\d{4})\b`)
	sbiRefPattern  = regexp.MustCompile(`\b([A-Z0-9]{10,22})\s*$`)
	sbiCIFPattern  = regexp.MustCompile(`(?i)\bCIF\s*(?:no)?\s*[.:\-]?\s*(\d{9,11})\b`)
)

func (a *SBIAdapter) Parse(pages []string) (*RawStatement, error) {
	allText := strings.Join(pages, "\n")

	if !hasHeaderRow(allText, "date", "debit", "credit", "balance") &&
		!hasHeaderRow(allText, "date", "narration", "balance") {
		return nil, errMissingHeader(a, "Txn Date | Narration | Debit | Credit | Balance")
	}

	raw := &RawStatement{
		Bank:          models.BankSBI,
		AccountNumber: findAccountNumber(allText),
		AccountHolder: extractLabeledValue(allText, "Account Name", "Account Holder", "Customer Name"),
		DateLayouts:   []string{"02/01/2006", "02-01-2006", "2 Jan 2006"},
	}
	raw.OpeningBalance = extractLabeledAmount(allText, "opening balance", "balance as on", "balance b/f")
	raw.ClosingBalance = extractLabeledAmount(allText, "closing balance", "balance c/f")
	raw.PeriodStart, raw.PeriodEnd = extractPeriod(allText)

	raw.Sidecar.SBI = &models.SBISidecar{
		Branch: extractLabeledValue(allText, "Branch Name", "Branch"),
		IFSC:   findIFSC(allText),
	}
	if m := sbiCIFPattern.FindStringSubmatch(allText); m != nil {
		raw.Sidecar.SBI.CIFNumber = m[1]
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

			m := sbiDatePattern.FindStringSubmatch(line)
			if m == nil {
				// Continuation of the previous narration.
				if inTable && len(raw.Rows) > 0 && !sbiLooksLikeFurniture(line) {
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
			if rm := sbiRefPattern.FindStringSubmatch(rest); rm != nil {
				row.Reference = rm[1]
				row.Description = strings.TrimSpace(rest[:len(rest)-len(rm[0])])
			}

			switch len(amounts) {
			case 3:
				// Debit | Credit | Balance — one side is printed 0.00.
				row.Debit, row.Credit, row.Balance = amounts[0], amounts[1], amounts[2]
			case 2:
				// One amount column plus balance. The column gap is lost
				// in text extraction, so reconcile against the running
				// balance to tell debit from credit.
				row.Balance = amounts[1]
				switch classifyByBalance(amounts[0], amounts[1], prevBalance, hasPrev) {
				case "DR":
					row.Debit = amounts[0]
				case "CR":
					row.Credit = amounts[0]
				default:
					if creditNarration(row.Description) {
						row.Credit = amounts[0]
					} else if strings.Contains(strings.ToUpper(row.Description), "TO TRANSFER") ||
						strings.Contains(strings.ToUpper(row.Description), "/DR/") {
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

func sbiLooksLikeFurniture(line string) bool {
	upper := strings.ToUpper(line)
	return strings.Contains(upper, "STATE BANK") ||
		strings.Contains(upper, "IFSC") ||
		strings.Contains(upper, "BRANCH")
}
