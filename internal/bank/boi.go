package bank

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// BOIAdapter handles Bank of India statement PDFs.
//
// BOI statements use this layout:
//
//	Sl | Date | Particulars | Cheque No | Withdrawal | Deposit | Balance
//
// Date format: DD-MM-YYYY.
// Example line: "3  05-02-2024  NEFT/BOIN2024/RENT PAYMENT  123456  15,000.00  45,678.90"
type BOIAdapter struct{}

func (a *BOIAdapter) Bank() models.BankType { return models.BankBOI }
func (a *BOIAdapter) Name() string          { return "Bank of India" }

func (a *BOIAdapter) Detect(text string) bool {
	// Every other issuer whose full name contains "BANK OF INDIA" must
	// be ruled out explicitly; the detector treats multiple claims as
	// an error rather than picking a winner.
	if strings.Contains(text, "STATE BANK OF INDIA") ||
		strings.Contains(text, "CENTRAL BANK OF INDIA") ||
		strings.Contains(text, "CENTRAL BANK") ||
		strings.Contains(text, "UNION BANK OF INDIA") ||
		strings.Contains(text, "UNION BANK") {
		return false
	}
	return strings.Contains(text, "BANK OF INDIA") || strings.Contains(text, "BKID0")
}

// Optional serial number column, then the date.
var (
	boiLinePattern   = regexp.MustCompile(`^(?:\d{1,4}\s+)?(\d{2}-\d{2}-\d{4})\b`)
	boiChequePattern = regexp.MustCompile(`\s(\d{6})\s*$`)
)

func (a *BOIAdapter) Parse(pages []string) (*RawStatement, error) {
	allText := strings.Join(pages, "\n")

	if !hasHeaderRow(allText, "date", "withdrawal", "deposit", "balance") &&
		!hasHeaderRow(allText, "date", "particulars", "balance") {
		return nil, errMissingHeader(a, "Sl | Date | Particulars | Cheque No | Withdrawal | Deposit | Balance")
	}

	raw := &RawStatement{
		Bank:          models.BankBOI,
		AccountNumber: findAccountNumber(allText),
		AccountHolder: extractLabeledValue(allText, "Account Name", "Customer Name", "Name of Customer"),
		DateLayouts:   []string{"02-01-2006", "02/01/2006"},
	}
	raw.OpeningBalance = extractLabeledAmount(allText, "opening balance", "balance b/f", "brought forward")
	raw.ClosingBalance = extractLabeledAmount(allText, "closing balance", "balance c/f", "carried forward")
	raw.PeriodStart, raw.PeriodEnd = extractPeriod(allText)

	raw.Sidecar.BOI = &models.BOISidecar{
		Branch: extractLabeledValue(allText, "Branch Name", "Branch"),
		IFSC:   findIFSC(allText),
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

			m := boiLinePattern.FindStringSubmatch(line)
			if m == nil {
				if inTable && len(raw.Rows) > 0 && !strings.Contains(strings.ToUpper(line), "BANK OF INDIA") {
					last := &raw.Rows[len(raw.Rows)-1]
					last.Description += " " + line
				}
				continue
			}
			inTable = true

			after := line[strings.Index(line, m[1])+len(m[1]):]
			rest, amounts := splitTrailingAmounts(strings.TrimSpace(after))
			if len(amounts) == 0 {
				continue
			}

			row := RawRow{Date: m[1], Description: rest}
			// Cheque number column, when present, trails the particulars.
			if cm := boiChequePattern.FindStringSubmatch(rest); cm != nil {
				row.Reference = cm[1]
				row.Description = strings.TrimSpace(rest[:len(rest)-len(cm[0])])
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
