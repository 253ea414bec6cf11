package bank

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// AxisAdapter handles Axis Bank statement PDFs.
//
// Axis statements use this layout:
//
//	Tran Date | Chq No | Particulars | Debit | Credit | Balance | Init.Br
//
// Date format: DD-MM-YYYY.
// Example line: "05-02-2024  UPI/P2M/403456789012/ZOMATO  350.00  23,456.78  PUNE"
type AxisAdapter struct{}

func (a *AxisAdapter) Bank() models.BankType { return models.BankAxis }
func (a *AxisAdapter) Name() string          { return "Axis Bank" }

func (a *AxisAdapter) Detect(text string) bool {
	return strings.Contains(text, "AXIS BANK") || strings.Contains(text, "UTIB0")
}

var (
	axisDatePattern = regexp.MustCompile(`^(\d{2}-\d{2}-\d{4})\b`)
	// Trailing initiating-branch cell after the balance column.
	axisBranchTail    = regexp.MustCompile(`\s+([A-Z][A-Z ]{2,20})\s*$`)
	axisChequeLeading = regexp.MustCompile(`^(\d{6})\s+`)
	axisCustIDPattern = regexp.MustCompile(`(?i)\bCust(?:omer)?\s*(?:ID|No)\s*[.:\-]?\s*(\d{6,12})\b`)
)

func (a *AxisAdapter) Parse(pages []string) (*RawStatement, error) {
	allText := strings.Join(pages, "\n")

	if !hasHeaderRow(allText, "date", "particulars", "debit", "credit", "balance") &&
		!hasHeaderRow(allText, "date", "particulars", "balance") {
		return nil, errMissingHeader(a, "Tran Date | Chq No | Particulars | Debit | Credit | Balance | Init.Br")
	}

	raw := &RawStatement{
		Bank:          models.BankAxis,
		AccountNumber: findAccountNumber(allText),
		AccountHolder: extractLabeledValue(allText, "Customer Name", "Account Name", "Joint Holder"),
		DateLayouts:   []string{"02-01-2006", "02/01/2006"},
	}
	raw.OpeningBalance = extractLabeledAmount(allText, "opening balance")
	raw.ClosingBalance = extractLabeledAmount(allText, "closing balance")
	raw.PeriodStart, raw.PeriodEnd = extractPeriod(allText)

	raw.Sidecar.Axis = &models.AxisSidecar{
		Branch: extractLabeledValue(allText, "Branch Name", "Home Branch", "Branch"),
		IFSC:   findIFSC(allText),
	}
	if m := axisCustIDPattern.FindStringSubmatch(allText); m != nil {
		raw.Sidecar.Axis.CustomerID = m[1]
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

			m := axisDatePattern.FindStringSubmatch(line)
			if m == nil {
				if inTable && len(raw.Rows) > 0 && !strings.Contains(strings.ToUpper(line), "AXIS BANK") {
					last := &raw.Rows[len(raw.Rows)-1]
					last.Description += " " + line
				}
				continue
			}
			inTable = true

			body := strings.TrimSpace(line[len(m[1]):])
			// Strip the Init.Br cell so it can't glue onto the balance.
			if bm := axisBranchTail.FindStringSubmatch(body); bm != nil && !amountPattern.MatchString(bm[1]) {
				body = strings.TrimSpace(body[:len(body)-len(bm[0])])
			}

			rest, amounts := splitTrailingAmounts(body)
			if len(amounts) == 0 {
				continue
			}

			row := RawRow{Date: m[1], Description: rest}
			if cm := axisChequeLeading.FindStringSubmatch(rest); cm != nil {
				row.Reference = cm[1]
				row.Description = strings.TrimSpace(rest[len(cm[0]):])
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
					} else if strings.Contains(strings.ToUpper(row.Description), "/P2M/") ||
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
