package bank

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// UnionAdapter handles Union Bank of India statement PDFs.
//
// Union Bank statements use a single amount column with a Dr/Cr tag:
//
//	Tran Id | Tran Date | Remarks | Amount (Rs.) | Dr/Cr | Balance (Rs.)
//
// Date format: DD/MM/YYYY.
// Example line: "S12345678  02/07/2024  UPI/CR/418812345/SALARY  45,000.00 (Cr)  98,765.43"
//
// The Tran Id column must never be read as an amount; the line pattern
// anchors it to the start of the row so it cannot leak into the
// amount cells.
type UnionAdapter struct{}

func (a *UnionAdapter) Bank() models.BankType { return models.BankUnion }
func (a *UnionAdapter) Name() string          { return "Union Bank of India" }

func (a *UnionAdapter) Detect(text string) bool {
	return strings.Contains(text, "UNION BANK OF INDIA") ||
		strings.Contains(text, "UNION BANK") ||
		strings.Contains(text, "UBIN0")
}

var (
	// Tran Id, Tran Date, Remarks, Amount, (Dr)/(Cr), Balance.
	unionLinePattern = regexp.MustCompile(
		`^([A-Z]?\d{6,16})\s+(\d{2}/\d{2}/\d{4})\s+(.+?)\s+` +
			`([\d,]+\.\d{2})\s*\(?(Dr|Cr|DR|CR)\.?\)?\s+([\d,]+\.\d{2})\s*$`,
	)
	// Fallback for exports without the Tran Id column.
	unionNoIDPattern = regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+` +
			`([\d,]+\.\d{2})\s*\(?(Dr|Cr|DR|CR)\.?\)?\s+([\d,]+\.\d{2})\s*$`,
	)
)

func (a *UnionAdapter) Parse(pages []string) (*RawStatement, error) {
	allText := strings.Join(pages, "\n")

	if !hasHeaderRow(allText, "tran", "remarks", "amount", "balance") &&
		!hasHeaderRow(allText, "date", "amount", "balance") {
		return nil, errMissingHeader(a, "Tran Id | Tran Date | Remarks | Amount (Rs.) | Dr/Cr | Balance (Rs.)")
	}

	raw := &RawStatement{
		Bank:          models.BankUnion,
		AccountNumber: findAccountNumber(allText),
		AccountHolder: extractLabeledValue(allText, "Account Name", "Customer Name", "Name"),
		DateLayouts:   []string{"02/01/2006", "02-01-2006"},
	}
	raw.OpeningBalance = extractLabeledAmount(allText, "opening balance", "balance b/f")
	raw.ClosingBalance = extractLabeledAmount(allText, "closing balance", "balance c/f")
	raw.PeriodStart, raw.PeriodEnd = extractPeriod(allText)

	raw.Sidecar.Union = &models.UnionSidecar{
		Branch: extractLabeledValue(allText, "Branch Name", "Branch"),
		IFSC:   findIFSC(allText),
		MICR:   findMICR(allText),
	}

	for _, page := range pages {
		inTable := false
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || isSummaryLine(line) {
				continue
			}

			var row RawRow
			if m := unionLinePattern.FindStringSubmatch(line); m != nil {
				row = RawRow{
					Reference:   m[1],
					Date:        m[2],
					Description: strings.TrimSpace(m[3]),
					Amount:      m[4],
					DrCr:        strings.ToUpper(m[5]),
					Balance:     m[6],
				}
			} else if m := unionNoIDPattern.FindStringSubmatch(line); m != nil {
				row = RawRow{
					Date:        m[1],
					Description: strings.TrimSpace(m[2]),
					Amount:      m[3],
					DrCr:        strings.ToUpper(m[4]),
					Balance:     m[5],
				}
			} else {
				if inTable && len(raw.Rows) > 0 && !strings.Contains(strings.ToUpper(line), "UNION BANK") {
					last := &raw.Rows[len(raw.Rows)-1]
					last.Description += " " + line
				}
				continue
			}

			inTable = true
			raw.Rows = append(raw.Rows, row)
		}
	}

	if len(raw.Rows) == 0 {
		return nil, errNoRows(a)
	}
	return raw, nil
}
