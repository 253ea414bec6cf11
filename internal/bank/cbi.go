package bank

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// CBIAdapter handles Central Bank of India statement PDFs.
//
// Central Bank statements stack each transaction across three lines,
// so this adapter runs a small state machine instead of a per-line
// pattern:
//
//	Line A: DD/MM/YY DD/MM/YY TO TRF. / BY TRF. <amount> <balance>
//	Line B: UPI RRN <number>
//	Line C: TRF TO <counterparty>      (the only usable description)
type CBIAdapter struct{}

func (a *CBIAdapter) Bank() models.BankType { return models.BankCBI }
func (a *CBIAdapter) Name() string          { return "Central Bank of India" }

func (a *CBIAdapter) Detect(text string) bool {
	return strings.Contains(text, "CENTRAL BANK OF INDIA") ||
		(strings.Contains(text, "CENTRAL BANK") && strings.Contains(text, "CBIN0"))
}

var (
	cbiTxnStartPattern = regexp.MustCompile(`^(\d{2}/\d{2}/\d{2})\s+\d{2}/\d{2}/\d{2}\b`)
	cbiRRNPattern      = regexp.MustCompile(`(?i)\bUPI\s+RRN\s+(\d{6,})`)
	cbiDescPattern     = regexp.MustCompile(`(?i)^(?:TRF\s+TO|TRF\s+FROM|BY)\s+(.+)$`)
)

func (a *CBIAdapter) Parse(pages []string) (*RawStatement, error) {
	allText := strings.Join(pages, "\n")

	if !hasHeaderRow(allText, "value date", "post date") &&
		!hasHeaderRow(allText, "date", "details", "balance") &&
		!cbiTxnStartPattern.MatchString(allText) {
		return nil, errMissingHeader(a, "Value Date | Post Date | Details | Amount | Balance")
	}

	raw := &RawStatement{
		Bank:          models.BankCBI,
		AccountNumber: findAccountNumber(allText),
		AccountHolder: extractLabeledValue(allText, "Account Holder", "Name"),
		DateLayouts:   []string{"02/01/06", "02/01/2006"},
	}
	raw.OpeningBalance = extractLabeledAmount(allText, "opening balance", "balance brought forward")
	raw.ClosingBalance = extractLabeledAmount(allText, "closing balance", "balance carried forward")
	raw.PeriodStart, raw.PeriodEnd = extractPeriod(allText)

	raw.Sidecar.CBI = &models.CBISidecar{
		Branch: extractLabeledValue(allText, "Branch Name", "Branch"),
		IFSC:   findIFSC(allText),
	}

	var current *RawRow
	flush := func() {
		if current != nil {
			raw.Rows = append(raw.Rows, *current)
			current = nil
		}
	}

	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			upper := strings.ToUpper(line)

			if m := cbiTxnStartPattern.FindStringSubmatch(line); m != nil {
				flush()

				row := RawRow{Date: m[1]}
				amounts := amountPattern.FindAllString(line, -1)
				if len(amounts) >= 2 {
					row.Amount = amounts[len(amounts)-2]
					row.Balance = amounts[len(amounts)-1]
				} else if len(amounts) == 1 {
					row.Amount = amounts[0]
				}
				if strings.Contains(upper, "BY TRF") || strings.Contains(upper, "SALARY") {
					row.DrCr = "CR"
				} else {
					row.DrCr = "DR"
				}
				// Line A's own text is a fallback description until a
				// "TRF TO" line replaces it.
				if rest, _ := splitTrailingAmounts(strings.TrimSpace(line[len(m[0]):])); rest != "" {
					row.Description = rest
				}
				current = &row
				continue
			}

			if isSummaryLine(line) || cbiIsFurniture(upper) {
				continue
			}

			if current == nil {
				continue
			}
			if m := cbiRRNPattern.FindStringSubmatch(line); m != nil {
				current.Reference = m[1]
				continue
			}
			if cbiDescPattern.MatchString(line) {
				current.Description = line
				continue
			}
		}
	}
	flush()

	if len(raw.Rows) == 0 {
		return nil, errNoRows(a)
	}
	return raw, nil
}

func cbiIsFurniture(upper string) bool {
	for _, kw := range []string{
		"CENTRAL BANK", "STATEMENT OF ACCOUNT", "VALUE DATE",
		"POST DATE", "DETAILS", "BALANCE SUMMARY", "PAGE",
	} {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
