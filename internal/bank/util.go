package bank

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Patterns shared across the Indian bank statement layouts.
var (
	// 1,23,456.78 (Indian grouping) or 123456.78
	amountPattern = regexp.MustCompile(`[\d,]+\.\d{2}`)

	ifscPattern = regexp.MustCompile(`\b([A-Z]{4}0[A-Z0-9]{6})\b`)
	micrPattern = regexp.MustCompile(`\bMICR\s*(?:CODE)?\s*[:\-]?\s*(\d{9})\b`)

	// Account numbers are 9-18 digits, sometimes partially masked.
	accountNumberPattern = regexp.MustCompile(`(?i)\b(?:account|a/c)\s*(?:no|number|nbr)?\s*[.:\-]?\s*([0-9Xx*]{9,18})\b`)

	periodPattern = regexp.MustCompile(
		`(?i)(?:statement\s+)?(?:period|from)\s*[:\-]?\s*(\d{1,2}[-/][A-Za-z0-9]{2,3}[-/]\d{2,4})\s*(?:to|till|-)\s*(\d{1,2}[-/][A-Za-z0-9]{2,3}[-/]\d{2,4})`,
	)
)

// ParseMoney converts statement amount text like "1,23,456.78",
// "₹450.00", "450.00 Dr" or "(450.00)" into a decimal. Decimal
// arithmetic keeps summation exact; amounts never pass through floats.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	// Trailing Dr/Cr markers belong to direction, not magnitude.
	upper := strings.ToUpper(s)
	for _, suffix := range []string{"DR.", "CR.", "DR", "CR"} {
		if strings.HasSuffix(upper, suffix) {
			s = s[:len(s)-len(suffix)]
			break
		}
	}

	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func errMissingHeader(a Adapter, want string) error {
	return fmt.Errorf("%w: %s transaction table header not found (expected columns: %s)",
		ErrMalformedStatement, a.Name(), want)
}

func errNoRows(a Adapter) error {
	return fmt.Errorf("%w: %s layout matched but zero transaction rows parsed",
		ErrNoTransactionsFound, a.Name())
}

// classifyByBalance decides whether a single-amount row is a debit or
// credit by checking which direction makes the running balance work
// out exactly. Returns "DR", "CR", or "" when the previous balance is
// unknown or neither direction reconciles.
func classifyByBalance(amountText, balanceText string, prev decimal.Decimal, hasPrev bool) string {
	if !hasPrev {
		return ""
	}
	amt, err := ParseMoney(amountText)
	if err != nil {
		return ""
	}
	bal, err := ParseMoney(balanceText)
	if err != nil {
		return ""
	}
	switch {
	case prev.Sub(amt).Equal(bal):
		return "DR"
	case prev.Add(amt).Equal(bal):
		return "CR"
	}
	return ""
}

// creditNarration reports whether a narration reads like money coming
// in. Used only when balance progression cannot decide.
func creditNarration(desc string) bool {
	upper := strings.ToUpper(desc)
	for _, kw := range []string{
		"BY TRF", "SALARY", "INTEREST", "DEPOSIT", "REFUND",
		"REVERSAL", "CASH DEP", "NEFT CR", "IMPS CR", "BY CLG",
	} {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func findIFSC(text string) string {
	if m := ifscPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func findMICR(text string) string {
	if m := micrPattern.FindStringSubmatch(strings.ToUpper(text)); m != nil {
		return m[1]
	}
	return ""
}

func findAccountNumber(text string) string {
	if m := accountNumberPattern.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// extractPeriod finds the statement period and returns the raw start
// and end date text.
func extractPeriod(text string) (start, end string) {
	if m := periodPattern.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	return "", ""
}

// extractLabeledValue returns the remainder of the first line carrying
// one of the labels, stripped of a leading colon. Used for account
// holder names, branch names and similar label/value pairs.
func extractLabeledValue(text string, labels ...string) string {
	for _, line := range strings.Split(text, "\n") {
		for _, label := range labels {
			idx := strings.Index(strings.ToUpper(line), strings.ToUpper(label))
			if idx < 0 {
				continue
			}
			rest := strings.TrimSpace(line[idx+len(label):])
			rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
			// Values run to a double-space column gap, if any.
			if gap := strings.Index(rest, "  "); gap > 0 {
				rest = rest[:gap]
			}
			if rest != "" {
				return rest
			}
		}
	}
	return ""
}

// extractLabeledAmount finds the last amount on the first line carrying
// one of the labels. Used for opening/closing balance summary rows.
func extractLabeledAmount(text string, labels ...string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		matched := false
		for _, label := range labels {
			if strings.Contains(lower, strings.ToLower(label)) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		amounts := amountPattern.FindAllString(line, -1)
		if len(amounts) > 0 {
			return amounts[len(amounts)-1]
		}
	}
	return ""
}

// hasHeaderRow reports whether any line contains every one of the
// given column keywords. Adapters use it to verify the transaction
// table they expect is actually present.
func hasHeaderRow(text string, keywords ...string) bool {
	for _, line := range strings.Split(strings.ToLower(text), "\n") {
		all := true
		for _, kw := range keywords {
			if !strings.Contains(line, strings.ToLower(kw)) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// isSummaryLine filters totals and page furniture out of the
// transaction table body.
func isSummaryLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range []string{
		"opening balance", "closing balance", "balance brought forward",
		"balance carried forward", "brought forward", "carried forward",
		"total debit", "total credit", "total withdrawal", "total deposit",
		"statement period", "page ", "continued", "end of statement",
		"grand total", "statement summary",
	} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitTrailingAmounts takes the tail of a transaction line and splits
// it into the 1-3 amount cells it carries, returning the leading text
// with the amounts removed.
func splitTrailingAmounts(line string) (rest string, amounts []string) {
	locs := amountPattern.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return line, nil
	}
	// Walk backwards collecting amounts that sit at the end of the
	// line, separated only by whitespace.
	cut := len(line)
	for i := len(locs) - 1; i >= 0 && len(amounts) < 3; i-- {
		between := line[locs[i][1]:cut]
		if strings.TrimSpace(between) != "" {
			break
		}
		amounts = append([]string{line[locs[i][0]:locs[i][1]]}, amounts...)
		cut = locs[i][0]
	}
	return strings.TrimSpace(line[:cut]), amounts
}
