// Package normalize maps per-bank raw rows into the canonical
// transaction schema. Format-specific parsing stays in the adapters;
// everything here is bank-agnostic.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-pipeline/internal/bank"
	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// ErrMalformedTransaction means a raw row cannot be mapped into the
// canonical schema: no parsable date, no amount, or a balance with no
// discernible direction.
var ErrMalformedTransaction = errors.New("malformed transaction")

// Statement converts an adapter's raw output into a canonical
// statement and its transactions. Returned documents carry no ids and
// no user identity; the store stamps those at write time. Statement
// summary fields are computed here, exactly once.
//
// Rows dated outside a known statement period are flagged and kept.
// Dropping them silently would be data loss, which is worse than
// including a borderline row.
func Statement(raw *bank.RawStatement) (*models.Statement, []models.Transaction, error) {
	if raw == nil || len(raw.Rows) == 0 {
		return nil, nil, fmt.Errorf("%w: empty raw statement", ErrMalformedTransaction)
	}

	stmt := &models.Statement{
		BankType:      raw.Bank,
		AccountNumber: raw.AccountNumber,
		AccountHolder: raw.AccountHolder,
		BankSpecific:  raw.Sidecar,
	}

	if t, ok := parseDate(raw.PeriodStart, raw.DateLayouts); ok {
		stmt.PeriodStart = t
	}
	if t, ok := parseDate(raw.PeriodEnd, raw.DateLayouts); ok {
		stmt.PeriodEnd = t
	}

	txns := make([]models.Transaction, 0, len(raw.Rows))
	totalDebit, totalCredit := decimal.Zero, decimal.Zero

	for i, row := range raw.Rows {
		txn, err := transaction(row, raw.DateLayouts)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		if outOfPeriod(txn.Date, stmt.PeriodStart, stmt.PeriodEnd) {
			txn.Flags = append(txn.Flags, models.FlagOutOfPeriod)
		}

		if txn.Direction == models.Debit {
			totalDebit = totalDebit.Add(txn.Amount)
		} else {
			totalCredit = totalCredit.Add(txn.Amount)
		}
		txns = append(txns, txn)
	}

	stmt.TotalDebit = totalDebit
	stmt.TotalCredit = totalCredit
	stmt.TransactionCount = len(txns)
	stmt.OpeningBalance, stmt.ClosingBalance = balances(raw, txns)

	return stmt, txns, nil
}

// transaction folds one raw row into the canonical (amount, direction)
// pair. Two-column layouts populate Debit or Credit; single-column
// layouts populate Amount with either a sign or a Dr/Cr tag. Both
// shapes land on the same canonical result.
func transaction(row bank.RawRow, layouts []string) (models.Transaction, error) {
	var txn models.Transaction

	date, ok := parseDate(row.Date, layouts)
	if !ok {
		return txn, fmt.Errorf("%w: unparseable date %q", ErrMalformedTransaction, row.Date)
	}
	txn.Date = date

	debit := moneyOrZero(row.Debit)
	credit := moneyOrZero(row.Credit)

	switch {
	case debit.IsPositive() && credit.IsPositive():
		return txn, fmt.Errorf("%w: row has both debit %s and credit %s", ErrMalformedTransaction, debit, credit)
	case debit.IsPositive():
		txn.Amount, txn.Direction = debit, models.Debit
	case credit.IsPositive():
		txn.Amount, txn.Direction = credit, models.Credit
	case row.Amount != "":
		amt, err := bank.ParseMoney(row.Amount)
		if err != nil {
			return txn, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
		}
		switch {
		case strings.EqualFold(row.DrCr, "DR"):
			txn.Amount, txn.Direction = amt.Abs(), models.Debit
		case strings.EqualFold(row.DrCr, "CR"):
			txn.Amount, txn.Direction = amt.Abs(), models.Credit
		case amt.IsNegative():
			txn.Amount, txn.Direction = amt.Neg(), models.Debit
		case amt.IsPositive() && row.DrCr == "" && row.Balance != "":
			// A balance with no way to tell the direction is
			// unreconcilable, not guessable.
			return txn, fmt.Errorf("%w: amount %s has balance but no discernible direction", ErrMalformedTransaction, amt)
		case amt.IsPositive():
			return txn, fmt.Errorf("%w: amount %s has no discernible direction", ErrMalformedTransaction, amt)
		default:
			return txn, fmt.Errorf("%w: zero amount", ErrMalformedTransaction)
		}
	default:
		return txn, fmt.Errorf("%w: row has no amount", ErrMalformedTransaction)
	}

	if row.Balance != "" {
		if bal, err := bank.ParseMoney(row.Balance); err == nil {
			txn.Balance = decimal.NewNullDecimal(bal)
		}
	}

	txn.Description = collapseSpaces(row.Description)
	txn.Reference = strings.TrimSpace(row.Reference)
	txn.Channel = InferChannel(txn.Description, txn.Reference)
	return txn, nil
}

// InferChannel pattern-matches the transaction text against known rail
// markers. Plain transfer markers default to BANK_TRANSFER; anything
// unrecognizable gets the distinct OTHER tag rather than a guess.
func InferChannel(description, reference string) models.Channel {
	text := strings.ToUpper(description + " " + reference)

	switch {
	case strings.Contains(text, "UPI") || strings.Contains(text, "RRN") || strings.Contains(text, "@"):
		return models.ChannelUPI
	case strings.Contains(text, "POS") || strings.Contains(text, "CARD") || strings.Contains(text, "SWIPE"):
		return models.ChannelCard
	case strings.Contains(text, "ATM") || strings.Contains(text, "ATW"):
		return models.ChannelATM
	case strings.Contains(text, "NEFT") || strings.Contains(text, "IMPS") ||
		strings.Contains(text, "RTGS") || strings.Contains(text, "ACH") ||
		strings.Contains(text, "CHEQUE") || strings.Contains(text, "CHQ") ||
		strings.Contains(text, "CLG") || strings.Contains(text, "TRF") ||
		strings.Contains(text, "TRANSFER"):
		return models.ChannelTransfer
	}
	return models.ChannelOther
}

// balances returns the statement's opening and closing balances,
// preferring the printed summary values and reconstructing from the
// first/last row balances when the summary is missing.
func balances(raw *bank.RawStatement, txns []models.Transaction) (opening, closing decimal.Decimal) {
	if raw.OpeningBalance != "" {
		if d, err := bank.ParseMoney(raw.OpeningBalance); err == nil {
			opening = d
		}
	} else if len(txns) > 0 && txns[0].Balance.Valid {
		first := txns[0]
		if first.Direction == models.Debit {
			opening = first.Balance.Decimal.Add(first.Amount)
		} else {
			opening = first.Balance.Decimal.Sub(first.Amount)
		}
	}

	if raw.ClosingBalance != "" {
		if d, err := bank.ParseMoney(raw.ClosingBalance); err == nil {
			closing = d
		}
	} else {
		for i := len(txns) - 1; i >= 0; i-- {
			if txns[i].Balance.Valid {
				closing = txns[i].Balance.Decimal
				break
			}
		}
	}
	return opening, closing
}

func parseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return models.Date(t.Year(), t.Month(), t.Day()), true
		}
	}
	return time.Time{}, false
}

func outOfPeriod(date, start, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return date.Before(start) || date.After(end)
}

func moneyOrZero(s string) decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero
	}
	d, err := bank.ParseMoney(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
