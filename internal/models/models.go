package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BankType identifies a supported statement issuer.
type BankType string

const (
	BankSBI   BankType = "SBI"
	BankHDFC  BankType = "HDFC"
	BankBOI   BankType = "BOI"
	BankCBI   BankType = "CBI"
	BankUnion BankType = "UNION"
	BankAxis  BankType = "AXIS"
)

// AllBanks lists the supported issuers in detector priority order.
// Central Bank first, then SBI and Union before BOI: their full names
// contain "BANK OF INDIA" and must win over the plain BOI signature.
var AllBanks = []BankType{BankCBI, BankSBI, BankUnion, BankBOI, BankAxis, BankHDFC}

// ParseBankType converts user input like "hdfc" into a BankType.
func ParseBankType(s string) (BankType, error) {
	b := BankType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllBanks {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unsupported bank type %q (supported: SBI, HDFC, BOI, CBI, UNION, AXIS)", s)
}

// Direction carries the sign of a transaction. Amounts are always
// non-negative magnitudes; the sign lives here and nowhere else.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Channel is the payment rail a transaction moved over.
type Channel string

const (
	ChannelUPI      Channel = "UPI"
	ChannelCard     Channel = "CARD"
	ChannelATM      Channel = "ATM"
	ChannelTransfer Channel = "BANK_TRANSFER"
	ChannelOther    Channel = "OTHER"
)

// FlagOutOfPeriod marks a transaction dated outside the statement's
// stated period. Such rows are kept, never dropped.
const FlagOutOfPeriod = "out_of_period"

// Statement is the polymorphic parent document: one per uploaded PDF.
// Summary fields are computed once, after all transactions for the
// statement are normalized, and only change on a full rewrite.
type Statement struct {
	ID            string    `json:"statementId"`
	UserID        string    `json:"userId"`
	BankType      BankType  `json:"bankType"`
	FileName      string    `json:"fileName"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	AccountHolder string    `json:"accountHolder,omitempty"`
	PeriodStart   time.Time `json:"periodStart,omitempty"`
	PeriodEnd     time.Time `json:"periodEnd,omitempty"`

	OpeningBalance   decimal.Decimal `json:"openingBalance"`
	ClosingBalance   decimal.Decimal `json:"closingBalance"`
	TotalDebit       decimal.Decimal `json:"totalDebit"`
	TotalCredit      decimal.Decimal `json:"totalCredit"`
	TransactionCount int             `json:"transactionCount"`

	BankSpecific BankSpecific `json:"bankSpecific,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Transaction is one normalized line item. StatementID, UserID and
// BankType are stamped from the parent at write time and must always
// equal the parent's values.
type Transaction struct {
	ID          string   `json:"transactionId"`
	StatementID string   `json:"statementId"`
	UserID      string   `json:"userId"`
	BankType    BankType `json:"bankType"`

	Date      time.Time           `json:"date"`
	Amount    decimal.Decimal     `json:"amount"`
	Direction Direction           `json:"direction"`
	Balance   decimal.NullDecimal `json:"balance,omitempty"`

	Channel     Channel   `json:"channel"`
	Merchant    string    `json:"merchant"`
	Category    string    `json:"category"`
	Reference   string    `json:"reference,omitempty"`
	Description string    `json:"description"`
	Flags       []string  `json:"flags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ForbiddenCategory reports whether a category label is one of the
// placeholder sentinels that must never be persisted.
func ForbiddenCategory(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "unknown", "others", "":
		return true
	}
	return false
}

// Date returns a calendar date at UTC midnight. Statement dates carry
// no timezone; UTC midnight is the canonical representation.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
