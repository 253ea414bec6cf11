package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// statementDoc is the persisted shape of a statement. The canonical
// models carry no bson tags; the mapping between model and document
// lives entirely in this file.
type statementDoc struct {
	ID            string     `bson:"_id"`
	UserID        string     `bson:"userId"`
	BankType      string     `bson:"bankType"`
	FileName      string     `bson:"fileName,omitempty"`
	AccountNumber string     `bson:"accountNumber,omitempty"`
	AccountHolder string     `bson:"accountHolder,omitempty"`
	PeriodStart   *time.Time `bson:"periodStart,omitempty"`
	PeriodEnd     *time.Time `bson:"periodEnd,omitempty"`

	OpeningBalance   primitive.Decimal128 `bson:"openingBalance"`
	ClosingBalance   primitive.Decimal128 `bson:"closingBalance"`
	TotalDebit       primitive.Decimal128 `bson:"totalDebit"`
	TotalCredit      primitive.Decimal128 `bson:"totalCredit"`
	TransactionCount int                  `bson:"transactionCount"`

	BankSpecific *sidecarDoc `bson:"bankSpecific,omitempty"`
	CreatedAt    time.Time   `bson:"createdAt"`
}

type transactionDoc struct {
	ID          string `bson:"_id"`
	StatementID string `bson:"statementId"`
	UserID      string `bson:"userId"`
	BankType    string `bson:"bankType"`

	Date      time.Time             `bson:"date"`
	Amount    primitive.Decimal128  `bson:"amount"`
	Direction string                `bson:"direction"`
	Balance   *primitive.Decimal128 `bson:"balance,omitempty"`

	Channel     string    `bson:"channel"`
	Merchant    string    `bson:"merchant"`
	Category    string    `bson:"category"`
	Reference   string    `bson:"reference,omitempty"`
	Description string    `bson:"description"`
	Flags       []string  `bson:"flags,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// sidecarDoc mirrors models.BankSpecific, keyed by bank code so the
// stored field name matches the statement's bankType value.
type sidecarDoc struct {
	SBI   *sbiSidecarDoc   `bson:"SBI,omitempty"`
	HDFC  *hdfcSidecarDoc  `bson:"HDFC,omitempty"`
	BOI   *branchIFSCDoc   `bson:"BOI,omitempty"`
	CBI   *branchIFSCDoc   `bson:"CBI,omitempty"`
	Union *unionSidecarDoc `bson:"UNION,omitempty"`
	Axis  *hdfcSidecarDoc  `bson:"AXIS,omitempty"`
}

type sbiSidecarDoc struct {
	CIFNumber string `bson:"cifNumber,omitempty"`
	Branch    string `bson:"branch,omitempty"`
	IFSC      string `bson:"ifsc,omitempty"`
}

type hdfcSidecarDoc struct {
	CustomerID string `bson:"customerId,omitempty"`
	Branch     string `bson:"branch,omitempty"`
	IFSC       string `bson:"ifsc,omitempty"`
}

type branchIFSCDoc struct {
	Branch string `bson:"branch,omitempty"`
	IFSC   string `bson:"ifsc,omitempty"`
}

type unionSidecarDoc struct {
	Branch string `bson:"branch,omitempty"`
	IFSC   string `bson:"ifsc,omitempty"`
	MICR   string `bson:"micr,omitempty"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	out, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("amount %s: %w", d, err)
	}
	return out, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("stored amount %s: %w", d, err)
	}
	return out, nil
}

func toStatementDoc(stmt models.Statement) (statementDoc, error) {
	doc := statementDoc{
		ID:               stmt.ID,
		UserID:           stmt.UserID,
		BankType:         string(stmt.BankType),
		FileName:         stmt.FileName,
		AccountNumber:    stmt.AccountNumber,
		AccountHolder:    stmt.AccountHolder,
		TransactionCount: stmt.TransactionCount,
		CreatedAt:        stmt.CreatedAt,
	}
	if !stmt.PeriodStart.IsZero() {
		t := stmt.PeriodStart
		doc.PeriodStart = &t
	}
	if !stmt.PeriodEnd.IsZero() {
		t := stmt.PeriodEnd
		doc.PeriodEnd = &t
	}

	var err error
	if doc.OpeningBalance, err = toDecimal128(stmt.OpeningBalance); err != nil {
		return statementDoc{}, err
	}
	if doc.ClosingBalance, err = toDecimal128(stmt.ClosingBalance); err != nil {
		return statementDoc{}, err
	}
	if doc.TotalDebit, err = toDecimal128(stmt.TotalDebit); err != nil {
		return statementDoc{}, err
	}
	if doc.TotalCredit, err = toDecimal128(stmt.TotalCredit); err != nil {
		return statementDoc{}, err
	}
	doc.BankSpecific = toSidecarDoc(stmt.BankSpecific)
	return doc, nil
}

func (d statementDoc) model() models.Statement {
	stmt := models.Statement{
		ID:               d.ID,
		UserID:           d.UserID,
		BankType:         models.BankType(d.BankType),
		FileName:         d.FileName,
		AccountNumber:    d.AccountNumber,
		AccountHolder:    d.AccountHolder,
		TransactionCount: d.TransactionCount,
		CreatedAt:        d.CreatedAt,
	}
	if d.PeriodStart != nil {
		stmt.PeriodStart = *d.PeriodStart
	}
	if d.PeriodEnd != nil {
		stmt.PeriodEnd = *d.PeriodEnd
	}
	stmt.OpeningBalance = mustDecimal(d.OpeningBalance)
	stmt.ClosingBalance = mustDecimal(d.ClosingBalance)
	stmt.TotalDebit = mustDecimal(d.TotalDebit)
	stmt.TotalCredit = mustDecimal(d.TotalCredit)
	stmt.BankSpecific = fromSidecarDoc(d.BankSpecific)
	return stmt
}

// mustDecimal converts a value we previously wrote ourselves; those
// round-trip by construction, so a failure here means corrupt data and
// zero is the least bad answer.
func mustDecimal(d primitive.Decimal128) decimal.Decimal {
	out, err := fromDecimal128(d)
	if err != nil {
		return decimal.Zero
	}
	return out
}

func toTransactionDoc(txn models.Transaction) (transactionDoc, error) {
	doc := transactionDoc{
		ID:          txn.ID,
		StatementID: txn.StatementID,
		UserID:      txn.UserID,
		BankType:    string(txn.BankType),
		Date:        txn.Date,
		Direction:   string(txn.Direction),
		Channel:     string(txn.Channel),
		Merchant:    txn.Merchant,
		Category:    txn.Category,
		Reference:   txn.Reference,
		Description: txn.Description,
		Flags:       txn.Flags,
		CreatedAt:   txn.CreatedAt,
	}
	var err error
	if doc.Amount, err = toDecimal128(txn.Amount); err != nil {
		return transactionDoc{}, err
	}
	if txn.Balance.Valid {
		bal, err := toDecimal128(txn.Balance.Decimal)
		if err != nil {
			return transactionDoc{}, err
		}
		doc.Balance = &bal
	}
	return doc, nil
}

func (d transactionDoc) model() models.Transaction {
	txn := models.Transaction{
		ID:          d.ID,
		StatementID: d.StatementID,
		UserID:      d.UserID,
		BankType:    models.BankType(d.BankType),
		Date:        d.Date,
		Direction:   models.Direction(d.Direction),
		Channel:     models.Channel(d.Channel),
		Merchant:    d.Merchant,
		Category:    d.Category,
		Reference:   d.Reference,
		Description: d.Description,
		Flags:       d.Flags,
		CreatedAt:   d.CreatedAt,
	}
	txn.Amount = mustDecimal(d.Amount)
	if d.Balance != nil {
		txn.Balance = decimal.NewNullDecimal(mustDecimal(*d.Balance))
	}
	return txn
}

func toSidecarDoc(b models.BankSpecific) *sidecarDoc {
	switch {
	case b.SBI != nil:
		return &sidecarDoc{SBI: &sbiSidecarDoc{CIFNumber: b.SBI.CIFNumber, Branch: b.SBI.Branch, IFSC: b.SBI.IFSC}}
	case b.HDFC != nil:
		return &sidecarDoc{HDFC: &hdfcSidecarDoc{CustomerID: b.HDFC.CustomerID, Branch: b.HDFC.Branch, IFSC: b.HDFC.IFSC}}
	case b.BOI != nil:
		return &sidecarDoc{BOI: &branchIFSCDoc{Branch: b.BOI.Branch, IFSC: b.BOI.IFSC}}
	case b.CBI != nil:
		return &sidecarDoc{CBI: &branchIFSCDoc{Branch: b.CBI.Branch, IFSC: b.CBI.IFSC}}
	case b.Union != nil:
		return &sidecarDoc{Union: &unionSidecarDoc{Branch: b.Union.Branch, IFSC: b.Union.IFSC, MICR: b.Union.MICR}}
	case b.Axis != nil:
		return &sidecarDoc{Axis: &hdfcSidecarDoc{CustomerID: b.Axis.CustomerID, Branch: b.Axis.Branch, IFSC: b.Axis.IFSC}}
	}
	return nil
}

func fromSidecarDoc(d *sidecarDoc) models.BankSpecific {
	if d == nil {
		return models.BankSpecific{}
	}
	switch {
	case d.SBI != nil:
		return models.BankSpecific{SBI: &models.SBISidecar{CIFNumber: d.SBI.CIFNumber, Branch: d.SBI.Branch, IFSC: d.SBI.IFSC}}
	case d.HDFC != nil:
		return models.BankSpecific{HDFC: &models.HDFCSidecar{CustomerID: d.HDFC.CustomerID, Branch: d.HDFC.Branch, IFSC: d.HDFC.IFSC}}
	case d.BOI != nil:
		return models.BankSpecific{BOI: &models.BOISidecar{Branch: d.BOI.Branch, IFSC: d.BOI.IFSC}}
	case d.CBI != nil:
		return models.BankSpecific{CBI: &models.CBISidecar{Branch: d.CBI.Branch, IFSC: d.CBI.IFSC}}
	case d.Union != nil:
		return models.BankSpecific{Union: &models.UnionSidecar{Branch: d.Union.Branch, IFSC: d.Union.IFSC, MICR: d.Union.MICR}}
	case d.Axis != nil:
		return models.BankSpecific{Axis: &models.AxisSidecar{CustomerID: d.Axis.CustomerID, Branch: d.Axis.Branch, IFSC: d.Axis.IFSC}}
	}
	return models.BankSpecific{}
}
