package bank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// Parsing and detection failures. All are terminal for the document
// being ingested; none affects other statements.
var (
	// ErrUnrecognizedBankFormat means no registered adapter claimed the
	// document, or more than one did. The detector never silently picks
	// a default.
	ErrUnrecognizedBankFormat = errors.New("unrecognized bank statement format")

	// ErrMalformedStatement means the expected table headers or columns
	// for the detected bank are absent.
	ErrMalformedStatement = errors.New("malformed statement")

	// ErrNoTransactionsFound means an adapter parsed zero rows. Every
	// real statement has at least one row, so this is a parsing failure,
	// not an empty success.
	ErrNoTransactionsFound = errors.New("no transactions found in statement")
)

// DetectionError reports a failed or ambiguous bank detection along
// with the adapters that claimed the document.
type DetectionError struct {
	Candidates []models.BankType
}

func (e *DetectionError) Error() string {
	if len(e.Candidates) == 0 {
		return "unrecognized bank statement format: no adapter signature matched"
	}
	names := make([]string, len(e.Candidates))
	for i, b := range e.Candidates {
		names[i] = string(b)
	}
	return fmt.Sprintf("unrecognized bank statement format: ambiguous detection, %d adapters claimed the document: %s",
		len(e.Candidates), strings.Join(names, ", "))
}

func (e *DetectionError) Unwrap() error { return ErrUnrecognizedBankFormat }

// RawRow is one transaction line as it appears on the source document,
// before normalization. Amount cells stay as raw text; the normalizer
// owns all numeric and date semantics. A row carries either the
// two-column pair (Debit/Credit) or the single-column pair
// (Amount + DrCr tag), depending on the issuer's layout.
type RawRow struct {
	Date        string
	Description string
	Reference   string
	Debit       string
	Credit      string
	Amount      string
	DrCr        string // "DR" or "CR" when the layout tags a single amount column
	Balance     string
}

// RawStatement is an adapter's provisional output: account metadata
// plus ordered transaction rows in source order.
type RawStatement struct {
	Bank           models.BankType
	AccountNumber  string
	AccountHolder  string
	OpeningBalance string
	ClosingBalance string
	PeriodStart    string
	PeriodEnd      string

	// DateLayouts are the Go time layouts the issuer is known to use,
	// tried in order by the normalizer.
	DateLayouts []string

	Sidecar models.BankSpecific
	Rows    []RawRow
}

// Adapter converts a single issuer's PDF text into a RawStatement.
type Adapter interface {
	// Bank returns the issuer this adapter handles.
	Bank() models.BankType
	// Name returns the human-readable bank name.
	Name() string
	// Detect reports whether the statement text carries this issuer's
	// signature. The registry calls it with upper-cased text.
	// Predicates are written to be mutually exclusive across the
	// registered set.
	Detect(text string) bool
	// Parse extracts metadata and ordered transaction rows.
	Parse(pages []string) (*RawStatement, error)
}

// Registry holds the adapter set in a fixed priority order. It is an
// explicit constructed value, not a singleton: callers build one and
// pass it into the pipeline.
type Registry struct {
	adapters []Adapter
	byBank   map[models.BankType]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byBank: make(map[models.BankType]Adapter)}
}

// Register appends an adapter. Panics on a duplicate bank, which is a
// programming error in wiring.
func (r *Registry) Register(a Adapter) {
	if _, ok := r.byBank[a.Bank()]; ok {
		panic("duplicate bank adapter: " + string(a.Bank()))
	}
	r.adapters = append(r.adapters, a)
	r.byBank[a.Bank()] = a
}

// Default returns a registry with all six built-in adapters in
// detector priority order.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&CBIAdapter{})
	r.Register(&SBIAdapter{})
	r.Register(&UnionAdapter{})
	r.Register(&BOIAdapter{})
	r.Register(&AxisAdapter{})
	r.Register(&HDFCAdapter{})
	return r
}

// Get returns the adapter for a bank, or nil.
func (r *Registry) Get(bank models.BankType) Adapter {
	return r.byBank[bank]
}

// Banks lists the registered banks in priority order.
func (r *Registry) Banks() []models.BankType {
	out := make([]models.BankType, len(r.adapters))
	for i, a := range r.adapters {
		out[i] = a.Bank()
	}
	return out
}

// Detect identifies the issuer of a statement from its extracted page
// text. Exactly one adapter must claim the document; zero or multiple
// claimants fail with a DetectionError listing the candidates.
// Pure function of the input text.
func (r *Registry) Detect(pages []string) (Adapter, error) {
	text := strings.ToUpper(strings.Join(pages, "\n"))

	var claimed []Adapter
	for _, a := range r.adapters {
		if a.Detect(text) {
			claimed = append(claimed, a)
		}
	}

	if len(claimed) == 1 {
		return claimed[0], nil
	}

	derr := &DetectionError{}
	for _, a := range claimed {
		derr.Candidates = append(derr.Candidates, a.Bank())
	}
	return nil, derr
}
