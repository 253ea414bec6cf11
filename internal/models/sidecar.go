package models

import "fmt"

// BankSpecific holds fields unique to one issuer's statement layout
// that have no home in the canonical schema. It is a tagged variant:
// at most one member may be populated, and its key must equal the
// owning statement's BankType. An open map would let a statement
// accumulate sidecar data for a bank it doesn't belong to.
type BankSpecific struct {
	SBI   *SBISidecar   `json:"SBI,omitempty"`
	HDFC  *HDFCSidecar  `json:"HDFC,omitempty"`
	BOI   *BOISidecar   `json:"BOI,omitempty"`
	CBI   *CBISidecar   `json:"CBI,omitempty"`
	Union *UnionSidecar `json:"UNION,omitempty"`
	Axis  *AxisSidecar  `json:"AXIS,omitempty"`
}

// SBISidecar carries SBI-only statement fields.
type SBISidecar struct {
	CIFNumber string `json:"cifNumber,omitempty"`
	Branch    string `json:"branch,omitempty"`
	IFSC      string `json:"ifsc,omitempty"`
}

// HDFCSidecar carries HDFC-only statement fields.
type HDFCSidecar struct {
	CustomerID string `json:"customerId,omitempty"`
	Branch     string `json:"branch,omitempty"`
	IFSC       string `json:"ifsc,omitempty"`
}

// BOISidecar carries Bank of India-only statement fields.
type BOISidecar struct {
	Branch string `json:"branch,omitempty"`
	IFSC   string `json:"ifsc,omitempty"`
}

// CBISidecar carries Central Bank of India-only statement fields.
type CBISidecar struct {
	Branch string `json:"branch,omitempty"`
	IFSC   string `json:"ifsc,omitempty"`
}

// UnionSidecar carries Union Bank-only statement fields.
type UnionSidecar struct {
	Branch string `json:"branch,omitempty"`
	IFSC   string `json:"ifsc,omitempty"`
	MICR   string `json:"micr,omitempty"`
}

// AxisSidecar carries Axis Bank-only statement fields.
type AxisSidecar struct {
	CustomerID string `json:"customerId,omitempty"`
	Branch     string `json:"branch,omitempty"`
	IFSC       string `json:"ifsc,omitempty"`
}

// Key returns the bank the populated member belongs to. ok is false
// when the sidecar is empty.
func (b BankSpecific) Key() (BankType, bool) {
	switch {
	case b.SBI != nil:
		return BankSBI, true
	case b.HDFC != nil:
		return BankHDFC, true
	case b.BOI != nil:
		return BankBOI, true
	case b.CBI != nil:
		return BankCBI, true
	case b.Union != nil:
		return BankUnion, true
	case b.Axis != nil:
		return BankAxis, true
	}
	return "", false
}

func (b BankSpecific) populated() int {
	n := 0
	for _, set := range []bool{
		b.SBI != nil, b.HDFC != nil, b.BOI != nil,
		b.CBI != nil, b.Union != nil, b.Axis != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Validate checks that the sidecar belongs to the given bank. An empty
// sidecar is always valid.
func (b BankSpecific) Validate(bank BankType) error {
	if n := b.populated(); n > 1 {
		return fmt.Errorf("bankSpecific holds %d banks, want at most 1", n)
	}
	key, ok := b.Key()
	if !ok {
		return nil
	}
	if key != bank {
		return fmt.Errorf("bankSpecific key %s does not match statement bankType %s", key, bank)
	}
	return nil
}
