// Package categorize assigns a semantic category and a merchant
// display name to normalized transactions. Evaluation is an ordered
// rule list: keyword rules, then channel fallback, then the default
// bucket. It is deterministic and total — every transaction gets
// exactly one category.
package categorize

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

// DefaultCategory is the final bucket for transactions no rule claims.
// It is a meaningful label by explicit product constraint: the literal
// placeholders "Unknown" and "others" must never be assigned.
const DefaultCategory = "general"

// Rule maps narration keywords to a category. Keywords are matched as
// case-insensitive substrings, in slice order.
type Rule struct {
	Category string
	Keywords []string
}

// Categorizer evaluates an ordered rule table. Construct with New to
// inject a custom table, or Default for the built-in one.
type Categorizer struct {
	rules           []Rule
	channelFallback map[models.Channel]string
	defaultCategory string
}

// New builds a categorizer from an ordered rule list. The default
// category and every rule category must be a real label, not a
// placeholder sentinel.
func New(rules []Rule, defaultCategory string) (*Categorizer, error) {
	if models.ForbiddenCategory(defaultCategory) {
		return nil, fmt.Errorf("default category %q is a forbidden placeholder", defaultCategory)
	}
	for _, r := range rules {
		if models.ForbiddenCategory(r.Category) {
			return nil, fmt.Errorf("rule category %q is a forbidden placeholder", r.Category)
		}
	}
	return &Categorizer{
		rules: rules,
		channelFallback: map[models.Channel]string{
			models.ChannelATM:      "cash",
			models.ChannelCard:     "shopping",
			models.ChannelUPI:      "transfer",
			models.ChannelTransfer: "transfer",
		},
		defaultCategory: defaultCategory,
	}, nil
}

// Default returns a categorizer loaded with the curated keyword table.
func Default() *Categorizer {
	c, err := New(defaultRules, DefaultCategory)
	if err != nil {
		panic(err) // built-in table is static; cannot fail
	}
	return c
}

// Categorize returns the category for one transaction. Pure function.
func (c *Categorizer) Categorize(txn models.Transaction) string {
	text := strings.ToUpper(txn.Description + " " + txn.Reference + " " + txn.Merchant)

	// Cash withdrawals take absolute priority over keyword rules: an
	// ATM narration mentioning a mall name is still a withdrawal.
	if txn.Direction == models.Debit && txn.Channel == models.ChannelATM &&
		containsAny(text, "CASH", "WDL", "WITHDRAWAL", "ATM", "ATW") {
		return "cash"
	}

	for _, rule := range c.rules {
		if containsAny(text, rule.Keywords...) {
			return rule.Category
		}
	}

	if cat, ok := c.channelFallback[txn.Channel]; ok {
		return cat
	}
	return c.defaultCategory
}

// Apply fills Merchant and Category on every transaction in place.
func (c *Categorizer) Apply(txns []models.Transaction) {
	for i := range txns {
		txn := &txns[i]
		txn.Merchant = Merchant(txn.Description + " " + txn.Reference)
		txn.Category = c.Categorize(*txn)
		if txn.Category == "cash" {
			txn.Merchant = "ATM Withdrawal"
		}
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
