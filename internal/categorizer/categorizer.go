// Package categorizer assigns each transaction a canonical merchant name
// and spending category, learning from user corrections over time.
package categorizer

import (
	"fmt"
	"strings"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

const (
	// UncategorizedCategory is assigned when no mapping matches.
	UncategorizedCategory = "Uncategorized"
	// DefaultThreshold is the auto-accept confidence cutoff.
	DefaultThreshold = 0.8

	ruleConfidence     = 0.95
	tableConfidence    = 0.92
	fallbackConfidence = 0.30
)

// Context bundles the static mapping table, the mutable correction
// store and the confidence threshold. Callers hold their own Context;
// there is no package-level state, so tests and concurrent callers can
// each use isolated fixtures.
type Context struct {
	table       []MappingEntry
	corrections *CorrectionStore
	threshold   float64
}

// NewContext builds a categorization context. The threshold must lie in
// [0,1]; pass DefaultThreshold when no override is configured.
func NewContext(table []MappingEntry, corrections *CorrectionStore, threshold float64) (*Context, error) {
	if threshold < 0 || threshold > 1 {
		return nil, &models.ConfigError{
			Field: "confidence threshold",
			Msg:   fmt.Sprintf("%v is outside [0,1]", threshold),
		}
	}
	if corrections == nil {
		corrections = NewCorrectionStore("")
	}
	return &Context{table: table, corrections: corrections, threshold: threshold}, nil
}

// Normalize maps raw merchant text to one canonical display name.
// Precedence: correction rules (most recent wins), then the static
// table, then a cleaned title-cased version of the raw text. The
// fallback never creates a new mapping. Normalize is idempotent.
func (c *Context) Normalize(raw string) string {
	cleaned := collapseSpaces(raw)
	if cleaned == "" {
		return ""
	}

	// A name this context already produced is final. Without this check
	// a correction output could bounce through the table or the
	// title-case fallback and normalization would not be idempotent.
	if c.isCanonical(cleaned) {
		return cleaned
	}

	if rule := c.corrections.Match(cleaned); rule != nil {
		return rule.NormalizedMerchant
	}
	if entry := c.tableMatch(cleaned); entry != nil {
		return entry.Merchant
	}
	return titleCase(cleaned)
}

func (c *Context) isCanonical(name string) bool {
	for i := range c.table {
		if c.table[i].Merchant == name {
			return true
		}
	}
	for _, r := range c.corrections.Rules() {
		if r.NormalizedMerchant == name {
			return true
		}
	}
	return false
}

// Categorize produces the merchant and category verdict for one
// transaction. An unmatched merchant is not an error: it categorizes as
// Uncategorized with low confidence.
func (c *Context) Categorize(txn *models.Transaction) models.CategorizationResult {
	cleaned := collapseSpaces(txn.Description)

	if rule := c.corrections.Match(cleaned); rule != nil {
		return models.CategorizationResult{
			Category:           rule.Category,
			MerchantNormalized: rule.NormalizedMerchant,
			Confidence:         ruleConfidence,
		}
	}
	if entry := c.tableMatch(cleaned); entry != nil {
		return models.CategorizationResult{
			Category:           entry.Category,
			MerchantNormalized: entry.Merchant,
			Confidence:         tableConfidence,
		}
	}
	return models.CategorizationResult{
		Category:           UncategorizedCategory,
		MerchantNormalized: titleCase(cleaned),
		Confidence:         fallbackConfidence,
	}
}

// AutoAccept reports whether a result clears the configured threshold.
// Results below it are left for manual review.
func (c *Context) AutoAccept(result models.CategorizationResult) bool {
	return result.Confidence >= c.threshold
}

// Apply categorizes every uncategorized transaction in place, writing
// merchant and category onto those that clear the threshold. Returns
// how many were auto-accepted.
func (c *Context) Apply(transactions []*models.Transaction) int {
	accepted := 0
	for _, txn := range transactions {
		if txn.Category != "" {
			continue
		}
		result := c.Categorize(txn)
		if !c.AutoAccept(result) {
			continue
		}
		txn.Category = result.Category
		txn.MerchantNormalized = result.MerchantNormalized
		accepted++
	}
	return accepted
}

// AddCorrection records a manual correction and persists the store.
// Future transactions matching the pattern follow the correction
// without any change to the static table.
func (c *Context) AddCorrection(pattern, merchant, category string) error {
	if strings.TrimSpace(pattern) == "" {
		return &models.ValidationError{Field: "pattern", Msg: "must not be empty"}
	}
	if strings.TrimSpace(category) == "" {
		return &models.ValidationError{Field: "category", Msg: "must not be empty"}
	}
	c.corrections.Add(pattern, merchant, category)
	return c.corrections.Save()
}

func (c *Context) tableMatch(text string) *MappingEntry {
	for i := range c.table {
		if c.table[i].re.MatchString(text) {
			return &c.table[i]
		}
	}
	return nil
}

// collapseSpaces trims and collapses runs of whitespace. Applied before
// any pattern matching so the cleaned fallback matches the same rules
// as the raw text did.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// titleCase upper-cases the first letter of each word and lower-cases
// the rest. Deliberately simple; canonical names with interior capitals
// come from the mapping table, not from this fallback.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		for j, r := range runes {
			if r >= 'a' && r <= 'z' {
				if j == 0 || !isLetter(runes[j-1]) {
					runes[j] = r - ('a' - 'A')
				}
				break
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
