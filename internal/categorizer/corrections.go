package categorizer

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// CorrectionStore holds user-entered categorization overrides. Rules are
// matched case-insensitively as substrings; when several rules match the
// same merchant text, the most recently created one wins. Not safe for
// concurrent writers; the pipeline assumes a single caller.
type CorrectionStore struct {
	path  string
	rules []models.CorrectionRule
	now   func() time.Time
}

// NewCorrectionStore creates a store backed by a YAML file. An empty
// path keeps the store purely in memory.
func NewCorrectionStore(path string) *CorrectionStore {
	return &CorrectionStore{path: path, now: time.Now}
}

// Load reads rules from the backing file. A missing file is an empty
// store, not an error.
func (s *CorrectionStore) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var rules []models.CorrectionRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return &models.ConfigError{Field: "corrections file", Msg: err.Error()}
	}
	s.rules = rules
	return nil
}

// Save writes all rules back to the backing file.
func (s *CorrectionStore) Save() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(s.rules)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Add creates a rule, or refreshes an existing rule with the same
// pattern so it regains precedence.
func (s *CorrectionStore) Add(pattern, merchant, category string) models.CorrectionRule {
	for i := range s.rules {
		if strings.EqualFold(s.rules[i].Pattern, pattern) {
			s.rules[i].NormalizedMerchant = merchant
			s.rules[i].Category = category
			s.rules[i].CreatedAt = s.now()
			return s.rules[i]
		}
	}
	rule := models.CorrectionRule{
		Pattern:            pattern,
		NormalizedMerchant: merchant,
		Category:           category,
		CreatedAt:          s.now(),
	}
	s.rules = append(s.rules, rule)
	return rule
}

// Match returns the most recently created rule whose pattern occurs in
// the merchant text, or nil. Recency, not specificity, resolves
// overlapping patterns.
func (s *CorrectionStore) Match(merchantText string) *models.CorrectionRule {
	lower := strings.ToLower(merchantText)
	var best *models.CorrectionRule
	for i := range s.rules {
		r := &s.rules[i]
		if !strings.Contains(lower, strings.ToLower(r.Pattern)) {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = r
		}
	}
	return best
}

// Rules returns the current rule list.
func (s *CorrectionStore) Rules() []models.CorrectionRule {
	return s.rules
}
