package categorizer

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// MappingEntry is one row of the static merchant mapping table: a
// case-insensitive pattern mapping raw merchant text to a canonical
// display name and default category.
type MappingEntry struct {
	Pattern  string `yaml:"pattern"`
	Merchant string `yaml:"merchant"`
	Category string `yaml:"category"`

	re *regexp.Regexp
}

//go:embed merchants.yaml
var defaultMerchantsYAML []byte

// LoadTable parses a YAML mapping table and compiles its patterns.
// Patterns are regular expressions matched case-insensitively; a plain
// word is the common case and behaves as a substring match.
func LoadTable(data []byte) ([]MappingEntry, error) {
	var entries []MappingEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &models.ConfigError{Field: "merchant table", Msg: err.Error()}
	}
	for i := range entries {
		e := &entries[i]
		if e.Pattern == "" || e.Merchant == "" || e.Category == "" {
			return nil, &models.ConfigError{
				Field: "merchant table",
				Msg:   fmt.Sprintf("entry %d is missing pattern, merchant or category", i),
			}
		}
		re, err := regexp.Compile(`(?i)` + e.Pattern)
		if err != nil {
			return nil, &models.ConfigError{
				Field: "merchant table",
				Msg:   fmt.Sprintf("entry %d pattern %q: %v", i, e.Pattern, err),
			}
		}
		e.re = re
	}
	return entries, nil
}

// DefaultTable loads the bundled Philippine merchant mapping table.
func DefaultTable() ([]MappingEntry, error) {
	return LoadTable(defaultMerchantsYAML)
}
