package importer

import (
	"fmt"
	"strings"

	"github.com/fintrack-ph/statement-reconciler/internal/parser"
)

// Report renders a human-readable summary of a batch import, grouping
// files by confidence band, then listing duplicates and failures.
func (r *BatchResult) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Import summary: %d file(s), %d successful, %d failed, %d duplicate(s)\n",
		r.Total, r.Successful, r.Failed, r.Duplicates)
	if r.Successful > 0 {
		fmt.Fprintf(&b, "Average quality score: %.2f\n", r.AverageQuality())
	}

	bands := map[string][]ImportedFile{}
	for _, f := range r.Results {
		band := parser.Band(f.Result.QualityScore)
		bands[band] = append(bands[band], f)
	}

	writeBand := func(band, title string) {
		files := bands[band]
		if len(files) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, f := range files {
			fmt.Fprintf(&b, "  %s  (%s, %d txns, score %.2f)\n",
				f.Path, f.Result.IssuerType, len(f.Result.Transactions), f.Result.QualityScore)
			for _, rowErr := range f.Result.ParsingErrors {
				fmt.Fprintf(&b, "    row error: %s\n", rowErr)
			}
		}
	}

	writeBand("high", "High confidence")
	writeBand("medium", "Medium confidence (flag for review)")
	writeBand("low", "Low confidence (manual review required)")

	if len(r.Skipped) > 0 {
		b.WriteString("\nSkipped duplicates:\n")
		for _, path := range r.Skipped {
			fmt.Fprintf(&b, "  %s\n", path)
		}
	}

	if len(r.Errors) > 0 {
		b.WriteString("\nFailures:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  %s: %s\n", e.Path, e.Message)
		}
	}

	return b.String()
}
