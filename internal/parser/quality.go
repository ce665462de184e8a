package parser

import (
	"time"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// Confidence bands shared by every downstream consumer of a quality or
// categorization score.
const (
	HighConfidence   = 0.95
	MediumConfidence = 0.80
)

// Penalties applied to the base completeness score when statement header
// metadata is missing.
const (
	missingAccountPenalty = 0.05
	missingPeriodPenalty  = 0.02
)

// Score rates extraction completeness: the ratio of rows carrying a
// non-zero date, non-zero amount and non-empty description. An empty set
// scores 0.0.
func Score(transactions []models.RawTransaction) float64 {
	if len(transactions) == 0 {
		return 0.0
	}
	complete := 0
	for _, t := range transactions {
		if t.Complete() {
			complete++
		}
	}
	return float64(complete) / float64(len(transactions))
}

// FinishResult computes the final quality score for a parse result,
// applying header-metadata penalties to the base completeness score,
// floored at 0.0.
func FinishResult(r *models.ParseResult) {
	score := Score(r.Transactions)
	if r.AccountNumber == "" {
		score -= missingAccountPenalty
	}
	if r.PeriodStart.IsZero() || r.PeriodEnd.IsZero() {
		score -= missingPeriodPenalty
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	r.QualityScore = score
}

// Band names the confidence band for a score: "high" (auto-accept),
// "medium" (flag for review), "low" (manual review required).
func Band(score float64) string {
	switch {
	case score >= HighConfidence:
		return "high"
	case score >= MediumConfidence:
		return "medium"
	default:
		return "low"
	}
}

// rowConfidence scores one extracted row by field completeness so each
// RawTransaction carries its own confidence alongside the statement-level
// quality score.
func rowConfidence(date time.Time, description string, hasAmount, hasReference bool) float64 {
	c := 0.0
	if !date.IsZero() {
		c += 0.35
	}
	if description != "" {
		c += 0.30
	}
	if hasAmount {
		c += 0.30
	}
	if hasReference {
		c += 0.05
	}
	return c
}
