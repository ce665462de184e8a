package dedup

import (
	"github.com/rs/zerolog"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// Resolver applies resolution states to matched transactions. It soft
// flags only: a marked duplicate stays in the data set, preserving the
// audit history.
type Resolver struct {
	log zerolog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{log: log}
}

// MarkDuplicate flags the second transaction of a confirmed duplicate
// match, keeping the first active. Internal-transfer matches are never
// valid duplicate resolutions.
func (r *Resolver) MarkDuplicate(match *models.DuplicateMatch) error {
	if match.MatchType == models.MatchInternalTransfer {
		return &models.DuplicateError{Msg: "internal transfers are not duplicates and cannot be marked as one"}
	}
	if match.TransactionB.Resolution == models.ResolutionMarkedDuplicate {
		return &models.DuplicateError{Msg: "transaction is already marked duplicate"}
	}
	match.TransactionB.Resolution = models.ResolutionMarkedDuplicate
	r.log.Info().
		Str("kept", match.TransactionA.ID.String()).
		Str("marked", match.TransactionB.ID.String()).
		Str("match_type", string(match.MatchType)).
		Msg("duplicate marked")
	return nil
}

// ConfirmTransfer records both legs of an internal-transfer match.
func (r *Resolver) ConfirmTransfer(match *models.DuplicateMatch) error {
	if match.MatchType != models.MatchInternalTransfer {
		return &models.DuplicateError{Msg: "match is not an internal transfer"}
	}
	match.TransactionA.Resolution = models.ResolutionConfirmedTransfer
	match.TransactionB.Resolution = models.ResolutionConfirmedTransfer
	return nil
}

// AutoResolve marks every match at or above minConfidence, skipping
// internal transfers, near matches and cross-source matches (all three
// need a human decision). Returns the number of transactions marked.
func (r *Resolver) AutoResolve(matches []models.DuplicateMatch, minConfidence float64) int {
	marked := 0
	for i := range matches {
		m := &matches[i]
		switch m.MatchType {
		case models.MatchInternalTransfer, models.MatchNear, models.MatchCrossSource:
			continue
		}
		if m.Confidence < minConfidence {
			continue
		}
		if m.TransactionB.Resolution != models.ResolutionActive {
			continue
		}
		if err := r.MarkDuplicate(m); err == nil {
			marked++
		}
	}
	return marked
}
