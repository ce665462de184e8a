// Package dedup finds duplicate and internal-transfer transaction pairs
// across imported statements. It never mutates or deletes transactions;
// resolution is a separate, explicit step.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// Options tunes the matching tiers.
type Options struct {
	// CrossAccount disables the account-scope gate, comparing
	// transactions across accounts. Increases the chance of flagging
	// legitimate transfers; the detector logs a warning when set.
	CrossAccount bool
	// TimeWindow is the near-match date distance (default 24h).
	TimeWindow time.Duration
	// AmountTolerancePct is the near-match amount tolerance as a
	// fraction, e.g. 0.01 for 1% (default).
	AmountTolerancePct decimal.Decimal
}

// DefaultOptions returns the standard detector tuning.
func DefaultOptions() Options {
	return Options{
		TimeWindow:         24 * time.Hour,
		AmountTolerancePct: decimal.NewFromFloat(0.01),
	}
}

// centavoTolerance is one minor currency unit, the slack allowed when
// matching internal-transfer legs.
var centavoTolerance = decimal.NewFromFloat(0.01)

// Detector compares transaction pairs. Stateless apart from options and
// logging; FindDuplicates over an unchanged set is idempotent.
type Detector struct {
	opts Options
	log  zerolog.Logger
}

// New creates a Detector. Zero-valued option fields fall back to defaults.
func New(opts Options, log zerolog.Logger) *Detector {
	if opts.TimeWindow == 0 {
		opts.TimeWindow = DefaultOptions().TimeWindow
	}
	if opts.AmountTolerancePct.IsZero() {
		opts.AmountTolerancePct = DefaultOptions().AmountTolerancePct
	}
	if opts.CrossAccount {
		log.Warn().Msg("cross-account comparison enabled: legitimate transfers are more likely to be flagged")
	}
	return &Detector{opts: opts, log: log}
}

// FindDuplicates compares every transaction pair and returns all matches.
// Input order does not affect the match set.
func (d *Detector) FindDuplicates(transactions []*models.Transaction) []models.DuplicateMatch {
	var matches []models.DuplicateMatch
	for i := 0; i < len(transactions); i++ {
		for j := i + 1; j < len(transactions); j++ {
			if m := d.IsDuplicate(transactions[i], transactions[j]); m != nil {
				matches = append(matches, *m)
			}
		}
	}
	d.log.Info().Int("transactions", len(transactions)).Int("matches", len(matches)).Msg("duplicate scan finished")
	return matches
}

// IsDuplicate checks one pair. Tiers are evaluated in order and the
// first hit wins; nil means no match.
func (d *Detector) IsDuplicate(a, b *models.Transaction) *models.DuplicateMatch {
	sameAccount := a.AccountKey != "" && b.AccountKey != "" && a.AccountKey == b.AccountKey
	differentAccounts := a.AccountKey != "" && b.AccountKey != "" && a.AccountKey != b.AccountKey

	// Tier 2 before the gate can discard the pair: transfer legs by
	// definition live in different accounts.
	if differentAccounts && d.isInternalTransfer(a, b) {
		return &models.DuplicateMatch{
			TransactionA: a,
			TransactionB: b,
			Confidence:   0.90,
			MatchType:    models.MatchInternalTransfer,
			Reasons:      []string{"opposite-sign equal-magnitude amounts in different accounts on the same day"},
			AccountA:     a.AccountKey,
			AccountB:     b.AccountKey,
		}
	}

	// Tier 1: account scope gate, the primary false-positive guard. Two
	// accounts can legitimately contain visually identical transactions.
	if differentAccounts && !d.opts.CrossAccount {
		return nil
	}

	// Tier 3: exact match.
	if reasons := d.exactReasons(a, b); len(reasons) > 0 {
		matchType := models.MatchExact
		if differentAccounts {
			// Cross-account exacts only exist under the opt-out and are
			// reported as cross-source, never as removable exacts.
			matchType = models.MatchCrossSource
		}
		return &models.DuplicateMatch{
			TransactionA: a,
			TransactionB: b,
			Confidence:   1.0,
			MatchType:    matchType,
			Reasons:      reasons,
			AccountA:     a.AccountKey,
			AccountB:     b.AccountKey,
		}
	}

	// Tier 4: near match, same account only, lower confidence.
	if sameAccount || (a.AccountKey == "" && b.AccountKey == "") {
		if reasons := d.nearReasons(a, b); len(reasons) > 0 {
			return &models.DuplicateMatch{
				TransactionA: a,
				TransactionB: b,
				Confidence:   0.70,
				MatchType:    models.MatchNear,
				Reasons:      reasons,
				AccountA:     a.AccountKey,
				AccountB:     b.AccountKey,
			}
		}
	}

	return nil
}

func (d *Detector) isInternalTransfer(a, b *models.Transaction) bool {
	if a.Amount.Sign() == 0 || a.Amount.Sign() == b.Amount.Sign() {
		return false
	}
	if a.Amount.Abs().Sub(b.Amount.Abs()).Abs().GreaterThan(centavoTolerance) {
		return false
	}
	return sameDay(a.Date, b.Date)
}

func (d *Detector) exactReasons(a, b *models.Transaction) []string {
	var reasons []string
	if a.ReferenceNumber != "" && b.ReferenceNumber != "" && a.ReferenceNumber == b.ReferenceNumber {
		reasons = append(reasons, fmt.Sprintf("identical reference number %s", a.ReferenceNumber))
	}
	if ContentHash(a) == ContentHash(b) {
		reasons = append(reasons, "identical date, amount and normalized description")
	}
	return reasons
}

func (d *Detector) nearReasons(a, b *models.Transaction) []string {
	dist := a.Date.Sub(b.Date)
	if dist < 0 {
		dist = -dist
	}
	if dist > d.opts.TimeWindow {
		return nil
	}

	diff := a.Amount.Sub(b.Amount).Abs()
	tolerance := a.Amount.Abs().Mul(d.opts.AmountTolerancePct)
	if tolerance.LessThan(centavoTolerance) {
		tolerance = centavoTolerance
	}
	if diff.GreaterThan(tolerance) {
		return nil
	}

	sim := descriptionSimilarity(a.Description, b.Description)
	if sim < 0.5 {
		return nil
	}

	return []string{fmt.Sprintf(
		"amount within tolerance, dates %s apart, description similarity %.2f", dist, sim)}
}

// ContentHash fingerprints a transaction by date, exact amount and
// normalized description. Two rows with equal hashes describe the same
// movement as far as the statement shows.
func ContentHash(t *models.Transaction) string {
	normalized := strings.ToUpper(strings.Join(strings.Fields(t.Description), " "))
	payload := fmt.Sprintf("%s|%s|%s", t.Date.Format("2006-01-02"), t.Amount.String(), normalized)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// descriptionSimilarity is token-set overlap (Jaccard) over normalized
// descriptions, 0.0 to 1.0.
func descriptionSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}
	intersection := 0
	for tok := range tokensA {
		if tokensB[tok] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToUpper(s)) {
		set[tok] = true
	}
	return set
}
