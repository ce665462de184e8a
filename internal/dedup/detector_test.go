package dedup

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/logger"
	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

func txn(account string, date time.Time, description string, amount float64, reference string) *models.Transaction {
	return &models.Transaction{
		ID:              uuid.New(),
		AccountKey:      account,
		Date:            date,
		Description:     description,
		Amount:          decimal.NewFromFloat(amount),
		ReferenceNumber: reference,
		Resolution:      models.ResolutionActive,
	}
}

var day = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func TestIsDuplicateExactByReference(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	a := txn("****4567", day, "Payment to JOLLIBEE", -1234.56, "1002345678901")
	b := txn("****4567", day, "Payment to JOLLIBEE MANILA", -1234.56, "1002345678901")

	m := d.IsDuplicate(a, b)
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.MatchType != models.MatchExact {
		t.Errorf("match type: got %s, want exact", m.MatchType)
	}
	if m.Confidence != 1.0 {
		t.Errorf("confidence: got %v, want 1.0", m.Confidence)
	}
}

func TestIsDuplicateExactByContentHash(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	// Same date, amount and description modulo whitespace and case; no
	// reference numbers at all.
	a := txn("****4567", day, "POS  purchase SM Supermarket", -1250.00, "")
	b := txn("****4567", day, "POS PURCHASE SM SUPERMARKET", -1250.00, "")

	m := d.IsDuplicate(a, b)
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.MatchType != models.MatchExact {
		t.Errorf("match type: got %s, want exact", m.MatchType)
	}
}

func TestIsDuplicateDifferentAccountsGated(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	// Identical-looking rows in different accounts are legitimate:
	// two people paying the same bill the same day.
	a := txn("****4567", day, "MERALCO BILL PAYMENT", -2145.30, "")
	b := txn("****7890", day, "MERALCO BILL PAYMENT", -2145.30, "")

	if m := d.IsDuplicate(a, b); m != nil {
		t.Errorf("cross-account pair must be gated by default, got %+v", m)
	}
}

func TestIsDuplicateCrossSourceUnderOptOut(t *testing.T) {
	opts := DefaultOptions()
	opts.CrossAccount = true
	d := New(opts, logger.Nop())

	a := txn("****4567", day, "MERALCO BILL PAYMENT", -2145.30, "")
	b := txn("****7890", day, "MERALCO BILL PAYMENT", -2145.30, "")

	m := d.IsDuplicate(a, b)
	if m == nil {
		t.Fatal("expected a match with cross-account comparison enabled")
	}
	// Never exact: a cross-account hit is informational, not removable.
	if m.MatchType != models.MatchCrossSource {
		t.Errorf("match type: got %s, want cross_source", m.MatchType)
	}
}

func TestIsDuplicateInternalTransfer(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	// BPI money out, GCash money in, same day, same magnitude. The
	// transfer check runs before the account gate would discard the pair.
	out := txn("****7890", day, "FUND TRANSFER TO GCASH", -5000.00, "")
	in := txn("****4567", day, "Cash In via BPI", 5000.00, "")

	m := d.IsDuplicate(out, in)
	if m == nil {
		t.Fatal("expected an internal-transfer match")
	}
	if m.MatchType != models.MatchInternalTransfer {
		t.Errorf("match type: got %s, want internal_transfer", m.MatchType)
	}
	if m.Confidence != 0.90 {
		t.Errorf("confidence: got %v, want 0.90", m.Confidence)
	}
}

func TestIsDuplicateInternalTransferRequiresSameDay(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	out := txn("****7890", day, "FUND TRANSFER TO GCASH", -5000.00, "")
	in := txn("****4567", day.AddDate(0, 0, 2), "Cash In via BPI", 5000.00, "")

	if m := d.IsDuplicate(out, in); m != nil {
		t.Errorf("two-day gap is not a transfer pair, got %+v", m)
	}
}

func TestIsDuplicateNearMatch(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	// One day apart, amounts within 1%, similar descriptions: a
	// pending-vs-posted pair.
	a := txn("****4567", day, "GRAB RIDE MAKATI", -350.00, "")
	b := txn("****4567", day.AddDate(0, 0, 1), "GRAB RIDE MAKATI CITY", -351.50, "")

	m := d.IsDuplicate(a, b)
	if m == nil {
		t.Fatal("expected a near match")
	}
	if m.MatchType != models.MatchNear {
		t.Errorf("match type: got %s, want near", m.MatchType)
	}
	if m.Confidence != 0.70 {
		t.Errorf("confidence: got %v, want 0.70", m.Confidence)
	}
}

func TestIsDuplicateNearMatchRejectsDissimilarDescriptions(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	a := txn("****4567", day, "GRAB RIDE MAKATI", -350.00, "")
	b := txn("****4567", day, "JOLLIBEE ORTIGAS BRANCH", -350.00, "")

	if m := d.IsDuplicate(a, b); m != nil {
		t.Errorf("dissimilar descriptions must not near-match, got %+v", m)
	}
}

func TestIsDuplicateNearMatchRespectsTimeWindow(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	a := txn("****4567", day, "GRAB RIDE MAKATI", -350.00, "")
	b := txn("****4567", day.AddDate(0, 0, 5), "GRAB RIDE MAKATI", -350.50, "")

	if m := d.IsDuplicate(a, b); m != nil {
		t.Errorf("pair outside the time window must not match, got %+v", m)
	}
}

func TestFindDuplicatesOrderIndependent(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	a := txn("****4567", day, "Payment to JOLLIBEE", -1234.56, "1002345678901")
	b := txn("****4567", day, "Payment to JOLLIBEE", -1234.56, "1002345678901")
	c := txn("****4567", day, "Buy Load Smart", -100.00, "1002345678902")

	forward := d.FindDuplicates([]*models.Transaction{a, b, c})
	reversed := d.FindDuplicates([]*models.Transaction{c, b, a})

	if len(forward) != 1 || len(reversed) != 1 {
		t.Fatalf("matches: forward=%d reversed=%d, want 1 each", len(forward), len(reversed))
	}
	if forward[0].MatchType != reversed[0].MatchType {
		t.Errorf("match type differs by input order: %s vs %s", forward[0].MatchType, reversed[0].MatchType)
	}
}

func TestFindDuplicatesIdempotent(t *testing.T) {
	d := New(DefaultOptions(), logger.Nop())

	set := []*models.Transaction{
		txn("****4567", day, "Payment to JOLLIBEE", -1234.56, "1002345678901"),
		txn("****4567", day, "Payment to JOLLIBEE", -1234.56, "1002345678901"),
	}

	first := d.FindDuplicates(set)
	second := d.FindDuplicates(set)
	if len(first) != len(second) {
		t.Errorf("repeat scan over unchanged data changed the match set: %d vs %d", len(first), len(second))
	}
}

func TestContentHash(t *testing.T) {
	a := txn("", day, "pos purchase   SM Supermarket", -1250.00, "")
	b := txn("", day, "POS PURCHASE SM SUPERMARKET", -1250.00, "")
	if ContentHash(a) != ContentHash(b) {
		t.Error("hash must normalize case and whitespace")
	}

	c := txn("", day, "POS PURCHASE SM SUPERMARKET", -1250.01, "")
	if ContentHash(a) == ContentHash(c) {
		t.Error("a one-centavo difference must change the hash")
	}
}

func TestDescriptionSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"GRAB RIDE MAKATI", "GRAB RIDE MAKATI", 1.0},
		{"GRAB RIDE", "JOLLIBEE ORTIGAS", 0.0},
		{"", "GRAB RIDE", 0.0},
	}
	for _, tt := range tests {
		if got := descriptionSimilarity(tt.a, tt.b); got != tt.want {
			t.Errorf("similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
