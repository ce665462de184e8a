package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

func completeTxn() models.RawTransaction {
	return models.RawTransaction{
		Date:        time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Description: "PAYMENT TO JOLLIBEE",
		Amount:      decimal.NewFromFloat(-250.00),
	}
}

func TestScore(t *testing.T) {
	if got := Score(nil); got != 0.0 {
		t.Errorf("empty set: got %v, want 0.0", got)
	}

	complete := completeTxn()
	incomplete := completeTxn()
	incomplete.Description = ""

	got := Score([]models.RawTransaction{complete, complete, incomplete, incomplete})
	if got != 0.5 {
		t.Errorf("got %v, want 0.5", got)
	}

	got = Score([]models.RawTransaction{complete})
	if got != 1.0 {
		t.Errorf("all complete: got %v, want 1.0", got)
	}
}

func TestFinishResultPenalties(t *testing.T) {
	tests := []struct {
		name      string
		account   string
		hasPeriod bool
		want      float64
	}{
		{"full metadata", "****7890", true, 1.0},
		{"missing account", "", true, 0.95},
		{"missing period", "****7890", false, 0.98},
		{"missing both", "", false, 0.93},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.ParseResult{
				Transactions:  []models.RawTransaction{completeTxn()},
				AccountNumber: tt.account,
			}
			if tt.hasPeriod {
				r.PeriodStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
				r.PeriodEnd = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
			}
			FinishResult(r)
			if diff := r.QualityScore - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("got %v, want %v", r.QualityScore, tt.want)
			}
		})
	}
}

func TestFinishResultFloorsAtZero(t *testing.T) {
	r := &models.ParseResult{}
	FinishResult(r)
	if r.QualityScore != 0.0 {
		t.Errorf("got %v, want 0.0", r.QualityScore)
	}
	if r.QualityScore < 0.0 || r.QualityScore > 1.0 {
		t.Errorf("score %v outside [0,1]", r.QualityScore)
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1.0, "high"},
		{0.95, "high"},
		{0.94, "medium"},
		{0.80, "medium"},
		{0.79, "low"},
		{0.0, "low"},
	}
	for _, tt := range tests {
		if got := Band(tt.score); got != tt.want {
			t.Errorf("Band(%v): got %q, want %q", tt.score, got, tt.want)
		}
	}
}
