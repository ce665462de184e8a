package parser

import (
	"testing"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

func TestDetectIssuer(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected models.IssuerType
		wantErr  bool
	}{
		{
			name:     "detects GCash",
			pages:    []string{"GCash Transaction History\nG-Xchange, Inc.\n2024-01-15"},
			expected: models.IssuerGCash,
		},
		{
			name:     "detects Maya",
			pages:    []string{"Maya Philippines, Inc.\nAccount Statement\n15 Jan 2024"},
			expected: models.IssuerMaya,
		},
		{
			name:     "detects BPI",
			pages:    []string{"Bank of the Philippine Islands\nStatement of Account\n01/15/2024"},
			expected: models.IssuerBPI,
		},
		{
			name:     "detects BDO",
			pages:    []string{"BDO Unibank, Inc.\nStatement\n01/15/2024"},
			expected: models.IssuerBDO,
		},
		{
			name:    "unknown issuer returns error",
			pages:   []string{"Some Unknown Bank\nStatement"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectIssuer(tt.pages)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		issuerType models.IssuerType
		wantName   string
		wantErr    bool
	}{
		{models.IssuerGCash, "GCash", false},
		{models.IssuerMaya, "Maya", false},
		{models.IssuerBPI, "BPI", false},
		{models.IssuerBDO, "BDO", false},
		{"unknown", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.issuerType), func(t *testing.T) {
			e, err := New(tt.issuerType)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.IssuerName() != tt.wantName {
				t.Errorf("got %q, want %q", e.IssuerName(), tt.wantName)
			}
		})
	}
}

func TestExtractAutoFallsBackThroughStrategies(t *testing.T) {
	// No issuer keyword, but the rows are valid Maya layout: detection
	// fails and the fallback pass must still find the right strategy.
	pages := []string{`Account Statement
Account Name: JUAN DELA CRUZ
Mobile Number: 0917 123 4567

15 Jan 2024  Bills Payment - Electric Co  MX938120  -2,145.30
16 Jan 2024  Received Money  MX938121  +5,000.00`}

	result, err := ExtractAuto(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IssuerType != models.IssuerMaya {
		t.Errorf("issuer: got %q, want %q", result.IssuerType, models.IssuerMaya)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(result.Transactions))
	}
}
