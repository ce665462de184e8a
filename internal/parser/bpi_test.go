package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBPIExtractor_Extract(t *testing.T) {
	e := &BPIExtractor{}

	pages := []string{`BANK OF THE PHILIPPINE ISLANDS
Statement of Account
Account Name: JUAN DELA CRUZ
Account No.: 1234-5678-90
Statement Period: 01/01/2024 to 01/31/2024

Date  Description  Amount  Balance
01/15/2024  POS PURCHASE SM SUPERMARKET  (1,250.00)  43,812.55
01/18/2024  SALARY CREDIT ACME CORP  25,000.00  68,812.55
01/20/2024  ATM WITHDRAWAL AYALA AVE  5,000.00  63,812.55

Ending Balance  63,812.55`,
	}

	result, err := e.Extract(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AccountNumber != "****7890" {
		t.Errorf("account number: got %q, want %q", result.AccountNumber, "****7890")
	}
	if result.AccountHolder != "JUAN DELA CRUZ" {
		t.Errorf("account holder: got %q", result.AccountHolder)
	}
	wantStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !result.PeriodStart.Equal(wantStart) {
		t.Errorf("period start: got %v, want %v", result.PeriodStart, wantStart)
	}

	if len(result.Transactions) != 3 {
		t.Fatalf("transactions: got %d, want 3", len(result.Transactions))
	}

	// Parenthesised amount is a debit.
	txn := result.Transactions[0]
	if !txn.Amount.Equal(decimal.NewFromFloat(-1250.00)) {
		t.Errorf("txn[0].Amount: got %s, want -1250.00", txn.Amount)
	}
	// MM/DD resolution: 01/15 is January 15, not month 15.
	if txn.Date.Month() != time.January || txn.Date.Day() != 15 {
		t.Errorf("txn[0].Date: got %v", txn.Date)
	}

	// Unsigned credit confirmed by the running balance.
	txn = result.Transactions[1]
	if !txn.Amount.Equal(decimal.NewFromFloat(25000.00)) {
		t.Errorf("txn[1].Amount: got %s, want 25000.00", txn.Amount)
	}

	// Unsigned debit: the balance dropped by the amount.
	txn = result.Transactions[2]
	if !txn.Amount.Equal(decimal.NewFromFloat(-5000.00)) {
		t.Errorf("txn[2].Amount: got %s, want -5000.00", txn.Amount)
	}
}

func TestBPIExtractor_ContinuationLines(t *testing.T) {
	e := &BPIExtractor{}

	pages := []string{`Account No.: 1234567890
Date  Description  Amount  Balance
01/15/2024  FUND TRANSFER TO  (2,000.00)  10,000.00
ACCT ENDING 4321
01/16/2024  CHECK PAID 001234  1,500.00  8,500.00`,
	}

	result, err := e.Extract(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(result.Transactions))
	}
	if got := result.Transactions[0].Description; got != "FUND TRANSFER TO ACCT ENDING 4321" {
		t.Errorf("glued description: got %q", got)
	}
	// "CHECK PAID" keyword and falling balance agree: debit.
	if !result.Transactions[1].Amount.Equal(decimal.NewFromFloat(-1500.00)) {
		t.Errorf("txn[1].Amount: got %s, want -1500.00", result.Transactions[1].Amount)
	}
}

func TestBPIExtractor_NoBalanceColumn(t *testing.T) {
	e := &BPIExtractor{}

	pages := []string{`Account No.: 1234567890
Date  Description  Amount  Balance
01/15/2024  POS PURCHASE MERCURY DRUG  -350.00`,
	}

	result, err := e.Extract(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(result.Transactions))
	}
	if !result.Transactions[0].Amount.Equal(decimal.NewFromFloat(-350.00)) {
		t.Errorf("Amount: got %s, want -350.00", result.Transactions[0].Amount)
	}
}

func TestBPIExtractor_MissingAccountLowersQuality(t *testing.T) {
	e := &BPIExtractor{}

	full := []string{`Account No.: 1234567890
Statement Period: 01/01/2024 to 01/31/2024
Date  Description  Amount  Balance
01/15/2024  POS PURCHASE  (100.00)  900.00`,
	}
	bare := []string{`Date  Description  Amount  Balance
01/15/2024  POS PURCHASE  (100.00)  900.00`,
	}

	withAccount, err := e.Extract(full)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withoutAccount, err := e.Extract(bare)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withoutAccount.QualityScore >= withAccount.QualityScore {
		t.Errorf("missing account must lower quality: %v vs %v",
			withoutAccount.QualityScore, withAccount.QualityScore)
	}
}
