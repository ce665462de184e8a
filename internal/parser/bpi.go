package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// BPIExtractor handles Bank of the Philippine Islands statement PDFs.
//
// BPI statements have this layout:
//
//	Date | Description | Amount | Balance
//
// Date format: MM/DD/YYYY (month-first, the BPI locale default; a first
// group above 12 is still resolved as the day).
// Debits carry an explicit minus or accounting parentheses:
// "01/15/2024  POS PURCHASE SM SUPERMARKET  (1,250.00)  43,812.55"
type BPIExtractor struct{}

func (e *BPIExtractor) IssuerName() string { return "BPI" }

func (e *BPIExtractor) IssuerType() models.IssuerType { return models.IssuerBPI }

var bpiRowPattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4})\s+(.+?)\s+(\(?-?[\d,]+\.\d{2}\)?)\s+(\(?-?[\d,]+\.\d{2}\)?)\s*$`,
)

// Rows without a running balance column (carried-over pages).
var bpiRowSimple = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4})\s+(.+?)\s+(\(?-?[\d,]+\.\d{2}\)?)\s*$`,
)

func (e *BPIExtractor) Extract(pages []string) (*models.ParseResult, error) {
	result := &models.ParseResult{IssuerType: models.IssuerBPI}

	allText := strings.Join(pages, "\n")
	result.AccountNumber = maskAccountNumber(findAccountNumber(allText))
	result.AccountHolder = extractNameNearLabel(allText, []string{"Account Name", "Account Holder", "Statement of Account for"})
	result.PeriodStart, result.PeriodEnd = extractPeriod(allText, false)

	var prevBalance decimal.Decimal
	for pageNum, page := range pages {
		inSection := false
		for lineNum, rawLine := range strings.Split(page, "\n") {
			line := cleanLine(rawLine)
			if line == "" {
				continue
			}
			if containsTransactionHeader(line) {
				inSection = true
				continue
			}
			if isSummaryLine(line) {
				continue
			}

			m := bpiRowPattern.FindStringSubmatch(line)
			simple := false
			if m == nil {
				m = bpiRowSimple.FindStringSubmatch(line)
				simple = m != nil
			}
			if m == nil {
				if inSection {
					if n := len(result.Transactions); n > 0 && looksLikeContinuation(line) {
						result.Transactions[n-1].Description += " " + line
					}
				}
				continue
			}
			inSection = true

			txn, balance, err := e.parseRow(m, simple, prevBalance)
			if err != nil {
				result.ParsingErrors = append(result.ParsingErrors,
					fmt.Sprintf("page %d line %d: %v", pageNum+1, lineNum+1, err))
				continue
			}
			if !balance.IsZero() {
				prevBalance = balance
			}
			result.Transactions = append(result.Transactions, txn)
		}
	}

	FinishResult(result)
	return result, nil
}

func (e *BPIExtractor) parseRow(m []string, simple bool, prevBalance decimal.Decimal) (models.RawTransaction, decimal.Decimal, error) {
	date, err := parseNumericDate(m[1], false)
	if err != nil {
		return models.RawTransaction{}, decimal.Zero, err
	}
	description := strings.TrimSpace(m[2])

	amount, err := parseAmount(m[3])
	if err != nil {
		return models.RawTransaction{}, decimal.Zero, err
	}

	var balance decimal.Decimal
	if !simple {
		balance, err = parseAmount(m[4])
		if err != nil {
			return models.RawTransaction{}, decimal.Zero, err
		}
	}

	// An unsigned amount means the PDF dropped the parentheses; decide
	// the sign by balance progression, then keywords.
	if amount.IsPositive() {
		if classifyDebitByBalance(amount, balance, prevBalance, description) {
			amount = amount.Neg()
		}
	}

	txn := models.RawTransaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Confidence:  rowConfidence(date, description, !amount.IsZero(), false),
	}
	return txn, balance, nil
}
