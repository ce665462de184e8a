package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// BDOExtractor handles BDO Unibank statement PDFs.
//
// BDO statements have this layout:
//
//	Date | Description | Debit | Credit | Balance
//
// Date format: MM/DD/YYYY (month-first locale default).
// Example line: "01/15/2024 CHECK PAID 0001234 12,500.00 31,312.55"
//
// The debit and credit columns are both optional in any given row, and
// layout-preserved text loses the column positions, so a row with one
// money value plus balance is ambiguous. The running balance decides.
type BDOExtractor struct{}

func (e *BDOExtractor) IssuerName() string { return "BDO" }

func (e *BDOExtractor) IssuerType() models.IssuerType { return models.IssuerBDO }

var bdoRowPattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4})\s+(.+?)\s+([\d,]+\.\d{2})?\s*([\d,]+\.\d{2})?\s+([\d,]+\.\d{2})\s*$`,
)

func (e *BDOExtractor) Extract(pages []string) (*models.ParseResult, error) {
	result := &models.ParseResult{IssuerType: models.IssuerBDO}

	allText := strings.Join(pages, "\n")
	result.AccountNumber = maskAccountNumber(findAccountNumber(allText))
	result.AccountHolder = extractNameNearLabel(allText, []string{"Account Name", "Account Holder"})
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

			if m := bdoRowPattern.FindStringSubmatch(line); m != nil {
				inSection = true
				txn, balance, err := e.parseRow(m, prevBalance)
				if err != nil {
					result.ParsingErrors = append(result.ParsingErrors,
						fmt.Sprintf("page %d line %d: %v", pageNum+1, lineNum+1, err))
					continue
				}
				if !balance.IsZero() {
					prevBalance = balance
				}
				result.Transactions = append(result.Transactions, txn)
				continue
			}

			if inSection {
				if n := len(result.Transactions); n > 0 && looksLikeContinuation(line) {
					result.Transactions[n-1].Description += " " + line
				}
			}
		}
	}

	FinishResult(result)
	return result, nil
}

func (e *BDOExtractor) parseRow(m []string, prevBalance decimal.Decimal) (models.RawTransaction, decimal.Decimal, error) {
	date, err := parseNumericDate(m[1], false)
	if err != nil {
		return models.RawTransaction{}, decimal.Zero, err
	}
	description := strings.TrimSpace(m[2])

	debitCell := strings.TrimSpace(m[3])
	creditCell := strings.TrimSpace(m[4])
	balance, err := parseAmount(m[5])
	if err != nil {
		return models.RawTransaction{}, decimal.Zero, err
	}

	var amount decimal.Decimal
	switch {
	case debitCell != "" && creditCell != "":
		// Both money columns captured: the first is the debit column.
		amount, err = parseAmount(debitCell)
		if err != nil {
			return models.RawTransaction{}, decimal.Zero, err
		}
		amount = amount.Neg()
	case debitCell != "":
		// One money value: the regex cannot tell which column it sat in.
		amount, err = parseAmount(debitCell)
		if err != nil {
			return models.RawTransaction{}, decimal.Zero, err
		}
		if classifyDebitByBalance(amount, balance, prevBalance, description) {
			amount = amount.Neg()
		}
	case creditCell != "":
		amount, err = parseAmount(creditCell)
		if err != nil {
			return models.RawTransaction{}, decimal.Zero, err
		}
	default:
		// Only one money value on the row, captured as the balance.
		// Pages carried over without a balance column look like this;
		// the value is the amount, signed by keywords.
		amount = balance
		balance = decimal.Zero
		if amount.IsZero() {
			return models.RawTransaction{}, decimal.Zero, fmt.Errorf("row has no money columns")
		}
		if amount.IsPositive() && !isCreditDescription(description) && isDebitDescription(description) {
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

