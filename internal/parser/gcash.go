package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// GCashExtractor handles GCash e-wallet transaction history PDFs.
//
// GCash exports have this layout:
//
//	Date and Time | Description | Reference No. | Debit | Credit | Balance
//
// Date format: YYYY-MM-DD HH:MM AM
// Example line: "2024-01-15 10:23 AM  Payment to JOLLIBEE  1002345678901  ₱1,234.56  ₱8,765.44"
//
// The account identifier is the registered mobile number. Every row
// carries a 13-digit reference number, which downstream duplicate
// detection relies on.
type GCashExtractor struct{}

func (e *GCashExtractor) IssuerName() string { return "GCash" }

func (e *GCashExtractor) IssuerType() models.IssuerType { return models.IssuerGCash }

// gcashRowPattern captures date, description, reference number, and the
// trailing amount columns as one blob. Debit/credit/balance columns are
// pulled apart afterwards because either money column may be empty.
var gcashRowPattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})(?:\s+\d{1,2}:\d{2}(?::\d{2})?\s*(?:[AP]M)?)?\s+` +
		`(.+?)\s+(\d{10,13})((?:\s+\(?-?(?:₱|PHP\s?)?[\d,]+\.\d{2}\)?)+)\s*$`,
)

func (e *GCashExtractor) Extract(pages []string) (*models.ParseResult, error) {
	result := &models.ParseResult{IssuerType: models.IssuerGCash}

	allText := strings.Join(pages, "\n")
	account := findMobileNumber(allText)
	if account == "" {
		account = findAccountNumber(allText)
	}
	result.AccountNumber = maskAccountNumber(account)
	result.AccountHolder = extractNameNearLabel(allText, []string{"Account Name", "Customer Name", "Registered Name"})
	result.PeriodStart, result.PeriodEnd = extractPeriod(allText, false)

	var prevBalance decimal.Decimal
	for pageNum, page := range pages {
		for lineNum, rawLine := range strings.Split(page, "\n") {
			line := cleanLine(rawLine)
			if line == "" || isSummaryLine(line) {
				continue
			}

			m := gcashRowPattern.FindStringSubmatch(line)
			if m == nil {
				// Continuation of the previous row's description
				if n := len(result.Transactions); n > 0 && !startsLikeGCashRow(line) && looksLikeContinuation(line) {
					result.Transactions[n-1].Description += " " + line
				}
				continue
			}

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
		}
	}

	FinishResult(result)
	return result, nil
}

func (e *GCashExtractor) parseRow(m []string, prevBalance decimal.Decimal) (models.RawTransaction, decimal.Decimal, error) {
	date, err := parseISODate(m[1])
	if err != nil {
		return models.RawTransaction{}, decimal.Zero, err
	}
	description := strings.TrimSpace(m[2])
	reference := m[3]

	tokens := amountToken.FindAllString(m[4], -1)
	if len(tokens) == 0 {
		return models.RawTransaction{}, decimal.Zero, fmt.Errorf("no amount columns in row")
	}

	amount, err := parseAmount(tokens[0])
	if err != nil {
		return models.RawTransaction{}, decimal.Zero, err
	}

	var balance decimal.Decimal
	if len(tokens) >= 2 {
		balance, err = parseAmount(tokens[len(tokens)-1])
		if err != nil {
			return models.RawTransaction{}, decimal.Zero, err
		}
	}

	// GCash prints unsigned column amounts; decide the sign.
	if amount.IsPositive() {
		if classifyDebitByBalance(amount, balance, prevBalance, description) {
			amount = amount.Neg()
		}
	}

	txn := models.RawTransaction{
		Date:            date,
		Description:     description,
		Amount:          amount,
		ReferenceNumber: reference,
		Confidence:      rowConfidence(date, description, !amount.IsZero(), reference != ""),
	}
	return txn, balance, nil
}

// startsLikeGCashRow guards continuation gluing against rows the main
// pattern rejected for a bad amount, which must stay rejected.
func startsLikeGCashRow(line string) bool {
	return datePatternISO.MatchString(line)
}

// looksLikeContinuation accepts short wrapped description fragments and
// rejects header/footer noise.
func looksLikeContinuation(line string) bool {
	if len(line) > 80 {
		return false
	}
	lower := strings.ToLower(line)
	noise := []string{"date", "description", "reference", "debit", "credit", "balance", "gcash"}
	for _, w := range noise {
		if lower == w {
			return false
		}
	}
	return !amountToken.MatchString(line)
}
