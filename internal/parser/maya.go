package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// MayaExtractor handles Maya (formerly PayMaya) e-wallet and Maya Bank
// statement PDFs.
//
// Maya statements have this layout:
//
//	Date | Transaction | Reference | Amount
//
// Date format: DD Mon YYYY (day-first textual dates, never ambiguous).
// Amounts carry an explicit sign: "-₱350.00" is money out, "+₱1,000.00"
// (or an unsigned amount) is money in.
// Example line: "15 Jan 2024  Bills Payment - Meralco  MX93812A  -₱2,145.30"
type MayaExtractor struct{}

func (e *MayaExtractor) IssuerName() string { return "Maya" }

func (e *MayaExtractor) IssuerType() models.IssuerType { return models.IssuerMaya }

var mayaRowPattern = regexp.MustCompile(
	`^(\d{1,2}\s+(?i:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4})\s+` +
		`(.+?)\s+([A-Z0-9]{6,16})\s+([+-]?\(?(?:₱|PHP\s?)?[\d,]+\.\d{2}\)?)\s*$`,
)

// Rows without a reference column (older PayMaya exports).
var mayaRowNoRef = regexp.MustCompile(
	`^(\d{1,2}\s+(?i:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4})\s+` +
		`(.+?)\s+([+-]?\(?(?:₱|PHP\s?)?[\d,]+\.\d{2}\)?)\s*$`,
)

func (e *MayaExtractor) Extract(pages []string) (*models.ParseResult, error) {
	result := &models.ParseResult{IssuerType: models.IssuerMaya}

	allText := strings.Join(pages, "\n")
	account := findMobileNumber(allText)
	if account == "" {
		account = findAccountNumber(allText)
	}
	result.AccountNumber = maskAccountNumber(account)
	result.AccountHolder = extractNameNearLabel(allText, []string{"Account Name", "Account Holder", "Name"})
	result.PeriodStart, result.PeriodEnd = extractPeriod(allText, true)

	for pageNum, page := range pages {
		for lineNum, rawLine := range strings.Split(page, "\n") {
			line := cleanLine(rawLine)
			if line == "" || isSummaryLine(line) || containsTransactionHeader(line) {
				continue
			}

			m := mayaRowPattern.FindStringSubmatch(line)
			reference := ""
			var amountCell string
			if m != nil && strings.ContainsAny(m[3], "0123456789") {
				reference = m[3]
				amountCell = m[4]
			} else {
				m = mayaRowNoRef.FindStringSubmatch(line)
				if m != nil {
					amountCell = m[3]
				}
			}
			if m == nil {
				if n := len(result.Transactions); n > 0 && looksLikeContinuation(line) {
					result.Transactions[n-1].Description += " " + line
				}
				continue
			}

			date, err := parseTextDate(m[1])
			if err != nil {
				result.ParsingErrors = append(result.ParsingErrors,
					fmt.Sprintf("page %d line %d: %v", pageNum+1, lineNum+1, err))
				continue
			}
			description := strings.TrimSpace(m[2])

			signed := strings.HasPrefix(amountCell, "-") || strings.HasPrefix(amountCell, "+") ||
				strings.HasPrefix(amountCell, "(")
			amount, err := parseAmount(strings.TrimPrefix(amountCell, "+"))
			if err != nil {
				result.ParsingErrors = append(result.ParsingErrors,
					fmt.Sprintf("page %d line %d: %v", pageNum+1, lineNum+1, err))
				continue
			}
			// Unsigned Maya amounts default by description keywords
			if !signed && amount.IsPositive() && !isCreditDescription(description) && isDebitDescription(description) {
				amount = amount.Neg()
			}

			result.Transactions = append(result.Transactions, models.RawTransaction{
				Date:            date,
				Description:     description,
				Amount:          amount,
				ReferenceNumber: reference,
				Confidence:      rowConfidence(date, description, !amount.IsZero(), reference != ""),
			})
		}
	}

	FinishResult(result)
	return result, nil
}
