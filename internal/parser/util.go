package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Common date patterns found in Philippine bank and e-wallet statements.
var (
	// MM/DD/YYYY or DD/MM/YYYY — ambiguous, resolved by parseNumericDate
	datePatternSlash = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`)
	// YYYY-MM-DD, optionally followed by a clock time (GCash exports)
	datePatternISO = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})(?:\s+\d{1,2}:\d{2}(?::\d{2})?\s*(?:[AP]M)?)?`)
	// DD Mon YYYY (e.g., 15 Jan 2024)
	datePatternText = regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4})\b`)
	// Mon DD, YYYY (e.g., Jan 15, 2024) — used in some statement headers
	datePatternMonthFirst = regexp.MustCompile(`(?i)\b((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4})\b`)
)

var monthAbbrevs = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// parseNumericDate parses a slash-separated numeric date such as
// "01/15/2024". The two leading groups are ambiguous between day-first
// and month-first conventions, so the policy is: if the first group
// exceeds 12 it cannot be a month and is taken as the day; otherwise
// dayFirst (the issuer's locale default) decides. This is a best-effort
// fallback, not a guarantee — a statement full of dates like 03/04 is
// genuinely undecidable without the issuer convention.
func parseNumericDate(s string, dayFirst bool) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("not a numeric date: %q", s)
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %v", s, err)
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %v", s, err)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %v", s, err)
	}
	if year < 100 {
		year += 2000
	}

	day, month := a, b
	if a > 12 {
		// First group cannot be a month
		day, month = a, b
	} else if b > 12 {
		day, month = b, a
	} else if !dayFirst {
		day, month = b, a
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date out of range: %q", s)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// parseTextDate parses "15 Jan 2024", "15 January 24" and similar.
func parseTextDate(s string) (time.Time, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("not a textual date: %q", s)
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day in %q: %v", s, err)
	}
	monKey := strings.ToLower(fields[1])
	if len(monKey) > 3 {
		monKey = monKey[:3]
	}
	month, ok := monthAbbrevs[monKey]
	if !ok {
		return time.Time{}, fmt.Errorf("bad month in %q", s)
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad year in %q: %v", s, err)
	}
	if year < 100 {
		year += 2000
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day out of range: %q", s)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// parseISODate parses "2024-01-15".
func parseISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad ISO date %q: %v", s, err)
	}
	return t, nil
}

// parseMonthFirstDate parses "Jan 15, 2024" and "January 15 2024".
func parseMonthFirstDate(s string) (time.Time, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("not a month-first date: %q", s)
	}
	monKey := strings.ToLower(fields[0])
	if len(monKey) > 3 {
		monKey = monKey[:3]
	}
	month, ok := monthAbbrevs[monKey]
	if !ok {
		return time.Time{}, fmt.Errorf("bad month in %q", s)
	}
	day, err := strconv.Atoi(fields[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad day in %q: %v", s, err)
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad year in %q: %v", s, err)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day out of range: %q", s)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// parseAmount converts a statement amount string to an exact decimal.
// Handles "₱1,234.56", "PHP 1,234.56", explicit minus, and accounting
// parentheses: "(500.00)" means -500.00.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "₱", "")
	s = strings.ReplaceAll(s, "₱", "") // peso sign, decomposed input
	s = strings.ReplaceAll(s, "$", "")
	replacer := strings.NewReplacer("PHP", "", "Php", "", "php", "")
	s = replacer.Replace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "") // non-breaking space

	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	if s == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q: %v", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// maskAccountNumber reduces an account number to its last four
// characters, e.g. "1234567890" → "****7890". Privacy control applied
// before the number leaves the extractor; not optional.
func maskAccountNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Strip grouping before masking so "1234-5678-90" masks the digits only
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return ""
	}
	if len(digits) <= 4 {
		return digits
	}
	return "****" + digits[len(digits)-4:]
}

// normalizeDescription collapses whitespace and upper-cases a description
// for content hashing and similarity checks. Never applied to the stored
// description itself.
func normalizeDescription(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// cleanLine removes PDF extraction artifacts common across issuers.
func cleanLine(line string) string {
	line = strings.ReplaceAll(line, "​", "")
	line = strings.ReplaceAll(line, " ", " ")
	return strings.TrimSpace(line)
}

// amountToken matches a rendered amount anywhere in a line.
var amountToken = regexp.MustCompile(`\(?-?(?:₱|PHP\s?)?[\d,]+\.\d{2}\)?`)

// extractNameNearLabel finds a value following any of the given labels
// in header text, e.g. "Account Name: JUAN DELA CRUZ".
func extractNameNearLabel(text string, labels []string) string {
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		for _, label := range labels {
			idx := strings.Index(strings.ToLower(line), strings.ToLower(label))
			if idx < 0 {
				continue
			}
			rest := strings.TrimSpace(line[idx+len(label):])
			rest = strings.TrimPrefix(rest, ":")
			rest = strings.TrimSpace(rest)
			if rest != "" {
				// Double space marks the next column in layout-preserved text
				parts := strings.Split(rest, "  ")
				return strings.TrimSpace(parts[0])
			}
		}
	}
	return ""
}

// extractPeriod finds a statement period line and returns its two bounds.
// Zero times mean the bound was not found.
func extractPeriod(text string, dayFirst bool) (time.Time, time.Time) {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "statement period") && !strings.Contains(lower, "period covered") &&
			!strings.Contains(lower, "statement date") && !strings.Contains(lower, " to ") {
			continue
		}

		if dates := datePatternSlash.FindAllString(line, 2); len(dates) == 2 {
			start, err1 := parseNumericDate(dates[0], dayFirst)
			end, err2 := parseNumericDate(dates[1], dayFirst)
			if err1 == nil && err2 == nil {
				return start, end
			}
		}
		if dates := datePatternText.FindAllString(line, 2); len(dates) == 2 {
			start, err1 := parseTextDate(dates[0])
			end, err2 := parseTextDate(dates[1])
			if err1 == nil && err2 == nil {
				return start, end
			}
		}
		if dates := datePatternMonthFirst.FindAllString(line, 2); len(dates) == 2 {
			start, err1 := parseMonthFirstDate(dates[0])
			end, err2 := parseMonthFirstDate(dates[1])
			if err1 == nil && err2 == nil {
				return start, end
			}
		}
		if dates := datePatternISO.FindAllStringSubmatch(line, 2); len(dates) == 2 {
			start, err1 := parseISODate(dates[0][1])
			end, err2 := parseISODate(dates[1][1])
			if err1 == nil && err2 == nil {
				return start, end
			}
		}
	}
	return time.Time{}, time.Time{}
}

// findAccountNumber locates an account number near a label. Philippine
// account numbers vary from 10 to 16 digits with optional grouping, so a
// bare digit-run search is too loose; the label anchors it.
var accountNumberPattern = regexp.MustCompile(`(?i)(?:account|acct\.?)\s*(?:no\.?|number|#)?\s*:?\s*([\d][\d\s-]{8,18}[\d])`)

func findAccountNumber(text string) string {
	m := accountNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// findMobileNumber locates an e-wallet mobile account identifier
// like "+63 917 123 4567" or "09171234567".
var mobileNumberPattern = regexp.MustCompile(`(?:\+63|0)\s?9\d{2}[\s-]?\d{3}[\s-]?\d{4}`)

func findMobileNumber(text string) string {
	return strings.TrimSpace(mobileNumberPattern.FindString(text))
}

func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// containsTransactionHeader detects the column header row that opens the
// tabular transaction region.
func containsTransactionHeader(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "date") &&
		(strings.Contains(lower, "description") || strings.Contains(lower, "transaction") ||
			strings.Contains(lower, "details") || strings.Contains(lower, "particulars")) &&
		(strings.Contains(lower, "amount") || strings.Contains(lower, "balance") ||
			strings.Contains(lower, "debit") || strings.Contains(lower, "credit"))
}

// isSummaryLine reports statement footer/summary rows that must not be
// glued onto a preceding transaction's description.
func isSummaryLine(line string) bool {
	lower := strings.ToLower(line)
	summaryKeywords := []string{
		"beginning balance", "ending balance", "opening balance",
		"closing balance", "total debit", "total credit", "total amount",
		"statement period", "period covered", "page ", "continued",
		"important reminder", "this is a system-generated",
	}
	for _, kw := range summaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
