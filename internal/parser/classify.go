package parser

import (
	"strings"

	"github.com/shopspring/decimal"
)

// balanceTolerance absorbs rounding in printed running balances.
var balanceTolerance = decimal.NewFromFloat(0.015)

// isDebitDescription reports whether a description reads like money out.
// Used only as a last resort when neither an explicit sign nor a running
// balance is available.
func isDebitDescription(desc string) bool {
	lower := strings.ToLower(desc)
	debitKeywords := []string{
		"payment", "pay bills", "send money", "sent to", "transfer to",
		"purchase", "buy load", "withdraw", "atm ", "pos ", "fee",
		"charge", "gcredit", "bills pay", "debit memo", "check paid",
	}
	for _, kw := range debitKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isCreditDescription reports whether a description reads like money in.
func isCreditDescription(desc string) bool {
	lower := strings.ToLower(desc)
	creditKeywords := []string{
		"received", "cash in", "cash-in", "deposit", "refund",
		"salary", "payroll", "interest", "reward", "cashback",
		"transfer from", "credit memo",
	}
	for _, kw := range creditKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// classifyDebitByBalance decides whether an unsigned single-column amount
// is a debit by checking which direction makes the running balance add
// up against the previous balance. Falls back to description keywords
// when no usable previous balance exists.
func classifyDebitByBalance(amount, balance, prevBalance decimal.Decimal, desc string) bool {
	if !prevBalance.IsZero() && !balance.IsZero() {
		debitDiff := prevBalance.Sub(amount).Sub(balance).Abs()
		creditDiff := prevBalance.Add(amount).Sub(balance).Abs()

		debitFits := debitDiff.LessThan(balanceTolerance)
		creditFits := creditDiff.LessThan(balanceTolerance)
		if debitFits && !creditFits {
			return true
		}
		if creditFits && !debitFits {
			return false
		}
		if debitFits && creditFits {
			return debitDiff.LessThanOrEqual(creditDiff)
		}
	}

	if isCreditDescription(desc) {
		return false
	}
	return isDebitDescription(desc)
}
