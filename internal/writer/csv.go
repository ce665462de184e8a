package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// CSVWriter exports reconciled transactions to CSV.
type CSVWriter struct {
	// IncludeHeader adds statement metadata rows above the column header.
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, result *models.ParseResult, transactions []*models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, result, transactions)
}

// Write writes transactions in CSV format to the given writer. The
// ParseResult supplies metadata rows and may be nil.
func (w *CSVWriter) Write(out io.Writer, result *models.ParseResult, transactions []*models.Transaction) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeHeader && result != nil {
		if result.IssuerType != "" {
			writer.Write([]string{"# Issuer", string(result.IssuerType)})
		}
		if result.AccountHolder != "" {
			writer.Write([]string{"# Account Holder", result.AccountHolder})
		}
		if result.AccountNumber != "" {
			writer.Write([]string{"# Account Number", result.AccountNumber})
		}
		if !result.PeriodStart.IsZero() && !result.PeriodEnd.IsZero() {
			writer.Write([]string{"# Statement Period",
				result.PeriodStart.Format("2006-01-02") + " to " + result.PeriodEnd.Format("2006-01-02")})
		}
		writer.Write([]string{"# Quality Score", fmt.Sprintf("%.2f", result.QualityScore)})
	}

	header := []string{"Date", "Description", "Amount", "Reference", "Merchant", "Category", "Status"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range transactions {
		row := []string{
			txn.Date.Format("2006-01-02"),
			txn.Description,
			txn.Amount.StringFixed(2),
			txn.ReferenceNumber,
			txn.MerchantNormalized,
			txn.Category,
			string(txn.Resolution),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return writer.Error()
}
