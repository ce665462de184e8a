package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssuerType identifies the bank or e-wallet that produced a statement.
type IssuerType string

const (
	IssuerBPI   IssuerType = "bpi"
	IssuerBDO   IssuerType = "bdo"
	IssuerGCash IssuerType = "gcash"
	IssuerMaya  IssuerType = "maya"
)

// RawTransaction is one transaction row as extracted from a statement PDF.
// It is immutable after extraction: normalization and categorization attach
// new data elsewhere rather than editing these fields.
type RawTransaction struct {
	Date            time.Time       `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"` // signed, negative = debit
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	Confidence      float64         `json:"confidence"`
}

// Complete reports whether the row carries the three fields every
// downstream consumer needs. Used by the quality scorer.
func (t RawTransaction) Complete() bool {
	return !t.Date.IsZero() && !t.Amount.IsZero() && t.Description != ""
}

// ParseResult is the output of extracting one statement file.
type ParseResult struct {
	Transactions  []RawTransaction `json:"transactions"`
	QualityScore  float64          `json:"qualityScore"`
	IssuerType    IssuerType       `json:"issuerType"`
	AccountNumber string           `json:"accountNumber,omitempty"` // masked to last 4
	AccountHolder string           `json:"accountHolder,omitempty"`
	PeriodStart   time.Time        `json:"periodStart,omitempty"`
	PeriodEnd     time.Time        `json:"periodEnd,omitempty"`
	ParsingErrors []string         `json:"parsingErrors,omitempty"`
}

// degenerateQualityFloor is the quality score below which a blind parse
// is treated as noise rather than a real read of the statement.
const degenerateQualityFloor = 0.2

// Degenerate reports whether the result is too poor to accept when a
// strategy was tried blind during issuer-detection fallback: no rows at
// all, or a quality score low enough that the rows are likely misparsed.
func (r *ParseResult) Degenerate() bool {
	return r == nil || len(r.Transactions) == 0 || r.QualityScore < degenerateQualityFloor
}

// MatchType classifies a duplicate-detector hit.
type MatchType string

const (
	MatchExact            MatchType = "exact"
	MatchNear             MatchType = "near"
	MatchCrossSource      MatchType = "cross_source"
	MatchInternalTransfer MatchType = "internal_transfer"
)

// DuplicateMatch is one detected pair. Internal-transfer matches are
// informational only and must never be auto-resolved as duplicates.
type DuplicateMatch struct {
	TransactionA *Transaction `json:"transactionA"`
	TransactionB *Transaction `json:"transactionB"`
	Confidence   float64      `json:"confidence"`
	MatchType    MatchType    `json:"matchType"`
	Reasons      []string     `json:"reasons"`
	AccountA     string       `json:"accountA,omitempty"`
	AccountB     string       `json:"accountB,omitempty"`
}

// CategorizationResult is the categorizer's verdict for one transaction.
type CategorizationResult struct {
	Category           string  `json:"category"`
	MerchantNormalized string  `json:"merchantNormalized"`
	Confidence         float64 `json:"confidence"`
}

// CorrectionRule is a user-supplied categorization override. The most
// recently created rule whose pattern matches a merchant wins over the
// static mapping table and over older rules.
type CorrectionRule struct {
	Pattern            string    `yaml:"pattern" json:"pattern"`
	NormalizedMerchant string    `yaml:"merchant" json:"normalizedMerchant"`
	Category           string    `yaml:"category" json:"category"`
	CreatedAt          time.Time `yaml:"created_at" json:"createdAt"`
}

// ResolutionState tracks what happened to a transaction after duplicate
// detection. Rows are never physically deleted.
type ResolutionState string

const (
	ResolutionActive            ResolutionState = "active"
	ResolutionMarkedDuplicate   ResolutionState = "marked_duplicate"
	ResolutionConfirmedTransfer ResolutionState = "confirmed_transfer"
)

// Account is one imported bank or e-wallet account, keyed by
// (issuer type, account number). AccountNumber may be empty for
// statements whose header did not expose one.
type Account struct {
	ID            uuid.UUID  `json:"id"`
	IssuerType    IssuerType `json:"issuerType"`
	AccountNumber string     `json:"accountNumber,omitempty"` // masked to last 4
	HolderName    string     `json:"holderName,omitempty"`
}

// Statement links one imported file to one account.
type Statement struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"accountId"`
	FilePath     string    `json:"filePath"`
	FileHash     string    `json:"fileHash"`
	QualityScore float64   `json:"qualityScore"`
	ImportedAt   time.Time `json:"importedAt"`
}

// Transaction is a persisted transaction row. AccountKey is the masked
// account identifier used for duplicate scoping; empty means unknown.
type Transaction struct {
	ID                 uuid.UUID       `json:"id"`
	StatementID        uuid.UUID       `json:"statementId"`
	AccountKey         string          `json:"accountKey,omitempty"`
	Date               time.Time       `json:"date"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	ReferenceNumber    string          `json:"referenceNumber,omitempty"`
	Category           string          `json:"category,omitempty"`
	MerchantNormalized string          `json:"merchantNormalized,omitempty"`
	Resolution         ResolutionState `json:"resolution"`
}

// AccountKeyFor builds the duplicate-scoping key for an account. Keys
// are qualified by issuer so two banks sharing the same masked last-4
// never collapse into one scope. An unknown account number yields an
// empty key, never a bare issuer prefix.
func AccountKeyFor(issuer IssuerType, accountNumber string) string {
	if accountNumber == "" {
		return ""
	}
	return string(issuer) + ":" + accountNumber
}

// NewTransaction builds a persisted transaction from an extracted row.
func NewTransaction(statementID uuid.UUID, accountKey string, raw RawTransaction) Transaction {
	return Transaction{
		ID:              uuid.New(),
		StatementID:     statementID,
		AccountKey:      accountKey,
		Date:            raw.Date,
		Description:     raw.Description,
		Amount:          raw.Amount,
		ReferenceNumber: raw.ReferenceNumber,
		Resolution:      ResolutionActive,
	}
}
