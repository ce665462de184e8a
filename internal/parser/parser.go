package parser

import (
	"fmt"
	"strings"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// StatementExtractor turns statement page text into structured data.
// One implementation per issuer; implementations are stateless and safe
// to reuse across files.
type StatementExtractor interface {
	// Extract parses the text of all PDF pages into a ParseResult.
	// Row-level failures go into ParseResult.ParsingErrors; a ParseError
	// is returned only when the statement is structurally unrecognized.
	Extract(pages []string) (*models.ParseResult, error)
	// IssuerName returns the human-readable issuer name.
	IssuerName() string
	// IssuerType returns the issuer tag used for registry lookup.
	IssuerType() models.IssuerType
}

// registry holds every known strategy in detection-priority order.
// E-wallets come first: their statements mention partner banks in
// footers, which would mislead the bank keyword probes.
func registry() []StatementExtractor {
	return []StatementExtractor{
		&GCashExtractor{},
		&MayaExtractor{},
		&BPIExtractor{},
		&BDOExtractor{},
	}
}

// New returns the extractor strategy for the given issuer type.
func New(issuerType models.IssuerType) (StatementExtractor, error) {
	for _, e := range registry() {
		if e.IssuerType() == issuerType {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unsupported issuer type: %q", issuerType)
}

// All returns every registered strategy in detection-priority order.
func All() []StatementExtractor {
	return registry()
}

// DetectIssuer tries to identify the issuer from the statement text by
// looking for issuer-identifying keywords in the extracted header text.
func DetectIssuer(pages []string) (models.IssuerType, error) {
	combined := strings.Join(pages, "\n")

	if containsAny(combined, []string{"GCash", "G-Xchange", "gcash.com", "Mynt"}) {
		return models.IssuerGCash, nil
	}
	if containsAny(combined, []string{"Maya Bank", "PayMaya", "maya.ph", "Maya Philippines"}) {
		return models.IssuerMaya, nil
	}
	if containsAny(combined, []string{"Bank of the Philippine Islands", "BPI Direct", "bpi.com.ph", "BPI "}) {
		return models.IssuerBPI, nil
	}
	if containsAny(combined, []string{"Banco de Oro", "BDO Unibank", "bdo.com.ph", "BDO "}) {
		return models.IssuerBDO, nil
	}

	return "", fmt.Errorf("could not detect issuer from statement content; specify the issuer explicitly")
}

// ExtractAuto detects the issuer and extracts. When detection fails or
// the detected strategy yields a degenerate result, every known strategy
// is tried in order and the first non-degenerate result wins.
func ExtractAuto(pages []string) (*models.ParseResult, error) {
	if issuerType, err := DetectIssuer(pages); err == nil {
		e, err := New(issuerType)
		if err == nil {
			result, err := e.Extract(pages)
			if err == nil && !result.Degenerate() {
				return result, nil
			}
		}
	}

	// Detection failed or was wrong: fall back through all strategies.
	var lastErr error
	for _, e := range registry() {
		result, err := e.Extract(pages)
		if err != nil {
			lastErr = err
			continue
		}
		if !result.Degenerate() {
			return result, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &models.ParseError{Msg: "no extractor strategy recognized the statement layout"}
}
