// Package api exposes the reconciliation pipeline over HTTP for
// interactive single-statement use.
package api

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fintrack-ph/statement-reconciler/internal/categorizer"
	"github.com/fintrack-ph/statement-reconciler/internal/extractor"
	"github.com/fintrack-ph/statement-reconciler/internal/models"
	"github.com/fintrack-ph/statement-reconciler/internal/parser"
)

// ImportResponse is the JSON body returned by POST /api/import.
type ImportResponse struct {
	Success       bool              `json:"success"`
	Error         string            `json:"error,omitempty"`
	Issuer        string            `json:"issuer,omitempty"`
	AccountInfo   *AccountInfo      `json:"accountInfo,omitempty"`
	QualityScore  float64           `json:"qualityScore"`
	QualityBand   string            `json:"qualityBand,omitempty"`
	Transactions  []TransactionView `json:"transactions"`
	Count         int               `json:"count"`
	ParsingErrors []string          `json:"parsingErrors,omitempty"`
}

// AccountInfo holds account metadata for the JSON response.
type AccountInfo struct {
	Holder      string `json:"holder,omitempty"`
	Number      string `json:"number,omitempty"`
	PeriodStart string `json:"periodStart,omitempty"`
	PeriodEnd   string `json:"periodEnd,omitempty"`
}

// TransactionView is one categorized transaction in the response.
type TransactionView struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Reference   string  `json:"reference,omitempty"`
	Merchant    string  `json:"merchant,omitempty"`
	Category    string  `json:"category,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Handler wires the pipeline into fiber routes.
type Handler struct {
	Categorizer *categorizer.Context
	Log         zerolog.Logger
}

// Register sets up the HTTP routes on the given app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.handleHealth)
	app.Post("/api/import", h.handleImport)
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) handleImport(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "no file uploaded; use form field 'file'")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "cannot open uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "cannot read uploaded file")
	}

	password := c.FormValue("password")
	pages, err := extractor.ExtractBytes(data, password)
	if err != nil {
		var perr *models.ParseError
		if errors.As(err, &perr) && perr.IsPasswordError() {
			return c.Status(fiber.StatusUnauthorized).JSON(ImportResponse{
				Success: false, Error: perr.Error(),
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ImportResponse{
			Success: false, Error: err.Error(),
		})
	}

	var result *models.ParseResult
	if issuer := c.FormValue("issuer"); issuer != "" {
		e, err := parser.New(models.IssuerType(issuer))
		if err != nil {
			return badRequest(c, err.Error())
		}
		result, err = e.Extract(pages)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ImportResponse{
				Success: false, Error: err.Error(),
			})
		}
	} else {
		result, err = parser.ExtractAuto(pages)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ImportResponse{
				Success: false, Error: err.Error(),
			})
		}
	}

	resp := ImportResponse{
		Success:       true,
		Issuer:        string(result.IssuerType),
		QualityScore:  result.QualityScore,
		QualityBand:   parser.Band(result.QualityScore),
		Count:         len(result.Transactions),
		ParsingErrors: result.ParsingErrors,
		Transactions:  make([]TransactionView, 0, len(result.Transactions)),
	}
	if result.AccountHolder != "" || result.AccountNumber != "" || !result.PeriodStart.IsZero() {
		info := &AccountInfo{Holder: result.AccountHolder, Number: result.AccountNumber}
		if !result.PeriodStart.IsZero() {
			info.PeriodStart = result.PeriodStart.Format("2006-01-02")
		}
		if !result.PeriodEnd.IsZero() {
			info.PeriodEnd = result.PeriodEnd.Format("2006-01-02")
		}
		resp.AccountInfo = info
	}

	statementID := uuid.New()
	accountKey := models.AccountKeyFor(result.IssuerType, result.AccountNumber)
	for _, raw := range result.Transactions {
		txn := models.NewTransaction(statementID, accountKey, raw)
		view := TransactionView{
			Date:        raw.Date.Format("2006-01-02"),
			Description: raw.Description,
			Amount:      raw.Amount.StringFixed(2),
			Reference:   raw.ReferenceNumber,
			Confidence:  raw.Confidence,
		}
		if h.Categorizer != nil {
			cat := h.Categorizer.Categorize(&txn)
			if h.Categorizer.AutoAccept(cat) {
				view.Merchant = cat.MerchantNormalized
				view.Category = cat.Category
			}
		}
		resp.Transactions = append(resp.Transactions, view)
	}

	h.Log.Info().
		Str("file", fileHeader.Filename).
		Str("issuer", resp.Issuer).
		Int("transactions", resp.Count).
		Float64("quality", resp.QualityScore).
		Msg("statement imported via API")

	return c.JSON(resp)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ImportResponse{Success: false, Error: msg})
}
