package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// ExtractBytes decodes a statement PDF from memory and returns the text
// content of each page. Password-protected PDFs are opened with the given
// password; an empty password is tried for PDFs encrypted with an owner
// password only. It tries multiple extraction methods because issuers use
// very different PDF generators.
func ExtractBytes(data []byte, password string) ([]string, error) {
	pages, err := extractWithLibrary(data, password)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, models.NewPasswordError("", err)
		}
		return nil, &models.ParseError{Msg: "PDF text extraction failed; the file may be corrupt or image-based", Err: err}
	}
	if !isReadableText(pages) {
		return nil, &models.ParseError{Msg: "no readable text could be extracted; the PDF may be scanned or use custom font encodings"}
	}
	return pages, nil
}

// ExtractFile reads a statement PDF from disk. If the in-process library
// cannot produce readable text it falls back to the external pdftotext
// command (poppler-utils) before giving up.
func ExtractFile(path, password string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ParseError{Path: path, Msg: "cannot read file", Err: err}
	}

	pages, libErr := ExtractBytes(data, password)
	if libErr == nil {
		return pages, nil
	}

	// Wrong password is definitive: pdftotext will not do better.
	var perr *models.ParseError
	if errors.As(libErr, &perr) && perr.IsPasswordError() {
		return nil, models.NewPasswordError(path, perr.Err)
	}

	popplerPages, popplerErr := extractWithPdftotext(path, password)
	if popplerErr == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	if errors.As(libErr, &perr) {
		perr.Path = path
		return nil, perr
	}
	return nil, &models.ParseError{Path: path, Msg: "PDF text extraction failed", Err: libErr}
}

// extractWithLibrary uses the ledongthuc/pdf library with multiple methods.
func extractWithLibrary(data []byte, password string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	attempts := 0
	r, openErr := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string {
		attempts++
		if attempts == 1 {
			return password
		}
		return "" // stop retrying, surface ErrInvalidPassword
	})
	if openErr != nil {
		return nil, openErr
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Method 1: GetTextByRow (best layout preservation)
	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 2: Page.Content() with coordinate-based row reconstruction
	pages = extractByContent(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 3: whole-document plain text
	plainText := extractByReaderPlainText(r)
	if isReadableText([]string{plainText}) {
		return []string{plainText}, nil
	}

	return pages, nil
}

// Method 1: GetTextByRow — best for well-structured PDFs
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// Method 2: Page.Content() — lower-level access to text objects.
// Groups text pieces by Y coordinate to reconstruct rows, then sorts by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y runs bottom-to-top
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					// Large gap between text items — column separator
					parts = append(parts, "  ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// Method 3: Reader.GetPlainText — whole-document extraction
func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithPdftotext uses the external pdftotext command from
// poppler-utils as a fallback for PDFs the Go library cannot handle.
func extractWithPdftotext(path, password string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %v", err)
	}

	args := []string{"-layout"}
	if password != "" {
		args = append(args, "-upw", password)
	}
	args = append(args, path, "-")

	out, err := exec.Command("pdftotext", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %v", err)
	}

	// pdftotext separates pages with form feeds
	var pages []string
	for _, chunk := range strings.Split(string(out), "\f") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			pages = append(pages, chunk)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// textQuality returns the ratio of readable characters (ASCII letters,
// digits, common punctuation, whitespace, peso sign) to total characters.
// Uses a strict check — unicode.IsLetter() is too broad and matches
// accented characters that appear in garbage from identity-encoded fonts.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				r == '.' || r == ',' || r == '-' || r == '/' || r == ':' ||
				r == ';' || r == '(' || r == ')' || r == '\'' || r == '"' ||
				r == '₱' || r == '$' || r == '%' || r == '&' ||
				r == '@' || r == '#' || r == '!' || r == '?' || r == '+' ||
				r == '=' || r == '*' || r == '\t' {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords that appear in virtually all bank and e-wallet statements.
// If the extracted text contains none of these, it is likely garbage.
var commonWords = []string{
	"account", "balance", "date", "statement", "transaction", "amount",
	"debit", "credit", "reference", "total", "payment", "transfer",
	"period", "page", "branch", "wallet", "peso", "php",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText checks that pages contain enough text, that it is
// actually readable (not binary garbage), and that it contains at least
// one word a statement would be expected to have.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
