package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/logger"
	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func stubResult(quality float64) *models.ParseResult {
	return &models.ParseResult{
		IssuerType:   models.IssuerGCash,
		QualityScore: quality,
		Transactions: []models.RawTransaction{
			{Description: "Payment to JOLLIBEE", Amount: decimal.NewFromFloat(-100.00)},
		},
	}
}

func TestImportAll(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "statement-a")
	b := writeFile(t, dir, "b.pdf", "statement-b")

	im := New(logger.Nop())
	im.parse = func(path string, opts Options) (*models.ParseResult, error) {
		if path == b {
			return nil, &models.ParseError{Path: path, Msg: "unreadable layout"}
		}
		return stubResult(0.96), nil
	}

	result, err := im.ImportAll(context.Background(), []string{a, b}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Total != 2 || result.Successful != 1 || result.Failed != 1 {
		t.Errorf("counts: total=%d successful=%d failed=%d", result.Total, result.Successful, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].Path != b {
		t.Errorf("errors: %+v", result.Errors)
	}
	if len(result.Results) != 1 || result.Results[0].Path != a {
		t.Errorf("results: %+v", result.Results)
	}
	if result.Results[0].Hash == "" {
		t.Error("imported file must carry its content hash")
	}
}

func TestImportAllSkipsDuplicateContent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "identical bytes")
	b := writeFile(t, dir, "copy-of-a.pdf", "identical bytes")

	im := New(logger.Nop())
	parses := 0
	im.parse = func(path string, opts Options) (*models.ParseResult, error) {
		parses++
		return stubResult(0.96), nil
	}

	result, err := im.ImportAll(context.Background(), []string{a, b}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Successful != 1 || result.Duplicates != 1 {
		t.Errorf("counts: successful=%d duplicates=%d", result.Successful, result.Duplicates)
	}
	if parses != 1 {
		t.Errorf("duplicate file must not be parsed again: %d parses", parses)
	}
	if len(result.Skipped) != 1 {
		t.Errorf("skipped: %v", result.Skipped)
	}
}

func TestFailedParseDoesNotRegisterHash(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "same bytes both runs")

	im := New(logger.Nop())
	calls := 0
	im.parse = func(path string, opts Options) (*models.ParseResult, error) {
		calls++
		if calls == 1 {
			return nil, &models.ParseError{Path: path, Msg: "transient failure"}
		}
		return stubResult(0.96), nil
	}

	first, err := im.ImportAll(context.Background(), []string{a}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Failed != 1 {
		t.Fatalf("first run: failed=%d, want 1", first.Failed)
	}

	// Retrying the identical bytes must parse, not skip.
	second, err := im.ImportAll(context.Background(), []string{a}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Successful != 1 || second.Duplicates != 0 {
		t.Errorf("retry after failure: successful=%d duplicates=%d", second.Successful, second.Duplicates)
	}
}

func TestImportAllPasswordErrorMessage(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "locked.pdf", "encrypted")

	im := New(logger.Nop())
	im.parse = func(path string, opts Options) (*models.ParseResult, error) {
		return nil, models.NewPasswordError(path, nil)
	}

	result, err := im.ImportAll(context.Background(), []string{a}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors: %+v", result.Errors)
	}
	if got := result.Errors[0].Message; got != "password required or wrong password" {
		t.Errorf("password failure message: got %q", got)
	}
}

func TestImportAllCancelledBetweenFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "first")
	b := writeFile(t, dir, "b.pdf", "second")

	ctx, cancel := context.WithCancel(context.Background())

	im := New(logger.Nop())
	im.parse = func(path string, opts Options) (*models.ParseResult, error) {
		cancel() // fires during the first file
		return stubResult(0.96), nil
	}

	result, err := im.ImportAll(ctx, []string{a, b}, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Successful != 1 {
		t.Errorf("partial result must carry completed files: %+v", result)
	}
}

func TestImportAllProgressCallback(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "first")

	im := New(logger.Nop())
	im.parse = func(path string, opts Options) (*models.ParseResult, error) {
		return stubResult(0.96), nil
	}

	var statuses []Status
	opts := DefaultOptions()
	opts.Progress = func(current, total int, path string, status Status) {
		statuses = append(statuses, status)
	}

	if _, err := im.ImportAll(context.Background(), []string{a}, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 2 || statuses[0] != StatusProcessing || statuses[1] != StatusSuccess {
		t.Errorf("statuses: %v", statuses)
	}
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", "x")
	writeFile(t, dir, "a.PDF", "x")
	writeFile(t, dir, "notes.txt", "x")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "c.pdf", "x")

	flat, err := DiscoverFiles([]string{dir}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flat) != 2 {
		t.Errorf("non-recursive: got %d files, want 2: %v", len(flat), flat)
	}

	deep, err := DiscoverFiles([]string{dir}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deep) != 3 {
		t.Errorf("recursive: got %d files, want 3: %v", len(deep), deep)
	}
	// Sorted output
	for i := 1; i < len(deep); i++ {
		if deep[i-1] > deep[i] {
			t.Errorf("files not sorted: %v", deep)
		}
	}

	if _, err := DiscoverFiles([]string{filepath.Join(dir, "missing.pdf")}, false); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestAverageQuality(t *testing.T) {
	r := &BatchResult{}
	if got := r.AverageQuality(); got != 0.0 {
		t.Errorf("empty batch: got %v, want 0.0", got)
	}
	r.Results = []ImportedFile{
		{Result: stubResult(1.0)},
		{Result: stubResult(0.8)},
	}
	if got := r.AverageQuality(); got != 0.9 {
		t.Errorf("average: got %v, want 0.9", got)
	}
}
