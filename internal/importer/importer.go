package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fintrack-ph/statement-reconciler/internal/extractor"
	"github.com/fintrack-ph/statement-reconciler/internal/models"
	"github.com/fintrack-ph/statement-reconciler/internal/parser"
)

// Status values passed to the progress callback after each file.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// ProgressFunc receives per-file progress during a batch import.
type ProgressFunc func(current, total int, path string, status Status)

// Options configures one ImportAll run. Use DefaultOptions as the base:
// the zero value disables duplicate skipping, which is almost never
// what a caller wants.
type Options struct {
	// Passwords maps a file path to its PDF password.
	Passwords map[string]string
	// Issuer forces a specific extractor strategy; empty means auto-detect.
	Issuer models.IssuerType
	// SkipDuplicates skips files whose content hash matches an already
	// successfully imported file.
	SkipDuplicates bool
	// Recursive descends into subdirectories when a path is a directory.
	Recursive bool
	// Progress, when non-nil, is invoked after each file.
	Progress ProgressFunc
}

// DefaultOptions returns the standard import options.
func DefaultOptions() Options {
	return Options{SkipDuplicates: true}
}

// FileError records one file that failed to import.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ImportedFile pairs a successfully parsed file with its content hash.
type ImportedFile struct {
	Path   string              `json:"path"`
	Hash   string              `json:"hash"`
	Result *models.ParseResult `json:"result"`
}

// BatchResult aggregates one ImportAll run.
type BatchResult struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Duplicates int            `json:"duplicates"`
	Results    []ImportedFile `json:"results"`
	Errors     []FileError    `json:"errors"`
	Skipped    []string       `json:"skipped,omitempty"`
}

// AverageQuality returns the mean quality score across successful
// imports only, or 0.0 when nothing imported.
func (r *BatchResult) AverageQuality() float64 {
	if len(r.Results) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, f := range r.Results {
		sum += f.Result.QualityScore
	}
	return sum / float64(len(r.Results))
}

// Importer runs batch statement imports. It keeps an in-memory set of
// content hashes of successfully imported files; hashes are registered
// only after a successful parse, so a failed file never poisons a later
// retry. Not safe for concurrent use; the pipeline is single-threaded.
type Importer struct {
	seen  map[string]string // content hash -> first path imported with it
	log   zerolog.Logger
	parse func(path string, opts Options) (*models.ParseResult, error)
}

// New creates an Importer with an empty imported-hash set.
func New(log zerolog.Logger) *Importer {
	im := &Importer{
		seen: make(map[string]string),
		log:  log,
	}
	im.parse = im.parseFile
	return im
}

// ImportAll processes the given files and directories sequentially.
// Per-file failures are recorded in the result and never abort the
// batch. Cancellation is cooperative: the context is checked between
// files, and a partial result is returned alongside ctx.Err().
func (im *Importer) ImportAll(ctx context.Context, paths []string, opts Options) (*BatchResult, error) {
	files, err := DiscoverFiles(paths, opts.Recursive)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Total: len(files)}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			im.log.Warn().Int("remaining", len(files)-i).Msg("import cancelled between files")
			return result, err
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(files), path, StatusProcessing)
		}

		status := im.importOne(path, opts, result)
		if opts.Progress != nil {
			opts.Progress(i+1, len(files), path, status)
		}
	}

	im.log.Info().
		Int("total", result.Total).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("duplicates", result.Duplicates).
		Float64("avg_quality", result.AverageQuality()).
		Msg("batch import finished")

	return result, nil
}

func (im *Importer) importOne(path string, opts Options, result *BatchResult) Status {
	data, err := os.ReadFile(path)
	if err != nil {
		result.Failed++
		result.Errors = append(result.Errors, FileError{Path: path, Message: "cannot read file: " + err.Error()})
		return StatusFailed
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if opts.SkipDuplicates {
		if first, ok := im.seen[hash]; ok {
			im.log.Debug().Str("path", path).Str("duplicate_of", first).Msg("skipping re-imported file")
			result.Duplicates++
			result.Skipped = append(result.Skipped, path)
			return StatusSkipped
		}
	}

	parsed, err := im.parse(path, opts)
	if err != nil {
		result.Failed++
		msg := err.Error()
		var perr *models.ParseError
		if errors.As(err, &perr) && perr.IsPasswordError() {
			msg = "password required or wrong password"
		}
		result.Errors = append(result.Errors, FileError{Path: path, Message: msg})
		im.log.Warn().Str("path", path).Err(err).Msg("file failed to import")
		return StatusFailed
	}

	// Register the hash only now: a failed parse must not block a
	// corrected retry of the same bytes.
	im.seen[hash] = path

	result.Successful++
	result.Results = append(result.Results, ImportedFile{Path: path, Hash: hash, Result: parsed})
	im.log.Info().
		Str("path", path).
		Str("issuer", string(parsed.IssuerType)).
		Int("transactions", len(parsed.Transactions)).
		Float64("quality", parsed.QualityScore).
		Msg("file imported")
	return StatusSuccess
}

func (im *Importer) parseFile(path string, opts Options) (*models.ParseResult, error) {
	password := opts.Passwords[path]
	pages, err := extractor.ExtractFile(path, password)
	if err != nil {
		return nil, err
	}

	if opts.Issuer != "" {
		e, err := parser.New(opts.Issuer)
		if err != nil {
			return nil, err
		}
		result, err := e.Extract(pages)
		if err != nil {
			return nil, err
		}
		if result.Degenerate() {
			return nil, &models.ParseError{Path: path, Msg: fmt.Sprintf("statement did not match the %s layout", e.IssuerName())}
		}
		return result, nil
	}

	return parser.ExtractAuto(pages)
}

// DiscoverFiles expands the given paths into a sorted list of PDF files.
// Directories contribute their PDF entries; with recursive set, the whole
// subtree is walked.
func DiscoverFiles(paths []string, recursive bool) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		if recursive {
			err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isPDF(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %s: %w", p, err)
			}
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading dir %s: %w", p, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isPDF(e.Name()) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
