package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintrack-ph/statement-reconciler/internal/api"
	"github.com/fintrack-ph/statement-reconciler/internal/categorizer"
	"github.com/fintrack-ph/statement-reconciler/internal/config"
	"github.com/fintrack-ph/statement-reconciler/internal/dedup"
	"github.com/fintrack-ph/statement-reconciler/internal/importer"
	"github.com/fintrack-ph/statement-reconciler/internal/logger"
	"github.com/fintrack-ph/statement-reconciler/internal/models"
	"github.com/fintrack-ph/statement-reconciler/internal/writer"
)

const version = "1.0.0"

func main() {
	issuerFlag := flag.String("issuer", "", "Issuer type: bpi, bdo, gcash, maya (auto-detected if omitted)")
	outputFlag := flag.String("output", "", "Output CSV file path (omit to skip export)")
	passwordFlag := flag.String("password", "", "PDF password applied to every input file")
	recursiveFlag := flag.Bool("recursive", false, "Descend into subdirectories when an input is a directory")
	crossAccountFlag := flag.Bool("cross-account", false, "Compare transactions across accounts during duplicate detection (more false positives)")
	autoResolveFlag := flag.Bool("auto-resolve", false, "Automatically mark exact duplicates")
	serveFlag := flag.String("serve", "", "Run the HTTP API on this address (e.g. :8080) instead of batch mode")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Reconciler

Imports bank and e-wallet statement PDFs (BPI, BDO, GCash, Maya),
detects duplicate transactions and internal transfers, and assigns
each transaction a normalized merchant name and spending category.

Usage:
  statement-reconciler [flags] <input.pdf|dir> [input2.pdf ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect issuers and reconcile a folder of statements
  statement-reconciler --recursive statements/

  # Specify issuer and export categorized transactions
  statement-reconciler --issuer=gcash --output=transactions.csv jan.pdf

  # Run the HTTP API
  statement-reconciler --serve=:8080

Supported issuers:
  bpi     - Bank of the Philippine Islands (MM/DD/YYYY)
  bdo     - BDO Unibank (MM/DD/YYYY)
  gcash   - GCash e-wallet (YYYY-MM-DD)
  maya    - Maya / PayMaya (DD Mon YYYY)
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-reconciler v%s\n", version)
		os.Exit(0)
	}

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}
	if *crossAccountFlag {
		cfg.CrossAccount = true
	}

	catCtx, err := buildCategorizer(cfg)
	if err != nil {
		fatalf("Categorizer setup failed: %v\n", err)
	}

	if *serveFlag != "" {
		app := fiber.New(fiber.Config{BodyLimit: 32 << 20})
		h := &api.Handler{Categorizer: catCtx, Log: log}
		h.Register(app)
		log.Info().Str("addr", *serveFlag).Msg("HTTP API listening")
		if err := app.Listen(*serveFlag); err != nil {
			fatalf("Server failed: %v\n", err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var issuer models.IssuerType
	if *issuerFlag != "" {
		switch strings.ToLower(*issuerFlag) {
		case "bpi":
			issuer = models.IssuerBPI
		case "bdo":
			issuer = models.IssuerBDO
		case "gcash":
			issuer = models.IssuerGCash
		case "maya", "paymaya":
			issuer = models.IssuerMaya
		default:
			fatalf("Unknown issuer type %q. Supported: bpi, bdo, gcash, maya\n", *issuerFlag)
		}
	}

	// Batch imports stop at the next file boundary on Ctrl-C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := importer.DefaultOptions()
	opts.Issuer = issuer
	opts.Recursive = *recursiveFlag
	opts.Progress = func(current, total int, path string, status importer.Status) {
		if status != importer.StatusProcessing {
			fmt.Printf("[%d/%d] %-9s %s\n", current, total, status, path)
		}
	}
	if *passwordFlag != "" {
		files, err := importer.DiscoverFiles(flag.Args(), *recursiveFlag)
		if err != nil {
			fatalf("%v\n", err)
		}
		opts.Passwords = make(map[string]string, len(files))
		for _, f := range files {
			opts.Passwords[f] = *passwordFlag
		}
	}

	im := importer.New(log)
	batch, err := im.ImportAll(ctx, flag.Args(), opts)
	if err != nil && batch == nil {
		fatalf("Import failed: %v\n", err)
	}

	fmt.Println()
	fmt.Print(batch.Report())

	transactions := collectTransactions(batch)
	if len(transactions) == 0 {
		return
	}

	// Duplicate detection over everything imported in this run.
	detector := dedup.New(dedup.Options{
		CrossAccount:       cfg.CrossAccount,
		TimeWindow:         cfg.NearMatchWindow,
		AmountTolerancePct: decimal.NewFromFloat(cfg.NearMatchTolerance),
	}, log)
	matches := detector.FindDuplicates(transactions)
	printMatches(matches)

	if *autoResolveFlag && len(matches) > 0 {
		resolver := dedup.NewResolver(log)
		marked := resolver.AutoResolve(matches, 1.0)
		fmt.Printf("Auto-resolved %d duplicate(s)\n", marked)
	}

	accepted := catCtx.Apply(transactions)
	fmt.Printf("Categorized %d of %d transaction(s) automatically\n", accepted, len(transactions))

	if *outputFlag != "" {
		w := &writer.CSVWriter{IncludeHeader: true}
		var meta *models.ParseResult
		if len(batch.Results) == 1 {
			meta = batch.Results[0].Result
		}
		if err := w.WriteToFile(*outputFlag, meta, transactions); err != nil {
			fatalf("CSV write failed: %v\n", err)
		}
		fmt.Printf("Output: %s\n", *outputFlag)
	}
}

func buildCategorizer(cfg config.Config) (*categorizer.Context, error) {
	var table []categorizer.MappingEntry
	var err error
	if cfg.MerchantTablePath != "" {
		data, readErr := os.ReadFile(cfg.MerchantTablePath)
		if readErr != nil {
			return nil, readErr
		}
		table, err = categorizer.LoadTable(data)
	} else {
		table, err = categorizer.DefaultTable()
	}
	if err != nil {
		return nil, err
	}

	store := categorizer.NewCorrectionStore(cfg.CorrectionsPath)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return categorizer.NewContext(table, store, cfg.ConfidenceThreshold)
}

func collectTransactions(batch *importer.BatchResult) []*models.Transaction {
	var transactions []*models.Transaction
	for _, file := range batch.Results {
		statementID := uuid.New()
		accountKey := models.AccountKeyFor(file.Result.IssuerType, file.Result.AccountNumber)
		for _, raw := range file.Result.Transactions {
			txn := models.NewTransaction(statementID, accountKey, raw)
			transactions = append(transactions, &txn)
		}
	}
	return transactions
}

func printMatches(matches []models.DuplicateMatch) {
	if len(matches) == 0 {
		fmt.Println("No duplicates found")
		return
	}
	fmt.Printf("Found %d duplicate candidate(s):\n", len(matches))
	for _, m := range matches {
		fmt.Printf("  [%s %.2f] %s %s %s <-> %s %s %s\n",
			m.MatchType, m.Confidence,
			m.TransactionA.Date.Format("2006-01-02"), amountString(m.TransactionA.Amount), m.TransactionA.Description,
			m.TransactionB.Date.Format("2006-01-02"), amountString(m.TransactionB.Amount), m.TransactionB.Description)
		for _, reason := range m.Reasons {
			fmt.Printf("      %s\n", reason)
		}
	}
}

func amountString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
