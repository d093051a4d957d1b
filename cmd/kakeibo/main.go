package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kadoya0703/kakeibo/internal/azuredi"
	"github.com/kadoya0703/kakeibo/internal/cloudsync"
	"github.com/kadoya0703/kakeibo/internal/config"
	"github.com/kadoya0703/kakeibo/internal/logger"
	"github.com/kadoya0703/kakeibo/internal/pipeline"
	"github.com/kadoya0703/kakeibo/internal/report"
	"github.com/kadoya0703/kakeibo/internal/store"
	"github.com/kadoya0703/kakeibo/internal/tagging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		runProcess()
	case "report":
		runReport()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Kakeibo - receipt ledger")
	fmt.Println("\nUsage:")
	fmt.Println("  kakeibo <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  process   Analyze, tag and record the receipt images in the input directory")
	fmt.Println("  report    Print monthly totals and write the AI monthly summaries")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'kakeibo <command> -h' for more information on a command.")
}

// setup loads config and builds the process logger; shared by both commands.
func setup(configPath string) (*config.Config, zerolog.Logger, io.Closer) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{ConsoleLevel: cfg.Log.ConsoleLevel}
	if cfg.Log.EnableFile {
		opts.FilePath = cfg.Log.FilePath
		opts.FileLevel = cfg.Log.FileLevel
	}
	log, closer, err := logger.NewWithOptions(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	return cfg, log, closer
}

func runProcess() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the JSON app config file")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall batch timeout")
	fs.Parse(os.Args[2:])

	cfg, log, closer := setup(*configPath)
	if closer != nil {
		defer closer.Close()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	ocr := azuredi.NewClient(cfg.AzureDIEndpoint, cfg.AzureDIKey)
	tagger, err := tagging.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tagging client")
	}

	st := store.New(cfg.CSVDir(), cfg.JSONDir())
	proc := pipeline.NewProcessor(
		ocr, tagger, st,
		cfg.InputDir(), cfg.ProcessedDir(), cfg.ErrorDir(),
		cfg.ReceiptImageExts,
	)

	// Pull cloud inbox objects into the input directory before scanning.
	var syncer *cloudsync.Syncer
	var imported map[string]string
	if cfg.CloudSync.Enabled {
		syncer, err = cloudsync.New(ctx,
			cfg.CloudSync.Bucket,
			cfg.CloudSync.InboxPrefix,
			cfg.CloudSync.ProcessedPrefix,
			cfg.CloudSync.ErrorPrefix,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create cloud sync client")
		}
		defer syncer.Close()

		imported, err = syncer.ImportInbox(ctx, cfg.InputDir())
		if err != nil {
			log.Error().Err(err).Msg("Cloud inbox import incomplete, processing what arrived")
		}
	}

	batch, err := proc.RunBatch(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Batch run failed")
	}

	// File each imported object to match its local outcome. An object whose
	// download was rejected at the scan stage has no outcome and counts as
	// an error.
	for path, object := range imported {
		var markErr error
		if batch.Outcomes[path] {
			markErr = syncer.MarkProcessed(ctx, object)
		} else {
			markErr = syncer.MarkError(ctx, object)
		}
		if markErr != nil {
			log.Error().Err(markErr).Str("object", object).Msg("Failed to relocate inbox object")
		}
	}

	fmt.Printf("Processed %d receipt(s), %d failed.\n", batch.Processed, batch.Failed)
	if batch.Failed > 0 {
		os.Exit(1)
	}
}

func runReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the JSON app config file")
	month := fs.String("month", "", "Restrict to one month (YYYY-MM); default is every recorded month")
	withSummary := fs.Bool("summary", true, "Also write the AI monthly summary files")
	fs.Parse(os.Args[2:])

	cfg, log, closer := setup(*configPath)
	if closer != nil {
		defer closer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st := store.New(cfg.CSVDir(), cfg.JSONDir())

	var periods []store.Period
	if *month != "" {
		p, err := parseMonth(*month)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -month value")
		}
		periods = []store.Period{p}
	} else {
		var err error
		periods, err = st.Periods()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to scan recorded months")
		}
	}
	if len(periods) == 0 {
		fmt.Println("No recorded months found.")
		return
	}

	var summarizer report.Summarizer
	if *withSummary {
		if cfg.GeminiAPIKey == "" {
			log.Fatal().Msg("GEMINI_API_KEY is required for -summary=true")
		}
		tagger, err := tagging.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create summary client")
		}
		summarizer = tagger
	}

	for _, p := range periods {
		printMonth(ctx, st, p)

		if summarizer == nil {
			continue
		}
		text, err := report.GenerateMonthlySummary(ctx, st, p, summarizer, cfg.SummaryDir())
		if err != nil {
			log.Error().Err(err).Str("period", p.String()).Msg("Failed to write monthly summary")
			continue
		}
		if text != "" {
			fmt.Printf("Summary written for %s.\n", p)
		}
	}
}

func printMonth(ctx context.Context, st *store.Store, p store.Period) {
	log := logger.FromContext(ctx)

	current, err := report.Aggregate(st, p)
	if err != nil {
		log.Error().Err(err).Str("period", p.String()).Msg("Failed to aggregate month")
		return
	}
	previous, err := report.Aggregate(st, p.Previous())
	if err != nil {
		log.Error().Err(err).Str("period", p.String()).Msg("Failed to aggregate previous month")
		previous = report.Totals{}
	}

	fmt.Printf("=== %s ===\n", p)
	lines := report.CurrentMonthLines(p, current)
	if len(lines) == 0 {
		fmt.Println("No spending recorded.")
		fmt.Println()
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Println("--- vs previous month ---")
	for _, line := range report.CompareLines(current, previous) {
		fmt.Println(line)
	}
	fmt.Println()
}

func parseMonth(s string) (store.Period, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) == 2 {
		var year, month int
		if _, err := fmt.Sscanf(s, "%d-%d", &year, &month); err == nil &&
			year >= 1 && month >= 1 && month <= 12 {
			return store.Period{Year: year, Month: month}, nil
		}
	}
	return store.Period{}, fmt.Errorf("expected YYYY-MM, got %q", s)
}
