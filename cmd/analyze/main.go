// Command analyze runs the financial analysis on a workbook from disk and
// prints the snapshot as text, JSON or CSV.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"storagefin/internal/analysis"
	"storagefin/internal/config"
	"storagefin/internal/exporter"
	"storagefin/internal/infrastructure"
	"storagefin/internal/narrative"
	"storagefin/internal/services"
	"storagefin/internal/validation"
	"storagefin/internal/workbook"
	"storagefin/pkg/contracts/domain"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	file       string
	configFile string
	format     string
	out        string
	narrative  bool
	logLevel   string
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read .env file", slog.String("error", err.Error()))
	}
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.file, "file", "", "workbook to analyze (.xlsx or .xls)")
	fs.StringVar(&opts.configFile, "config", "", "optional YAML config file")
	fs.StringVar(&opts.format, "format", "text", "output format: text, json or csv")
	fs.StringVar(&opts.out, "out", "", "write CSV to this file (with a UTF-8 BOM for Excel) instead of stdout")
	fs.BoolVar(&opts.narrative, "narrative", false, "generate narrative with the configured provider")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.file == "" && fs.NArg() == 1 {
		opts.file = fs.Arg(0)
	}
	if opts.file == "" {
		return nil, errors.New("a workbook path is required (-file)")
	}
	switch opts.format {
	case "text", "json", "csv":
	default:
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.out != "" && opts.format != "csv" {
		return nil, errors.New("-out requires -format csv")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "analyze:", err)
		}
		return exitUsage
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.NewLogger(stderr, opts.logLevel)

	cfg, err := config.LoadFrom(opts.configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		return exitError
	}

	validator := validation.NewFileValidator(cfg.Upload.MaxBytes, logger)
	if err := validator.ValidateWorkbookFile(opts.file); err != nil {
		fmt.Fprintln(stderr, "analyze:", err)
		return exitError
	}

	var narrator *narrative.Narrator
	if opts.narrative {
		narrator, err = narrative.New(ctx, cfg.Narrative, logger)
		if err != nil {
			logger.Error("Failed to configure narrative provider", slog.String("error", err.Error()))
			return exitError
		}
	}

	svc := services.NewAnalysisService(
		workbook.NewLoader(workbook.LayoutFrom(cfg.Workbook), logger),
		analysis.NewExtractor(cfg.Workbook, cfg.Extraction, logger),
		narrator, nil, logger,
	)

	f, err := os.Open(opts.file)
	if err != nil {
		fmt.Fprintln(stderr, "analyze:", err)
		return exitError
	}
	defer f.Close()

	report, err := svc.Analyze(ctx, services.Upload{
		FileName:      filepath.Base(opts.file),
		Body:          f,
		Source:        "cli",
		SkipNarrative: !opts.narrative,
	})
	if err != nil {
		fmt.Fprintln(stderr, "analyze:", err)
		return exitError
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case "csv":
		csvWriter := exporter.NewCSVWriter(logger)
		if opts.out != "" {
			err = csvWriter.WriteFile(opts.out, &report.Snapshot, exporter.WriteOptions{BOMPrefix: true})
		} else {
			err = csvWriter.Write(stdout, &report.Snapshot, exporter.WriteOptions{})
		}
	default:
		err = writeText(stdout, report)
	}
	if err != nil {
		fmt.Fprintln(stderr, "analyze:", err)
		return exitError
	}
	return exitOK
}

func writeText(w io.Writer, report *domain.AnalysisReport) error {
	s := report.Snapshot
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", report.FileName)
	if len(s.Months) > 0 {
		fmt.Fprintf(&b, "Months: %s to %s\n", s.Months[0], s.Months[len(s.Months)-1])
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-28s %s\n", "Current Rental Income", analysis.FormatCurrency(s.RentalIncome))
	fmt.Fprintf(&b, "  %-28s %s\n", "Occupancy", analysis.FormatPercent(s.Occupancy))
	fmt.Fprintf(&b, "  %-28s %s\n", "DSCR", analysis.FormatRatio(s.DSCR))
	fmt.Fprintf(&b, "  %-28s %s\n", "Cash Reserves", analysis.FormatCurrency(s.CashReserves))
	if s.BreakEvenReached() {
		fmt.Fprintf(&b, "  %-28s %d\n", "Months to Positive DSCR", *s.MonthsToPositiveDSCR)
	} else {
		fmt.Fprintf(&b, "  %-28s %s\n", "Months to Positive DSCR", "Not within range")
	}
	fmt.Fprintf(&b, "  %-28s %s\n", "Deficit Before Break-even", analysis.FormatCurrency(s.CumulativeDeficit))
	fmt.Fprintf(&b, "  %-28s %s\n", "Funding Gap", analysis.FormatCurrency(s.FundingGap))
	if s.InterestFallbackUsed {
		b.WriteString("\nInterest expense row not found; the configured fallback was used.\n")
	}

	if n := report.Narrative; n != nil {
		b.WriteString("\n")
		if n.Available() {
			b.WriteString(narrative.CleanMarkdown(n.Text))
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "Narrative unavailable: %s\n", n.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
