package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/statement-extractor/internal/classify"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/statement"
	"github.com/insightdelivered/statement-extractor/internal/writer"
)

const version = "2.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "statement-extractor",
		Short: "Extract transactions from bank statement PDFs by page geometry",
		Long: `Reads bank statement PDFs, locates the transaction table on every page
from its header and column layout, and writes one record per dated row
with its amount classified as a charge or a deposit.`,
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newExtractCommand(), newServeCommand())
	return rootCmd
}

type extractFlags struct {
	pages    string
	bank     string
	output   string
	format   string
	header   bool
	config   string
	rules    string
	classify bool
	verbose  bool
}

func newExtractCommand() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract <input.pdf> [input2.pdf ...]",
		Short: "Extract transactions to CSV or JSON",
		Example: `  # Extract to statement.csv next to the input
  statement-extractor extract statement.pdf

  # Only pages 2 to 4, JSON with diagnostics
  statement-extractor extract --pages 2-4 --format json statement.pdf

  # Several files into one directory, with categories
  statement-extractor extract --classify --output out/ jan.pdf feb.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.pages, "pages", "", `pages to process, e.g. "1,3-5" (default all)`)
	fl.StringVar(&f.bank, "bank", "", "bank family override (auto-detected if omitted)")
	fl.StringVarP(&f.output, "output", "o", "", "output file, or directory when several inputs are given")
	fl.StringVar(&f.format, "format", "csv", "output format: csv or json")
	fl.BoolVar(&f.header, "header", true, "include account metadata rows in CSV")
	fl.StringVar(&f.config, "config", "", "heuristics YAML file")
	fl.StringVar(&f.rules, "rules", "", "category rules YAML file (implies --classify)")
	fl.BoolVar(&f.classify, "classify", false, "label transactions with keyword categories")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log engine decisions to stderr")
	return cmd
}

func runExtract(cmd *cobra.Command, inputs []string, f extractFlags) error {
	logging.SetLogger(logging.NewText(cmd.ErrOrStderr(), f.verbose))

	format := strings.ToLower(f.format)
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown format %q: use csv or json", f.format)
	}
	f.format = format
	pages, err := statement.ParsePageRange(f.pages)
	if err != nil {
		return err
	}
	h, err := config.LoadHeuristics(f.config)
	if err != nil {
		return err
	}
	runner, err := newRunner(f.classify || f.rules != "", f.rules, classify.Options{})
	if err != nil {
		return err
	}

	engine := statement.NewEngine(h)
	out := cmd.OutOrStdout()
	failed := 0
	for _, input := range inputs {
		dest := outputPath(input, f.output, format, len(inputs) > 1)
		n, err := processFile(cmd.Context(), engine, runner, input, dest, pages, f)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "Error processing %s: %v\n", input, err)
			continue
		}
		fmt.Fprintf(out, "%s: %d transaction(s) -> %s\n", input, n, dest)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(inputs))
	}
	return nil
}

func processFile(ctx context.Context, engine *statement.Engine, runner *classify.Runner, input, dest string, pages []int, f extractFlags) (int, error) {
	doc, err := extractor.ReadDocument(input)
	if err != nil {
		return 0, err
	}

	info, err := engine.Extract(doc, statement.Options{
		Pages:      pages,
		Bank:       f.bank,
		DocumentID: filepath.Base(input),
	})
	if err != nil {
		return 0, err
	}

	var labels []models.LabeledRecord
	if runner != nil {
		res := runner.Run(ctx, info.Bank, info.Transactions)
		labels = res.Records
		for _, a := range res.Alerts {
			info.Diagnostics.Alert(a)
		}
	}
	for _, a := range info.Diagnostics.Alerts {
		logging.Logger().Warn(a, slog.String("file", input))
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if f.format == "json" {
		err = (&writer.JSONWriter{Indent: true}).WriteToFile(dest, info, labels)
	} else {
		err = (&writer.CSVWriter{IncludeHeader: f.header}).WriteToFile(dest, info, labels)
	}
	if err != nil {
		return 0, err
	}
	return len(info.Transactions), nil
}

// outputPath derives the destination for one input. With several inputs a
// non-empty output names a directory.
func outputPath(input, output, format string, multi bool) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + "." + format
	switch {
	case output == "":
		return filepath.Join(filepath.Dir(input), name)
	case multi || strings.HasSuffix(output, string(os.PathSeparator)):
		return filepath.Join(output, name)
	}
	return output
}

// newRunner builds the keyword classification runner, or nil when
// classification is off.
func newRunner(enabled bool, rulesPath string, opts classify.Options) (*classify.Runner, error) {
	if !enabled {
		return nil, nil
	}
	rules := classify.DefaultRules()
	if rulesPath != "" {
		loaded, err := classify.LoadRules(rulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return classify.NewRunner(classify.NewRuleClassifier(rules).Classify, opts), nil
}
