// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-schedule/internal/convert"
	"github.com/pdiddy/exam-schedule/internal/export"
	"github.com/pdiddy/exam-schedule/internal/extract"
	"github.com/pdiddy/exam-schedule/internal/metrics"
	"github.com/pdiddy/exam-schedule/internal/pipeline"
	"github.com/pdiddy/exam-schedule/internal/secrets"
	"github.com/pdiddy/exam-schedule/internal/store"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

const schedulesDir = "schedules"

var extractCmd = &cobra.Command{
	Use:   "extract [handouts...]",
	Short: "Extract an exam schedule from handouts",
	Long: `Extract converts each handout to page text, classifies every page,
pulls dates and assessment details from the pages that contain them, and
reconciles the two into schedule entries with start and end times.

Inputs may be PDFs (converted with the configured backend) or text files,
whose pages are separated by form feeds. Use --text to pass handout text
directly. Each schedule is printed as a table and written to the output
directory; entries whose time could not be determined are flagged.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"ai.model":             "model",
			"ai.api_key":           "api-key",
			"ai.base_url":          "base-url",
			"pipeline.concurrency": "concurrency",
			"pipeline.skip_title":  "no-title",
			"conversion.backend":   "backend",
		})
	},
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("text", "", "handout text to process instead of files")
	extractCmd.Flags().String("id", "", "document ID for --text input (default: random)")
	extractCmd.Flags().String("out", "", "output file (single document) or directory (default: <work-dir>/schedules)")
	extractCmd.Flags().String("format", "", "output format: yaml, json, or xlsx (default: from --out extension, else yaml)")
	extractCmd.Flags().Bool("store", false, "save each schedule to the schedule database")
	extractCmd.Flags().Int("concurrency", 1, "pages processed in parallel")
	extractCmd.Flags().Bool("no-title", false, "skip the course title lookup")
	extractCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")
	extractCmd.Flags().String("model", "", "model identifier for the extraction service")
	extractCmd.Flags().String("api-key", "", "API key for the extraction service")
	extractCmd.Flags().String("base-url", "", "OpenAI-compatible API root")
	extractCmd.Flags().String("backend", "pdftotext", "conversion backend for PDFs: pdftotext, markitdown, or text")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	if len(args) == 0 && text == "" {
		return fmt.Errorf("provide one or more handout files or --text")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("no API key: use --api-key, ai.api_key in config, .secrets/%s, or OPENROUTER_API_KEY", secrets.KeyOpenRouter)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	docs, convErr := extractInputs(ctx, cmd, cfg, args)
	if len(docs) == 0 {
		return convErr
	}

	rec := metrics.New()
	ctrl := newController(cfg, rec)

	var db *store.Store
	if useStore, _ := cmd.Flags().GetBool("store"); useStore {
		db, err = store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	out, _ := cmd.Flags().GetString("out")
	formatFlag, _ := cmd.Flags().GetString("format")

	var failed int
	for _, doc := range docs {
		sched := ctrl.RunDocument(ctx, doc)
		printSchedule(os.Stdout, sched)

		path, format, err := outputTarget(out, formatFlag, cfg.Conversion.WorkDir, sched.DocumentID, len(docs))
		if err == nil {
			err = export.WriteFile(path, format, sched)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed:  %s (%v)\n", sched.DocumentID, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stderr, "written: %s\n", path)

		if db != nil {
			if _, err := db.Save(ctx, sched); err != nil {
				fmt.Fprintf(os.Stderr, "failed:  %s (store: %v)\n", sched.DocumentID, err)
				failed++
			}
		}
	}

	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := rec.WriteTextfile(path); err != nil {
			return err
		}
	}

	if convErr != nil {
		return convErr
	}
	if failed > 0 {
		return fmt.Errorf("%d schedule(s) could not be written", failed)
	}
	return nil
}

// extractInputs turns --text and file arguments into documents. Conversion
// failures are reported but do not stop the remaining inputs.
func extractInputs(ctx context.Context, cmd *cobra.Command, cfg types.Config, args []string) ([]types.Document, error) {
	var docs []types.Document

	if text, _ := cmd.Flags().GetString("text"); text != "" {
		id, _ := cmd.Flags().GetString("id")
		docs = append(docs, convert.NewDocument(id, "", convert.SplitPages(text)))
	}
	if len(args) == 0 {
		return docs, nil
	}

	conv, err := converterFor(ctx, cfg.Conversion.Backend, args)
	if err != nil {
		return docs, err
	}
	result := convert.ConvertPaths(ctx, conv, args, cfg.Conversion.WorkDir, os.Stderr)
	docs = append(docs, result.Documents...)
	if result.HasFailures() {
		return docs, fmt.Errorf("%d handout(s) failed conversion", result.Failed)
	}
	return docs, nil
}

// converterFor avoids starting a PDF backend when every input is text.
func converterFor(ctx context.Context, backend types.ConversionBackend, paths []string) (convert.Converter, error) {
	for _, p := range paths {
		if !convert.IsTextFile(p) {
			return convert.New(ctx, backend)
		}
	}
	return convert.TextFileConverter{}, nil
}

func newController(cfg types.Config, rec *metrics.Recorder) *pipeline.Controller {
	backend := extract.NewOpenRouterBackend(cfg.AI)
	opts := extract.Options{
		MaxRetries: cfg.AI.MaxRetries,
		Logger:     slog.Default(),
		Metrics:    rec,
	}

	ctrl := &pipeline.Controller{
		Gate:        extract.NewGate(backend, opts),
		Temporal:    extract.NewTemporalExtractor(backend, opts),
		Metadata:    extract.NewMetadataExtractor(backend, opts),
		Concurrency: cfg.Pipeline.Concurrency,
		Logger:      slog.Default(),
		Metrics:     rec,
	}
	if !cfg.Pipeline.SkipTitle {
		ctrl.Title = extract.NewTitleExtractor(backend, opts)
	}
	return ctrl
}

// outputTarget resolves where a schedule is written. A --out path with an
// extension names the file when there is a single document; otherwise --out
// is a directory.
func outputTarget(out, formatFlag, workDir, docID string, docCount int) (string, export.Format, error) {
	format := export.FormatYAML
	if formatFlag != "" {
		f, err := export.ParseFormat(formatFlag)
		if err != nil {
			return "", "", err
		}
		format = f
	}

	if out != "" && filepath.Ext(out) != "" && docCount == 1 {
		if formatFlag == "" {
			format = export.FormatForPath(out, format)
		}
		return out, format, nil
	}

	dir := out
	if dir == "" {
		dir = filepath.Join(workDir, schedulesDir)
	}
	return filepath.Join(dir, docID+format.Ext()), format, nil
}

// printSchedule writes a fixed-width table of entries followed by a review
// list for unresolved times.
func printSchedule(w io.Writer, sched types.Schedule) {
	title := sched.CourseTitle
	if title == "" {
		title = "(course title unknown)"
	}
	fmt.Fprintf(w, "\n%s: %s\n\n", sched.DocumentID, title)

	if len(sched.Entries) == 0 {
		fmt.Fprintln(w, "No schedule entries found.")
		return
	}

	fmt.Fprintf(w, "%-45s  %-19s  %-19s  %-14s  %s\n",
		"Subject", "Start", "End", "Format", "Weightage")
	fmt.Fprintln(w, strings.Repeat("-", 112))
	for _, e := range sched.Entries {
		fmt.Fprintf(w, "%-45s  %-19s  %-19s  %-14s  %s\n",
			clip(e.Subject, 45), e.Start, e.End, clip(e.Format, 14), e.Weightage)
	}

	unresolved := sched.Unresolved()
	fmt.Fprintf(w, "\n%d entries, %d unresolved\n", len(sched.Entries), len(unresolved))
	for _, e := range unresolved {
		fmt.Fprintf(w, "  review: %s (time as written: %q)\n", e.EventName, e.RawTimeString)
	}
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
