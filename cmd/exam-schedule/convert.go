package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-schedule/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [handouts...]",
	Short: "Convert handout PDFs to page text",
	Long: `Convert extracts page text from handout PDFs and caches it under
<work-dir>/text/ with pages separated by form feeds. Supports pdftotext
(poppler) and markitdown (container-based) backends. Cached handouts are
skipped.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"conversion.backend": "backend"})
	},
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("backend", "pdftotext", "conversion backend: pdftotext, markitdown, or text")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more handout files")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conv, err := converterFor(cmd.Context(), cfg.Conversion.Backend, args)
	if err != nil {
		return err
	}

	result := convert.ConvertPaths(cmd.Context(), conv, args, cfg.Conversion.WorkDir, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d handout(s) failed conversion", result.Failed)
	}
	return nil
}
