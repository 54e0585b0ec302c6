package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-schedule/internal/acquire"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [urls...]",
	Short: "Download handout PDFs",
	Long: `Fetch downloads handout PDFs into <work-dir>/raw/ and writes a metadata
record for each under <work-dir>/metadata/. Responses that are not PDFs are
rejected. Handouts already downloaded are skipped.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"fetch.timeout":    "timeout",
			"fetch.user_agent": "user-agent",
		})
	},
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	fetchCmd.Flags().String("user-agent", "", "User-Agent header for downloads")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more handout URLs")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := &http.Client{
		Timeout: cfg.Fetch.Timeout,
	}

	result := acquire.FetchBatch(cmd.Context(), client, args, cfg.Fetch, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d handout(s) failed download", result.Failed)
	}
	return nil
}
