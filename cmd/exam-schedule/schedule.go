// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exam-schedule/internal/export"
	"github.com/pdiddy/exam-schedule/internal/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the schedule database (store, list, export)",
	Long: `Schedule manages a local SQLite database of reconciled schedules so
entries from several handouts can be listed and exported together.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Child hooks replace the root's, so run it explicitly.
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return bindFlags(cmd, map[string]string{
			"store.data_dir":    "data-dir",
			"store.max_results": "max-results",
		})
	},
}

// --- store subcommand ---

var scheduleStoreCmd = &cobra.Command{
	Use:   "store [schedule.yaml...]",
	Short: "Save schedule files written by extract into the database",
	Long: `Store reads schedule YAML files produced by extract and saves them in
the database, replacing any earlier copy of the same document. Files whose
generated_at is unchanged are skipped.`,
	RunE: runScheduleStore,
}

func runScheduleStore(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more schedule files")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	summary, err := db.Ingest(cmd.Context(), args, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d schedule(s) failed to store", summary.Failed)
	}
	return nil
}

// --- list subcommand ---

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored schedule entries",
	Long: `List prints stored entries ordered by start time. Filter by document,
subject or event substring, start date range, or unresolved time.`,
	RunE: runScheduleList,
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if docsOnly, _ := cmd.Flags().GetBool("documents"); docsOnly {
		ids, err := db.Documents(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	results, err := db.Query(cmd.Context(), queryOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatListOutput(results, jsonOutput)
}

func formatListOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No entries found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-45s  %-19s  %-19s  %s\n",
		"Document", "Subject", "Start", "End", "Weightage")
	fmt.Fprintln(os.Stdout, "--------------------------------------------------------------------------------------------------------------------")
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-20s  %-45s  %-19s  %-19s  %s\n",
			clip(r.DocumentID, 20), clip(r.Subject, 45), r.Start, r.End, r.Weightage)
	}

	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(results))
	return nil
}

// --- export subcommand ---

var scheduleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored entries to YAML, JSON, or XLSX",
	Long: `Export writes stored entries (or a filtered subset) to
<data-dir>/index/export.<format>. Supports the same filter flags as list.`,
	RunE: runScheduleExport,
}

func runScheduleExport(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	path, err := db.Export(cmd.Context(), queryOptsFromFlags(cmd), format)
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewStore(cfg.Store)
}

func queryOptsFromFlags(cmd *cobra.Command) store.QueryOptions {
	doc, _ := cmd.Flags().GetString("document")
	subject, _ := cmd.Flags().GetString("subject")
	event, _ := cmd.Flags().GetString("event")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	unresolved, _ := cmd.Flags().GetBool("unresolved")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		DocumentID: doc,
		Subject:    subject,
		Event:      event,
		From:       from,
		To:         to,
		Unresolved: unresolved,
		MaxResults: limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("document", "", "filter by document ID")
	cmd.Flags().String("subject", "", "filter by subject substring")
	cmd.Flags().String("event", "", "filter by event name substring")
	cmd.Flags().String("from", "", "earliest start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "latest start date (YYYY-MM-DD)")
	cmd.Flags().Bool("unresolved", false, "only entries whose time could not be determined")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	scheduleCmd.PersistentFlags().String("data-dir", "", "directory for the schedule database (default: schedule)")
	scheduleCmd.PersistentFlags().Int("max-results", 0, "default list limit (default 50)")

	addFilterFlags(scheduleListCmd)
	scheduleListCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	scheduleListCmd.Flags().Bool("json", false, "output results as JSON")
	scheduleListCmd.Flags().Bool("documents", false, "list stored document IDs instead of entries")

	addFilterFlags(scheduleExportCmd)
	scheduleExportCmd.Flags().String("format", "yaml", "export format: yaml, json, or xlsx")

	scheduleCmd.AddCommand(scheduleStoreCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleExportCmd)

	rootCmd.AddCommand(scheduleCmd)
}
