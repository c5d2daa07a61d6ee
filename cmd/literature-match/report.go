// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-match/internal/report"
	"github.com/pdiddy/literature-match/internal/store"
	"github.com/pdiddy/literature-match/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect match reports (show, export, history)",
}

// --- show subcommand ---

var reportShowCmd = &cobra.Command{
	Use:   "show REPORT",
	Short: "Summarize a match report",
	Long: `Show prints the status counts and warnings of a report. With --status
it also lists the references in that state with their candidates.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportShow,
}

func runReportShow(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")

	rep, err := report.Read(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run %s  %s\n", rep.Meta.RunID, rep.Meta.GeneratedAt)
	if rep.Meta.DocPath != "" {
		fmt.Printf("Document: %s\n", rep.Meta.DocPath)
	}
	fmt.Printf("Library: %s (%d of %d items)\n",
		rep.Meta.Source, rep.Meta.LibraryItemCount, rep.Meta.LibraryTotalItemCount)
	printStats(os.Stdout, rep.Stats)

	if len(rep.Meta.Warnings) > 0 {
		fmt.Printf("\n%d warnings:\n", len(rep.Meta.Warnings))
		for _, w := range rep.Meta.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}

	if status == "" {
		return nil
	}
	st, err := parseStatus(status)
	if err != nil {
		return err
	}
	fmt.Println()
	printRefs(os.Stdout, report.Filter(rep, st))
	return nil
}

// --- export subcommand ---

var reportExportCmd = &cobra.Command{
	Use:   "export REPORT",
	Short: "Export a match report as YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportExport,
}

func runReportExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	status, _ := cmd.Flags().GetString("status")

	rep, err := report.Read(args[0])
	if err != nil {
		return err
	}
	if status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return err
		}
		rep = report.Build(rep.Meta, report.Filter(rep, st))
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = report.ExportYAML(w, rep)
	case "json":
		err = report.Encode(w, rep)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

// --- history subcommand ---

var reportHistoryCmd = &cobra.Command{
	Use:   "history [REF_ID]",
	Short: "Show the decision audit log",
	Long: `History lists every decision recorded by apply-decisions, oldest first.
Give a REF_ID to see the decisions for one reference.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReportHistory,
}

func runReportHistory(cmd *cobra.Command, args []string) error {
	refID := ""
	if len(args) == 1 {
		refID = args[0]
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.History(cmd.Context(), refID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No decisions recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		citekey := types.Deref(e.Citekey)
		if e.Citekey == nil {
			citekey = "(none)"
		}
		confidence := ""
		if e.Confidence != nil {
			confidence = strconv.FormatFloat(*e.Confidence, 'f', 2, 64)
		}
		rows = append(rows, []string{
			e.RecordedAt.Format("2006-01-02 15:04:05Z"),
			e.RefID,
			citekey,
			e.Source,
			confidence,
			e.Outcome,
			truncate(e.Reason, 40),
		})
	}
	headers := []string{"Recorded", "Ref", "Citekey", "Source", "Conf", "Outcome", "Reason"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
	fmt.Println(renderTable(headers, rows, aligns, isTerminal(os.Stdout)))
	return nil
}

func parseStatus(s string) (types.Status, error) {
	st := types.Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q: use matched, needs_llm, needs_review or unmatched", s)
	}
	return st, nil
}

func init() {
	reportShowCmd.Flags().String("status", "", "list references in this status")

	reportExportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	reportExportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	reportExportCmd.Flags().String("status", "", "export only references in this status")

	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportExportCmd)
	reportCmd.AddCommand(reportHistoryCmd)
	rootCmd.AddCommand(reportCmd)
}
