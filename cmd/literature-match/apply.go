// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/literature-match/internal/decide"
	"github.com/pdiddy/literature-match/internal/report"
	"github.com/pdiddy/literature-match/internal/store"
)

var applyCmd = &cobra.Command{
	Use:   "apply-decisions REPORT DECISIONS",
	Short: "Merge external adjudications into a match report",
	Long: `Apply-decisions reads a match report and a decisions file (JSON or
YAML) and updates every needs_llm reference named by a decision. A
decision picks one of the reference's candidates or rejects them all
(citekey null). Decisions for references in any other state, for unknown
references, or naming a citekey outside the candidates are reported and
leave the reference unchanged.

The report is rewritten in place unless --output is given. Each decision
and its outcome is appended to the audit log in the snapshot database.`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	reportPath, decisionsPath := args[0], args[1]
	output, _ := cmd.Flags().GetString("output")
	noAudit, _ := cmd.Flags().GetBool("no-audit")
	if output == "" {
		output = reportPath
	}

	unlock, err := lockReports(reportPath, output)
	if err != nil {
		return err
	}
	defer unlock()

	rep, err := report.Read(reportPath)
	if err != nil {
		return err
	}
	decisions, err := decide.LoadFile(decisionsPath)
	if err != nil {
		return err
	}

	merged, result := decide.Apply(rep, decisions)
	if err := report.Write(output, merged); err != nil {
		return err
	}

	if !noAudit {
		if err := auditDecisions(cmd, output, result); err != nil {
			zap.L().Warn("decision audit not recorded", zap.Error(err))
		}
	}

	fmt.Printf("Decisions: %d applied, %d unchanged, %d rejected, %d skipped\n",
		result.Count(decide.OutcomeApplied),
		result.Count(decide.OutcomeUnchanged),
		result.Count(decide.OutcomeRejected),
		result.Count(decide.OutcomeSkipped),
	)
	for _, w := range result.Warnings {
		fmt.Printf("  %s\n", w)
	}
	printStats(os.Stdout, merged.Stats)
	fmt.Printf("Wrote %s\n", output)
	return nil
}

// lockReports locks the source report and, when it differs, the output, so
// merges reading or writing either file are serialized.
func lockReports(reportPath, output string) (func(), error) {
	unlockSource, err := report.Lock(reportPath)
	if err != nil {
		return nil, err
	}
	if filepath.Clean(output) == filepath.Clean(reportPath) {
		return unlockSource, nil
	}
	unlockOutput, err := report.Lock(output)
	if err != nil {
		unlockSource()
		return nil, err
	}
	return func() {
		unlockOutput()
		unlockSource()
	}, nil
}

func auditDecisions(cmd *cobra.Command, reportPath string, result decide.Result) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now().UTC()
	entries := make([]store.DecisionEntry, 0, len(result.Records))
	for _, rec := range result.Records {
		entries = append(entries, store.DecisionEntry{
			RecordedAt: now,
			ReportPath: reportPath,
			RefID:      rec.Decision.RefID,
			Citekey:    rec.Decision.Citekey,
			Source:     string(rec.Decision.Source),
			Confidence: rec.Decision.Confidence,
			Reason:     rec.Decision.Reason,
			Outcome:    string(rec.Outcome),
			Message:    rec.Message,
		})
	}
	return st.RecordDecisions(cmd.Context(), entries)
}

func init() {
	applyCmd.Flags().StringP("output", "o", "", "write the merged report here instead of in place")
	applyCmd.Flags().Bool("no-audit", false, "do not record decisions in the snapshot database")

	rootCmd.AddCommand(applyCmd)
}
