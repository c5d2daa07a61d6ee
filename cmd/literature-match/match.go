// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/literature-match/internal/library"
	"github.com/pdiddy/literature-match/internal/refs"
	"github.com/pdiddy/literature-match/internal/report"
	"github.com/pdiddy/literature-match/internal/resolve"
	"github.com/pdiddy/literature-match/internal/store"
)

var matchCmd = &cobra.Command{
	Use:   "match REFS_FILE",
	Short: "Resolve a reference list against the library",
	Long: `Match reads a reference list (JSON or YAML), loads the library from the
Better BibTeX endpoint, a local export file, or the last synced snapshot,
and writes match_result.json.

Every reference ends in one of four states: matched, needs_llm,
needs_review, or unmatched. Nothing is written when the input or the
library cannot be read.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	refsPath := args[0]
	fromSnapshot, _ := cmd.Flags().GetBool("from-snapshot")
	output, _ := cmd.Flags().GetString("output")
	docPath, _ := cmd.Flags().GetString("doc-path")

	list, err := refs.LoadFile(refsPath)
	if err != nil {
		return err
	}

	idx, src, err := loadLibrary(cmd.Context(), fromSnapshot)
	if err != nil {
		return err
	}

	engine := resolve.New(idx, cfg.Match)
	resolved, resolveWarnings, err := engine.ResolveAll(cmd.Context(), list.Refs)
	if err != nil {
		return err
	}

	if docPath == "" {
		docPath = list.DocPath
	}
	warnings := make([]string, 0, len(list.Warnings)+len(idx.Warnings())+len(resolveWarnings))
	warnings = append(warnings, list.Warnings...)
	warnings = append(warnings, idx.Warnings()...)
	warnings = append(warnings, resolveWarnings...)

	rep := report.Aggregate(report.Run{
		DocPath:  docPath,
		Source:   src,
		Library:  idx,
		Refs:     resolved,
		Warnings: warnings,
	})

	if output == "" {
		output = filepath.Join(filepath.Dir(refsPath), report.DefaultFileName)
	}
	if err := report.Write(output, rep); err != nil {
		return err
	}

	zap.L().Info("match complete",
		zap.String("output", output),
		zap.Int("refs", rep.Stats.Total),
		zap.Int("matched", rep.Stats.Matched),
		zap.Int("needs_llm", rep.Stats.NeedsLLM),
		zap.Int("warnings", len(rep.Meta.Warnings)),
	)

	printStats(os.Stdout, rep.Stats)
	fmt.Printf("Wrote %s\n", output)
	return nil
}

// loadLibrary reads the configured library source, or the stored snapshot
// when fromSnapshot is set.
func loadLibrary(ctx context.Context, fromSnapshot bool) (*library.Index, library.Source, error) {
	if !fromSnapshot {
		return library.Load(ctx, cfg.Library)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, library.Source{}, err
	}
	defer st.Close()

	snap, err := st.LoadSnapshot(ctx)
	if err != nil {
		return nil, library.Source{}, err
	}
	idx, err := library.FromRecords(snap.Records, snap.TotalItems)
	if err != nil {
		return nil, library.Source{}, err
	}

	zap.L().Info("library loaded from snapshot",
		zap.String("store", st.Path()),
		zap.Int64("snapshot", snap.ID),
		zap.Time("taken_at", snap.TakenAt),
		zap.Int("records", idx.Len()),
	)
	return idx, library.Source{Location: st.Path()}, nil
}

func init() {
	f := matchCmd.Flags()
	f.StringP("output", "o", "", "report path (default: "+report.DefaultFileName+" next to REFS_FILE)")
	f.String("doc-path", "", "source document path recorded in the report (default: from REFS_FILE)")
	f.Bool("from-snapshot", false, "match against the last synced library snapshot")
	f.Int("top-k", 0, "candidates kept per reference")
	f.Float64("auto-match-threshold", 0, "minimum top score for a similarity match")
	f.Float64("auto-match-gap", 0, "minimum gap between the top two scores")
	f.Float64("needs-llm-threshold", 0, "candidate floor below which a reference needs review")
	f.Int("workers", 0, "parallel resolution workers")

	for key, flag := range map[string]string{
		"match.top_k":                "top-k",
		"match.auto_match_threshold": "auto-match-threshold",
		"match.auto_match_gap":       "auto-match-gap",
		"match.needs_llm_threshold":  "needs-llm-threshold",
		"match.workers":              "workers",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(matchCmd)
}
