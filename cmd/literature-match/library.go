// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/literature-match/internal/library"
	"github.com/pdiddy/literature-match/internal/store"
	"github.com/pdiddy/literature-match/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the local library snapshot (sync, search, history)",
	Long: `Library keeps a SQLite copy of the Zotero library so that matching can
run while Zotero is closed (match --from-snapshot) and titles can be
searched from the command line.`,
}

// --- sync subcommand ---

var librarySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the library and store it as the current snapshot",
	Long: `Sync reads the library from the Better BibTeX endpoint (or from
--library-cache), indexes it, and replaces the stored snapshot. Earlier
syncs stay listed in the sync history.`,
	Args: cobra.NoArgs,
	RunE: runLibrarySync,
}

func runLibrarySync(cmd *cobra.Command, args []string) error {
	idx, src, err := library.Load(cmd.Context(), cfg.Library)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.SaveSnapshot(cmd.Context(), src.Location, idx.TotalItems(), idx.Records())
	if err != nil {
		return err
	}

	for _, w := range idx.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Snapshot %d: %d of %d items from %s\n", id, idx.Len(), idx.TotalItems(), src.Location)
	fmt.Printf("Stored in %s\n", st.Path())
	return nil
}

// --- search subcommand ---

var librarySearchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Full-text search of snapshot titles",
	Long: `Search finds snapshot records whose titles contain every word of the
query. Case and diacritics are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLibrarySearch,
}

func runLibrarySearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	records := make([]types.LibraryRecord, 0, len(results))
	for _, r := range results {
		records = append(records, r.Record)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	printRecords(os.Stdout, records)
	return nil
}

// --- history subcommand ---

var libraryHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List past library syncs",
	Args:  cobra.NoArgs,
	RunE:  runLibraryHistory,
}

func runLibraryHistory(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	snaps, err := st.SnapshotHistory(cmd.Context())
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No syncs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.TakenAt.Format("2006-01-02 15:04:05Z"),
			strconv.Itoa(s.TotalItems),
			s.Source,
		})
	}
	headers := []string{"Snapshot", "Taken", "Items", "Source"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}
	fmt.Println(renderTable(headers, rows, aligns, isTerminal(os.Stdout)))
	return nil
}

func init() {
	librarySearchCmd.Flags().Int("limit", 20, "maximum results")
	librarySearchCmd.Flags().Bool("json", false, "output as JSON")

	libraryCmd.AddCommand(librarySyncCmd)
	libraryCmd.AddCommand(librarySearchCmd)
	libraryCmd.AddCommand(libraryHistoryCmd)
	rootCmd.AddCommand(libraryCmd)
}
