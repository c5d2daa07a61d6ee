// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/pdiddy/literature-match/pkg/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, rounded bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// isTerminal reports whether w is an interactive terminal. Rounded box
// drawing is used only there; pipes get plain ASCII.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printStats(w io.Writer, stats types.Stats) {
	rows := make([][]string, 0, len(types.Statuses)+1)
	for _, s := range types.Statuses {
		rows = append(rows, []string{string(s), strconv.Itoa(stats.Count(s))})
	}
	rows = append(rows, []string{"total", strconv.Itoa(stats.Total)})
	fmt.Fprintln(w, renderTable([]string{"Status", "Refs"}, rows, []columnAlignment{alignLeft, alignRight}, isTerminal(w)))
}

func printRefs(w io.Writer, refs []types.ReferenceEntry) {
	if len(refs) == 0 {
		fmt.Fprintln(w, "No references.")
		return
	}
	var rows [][]string
	for _, r := range refs {
		rows = append(rows, []string{
			r.RefID,
			truncate(r.RawText, 60),
			string(r.Match.Status),
			string(r.Match.Method),
			types.Deref(r.Match.Citekey),
			strconv.FormatFloat(r.Match.Confidence, 'f', 2, 64),
		})
		for i, c := range r.Candidates {
			rows = append(rows, []string{
				"",
				fmt.Sprintf("  %d. %s", i+1, truncate(c.Title, 55)),
				"",
				"",
				c.Citekey,
				strconv.FormatFloat(c.Score, 'f', 3, 64),
			})
		}
	}
	headers := []string{"Ref", "Text / Candidate", "Status", "Method", "Citekey", "Score"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
	fmt.Fprintln(w, renderTable(headers, rows, aligns, isTerminal(w)))
}

func printRecords(w io.Writer, records []types.LibraryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	rows := make([][]string, 0, len(records))
	for i, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rec.Citekey,
			truncate(rec.Title, 60),
			rec.YearString(),
			truncate(strings.Join(rec.Authors, "; "), 30),
		})
	}
	headers := []string{"#", "Citekey", "Title", "Year", "Authors"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(w, renderTable(headers, rows, aligns, isTerminal(w)))
	fmt.Fprintf(w, "\n%d results\n", len(records))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
