package ui

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"rdtagger/pkg/collections"
	"rdtagger/pkg/processor"
)

// RenderSummary writes the run statistics as a two-column table
func RenderSummary(w io.Writer, stats *processor.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Summary")

	t.AppendRows([]table.Row{
		{"Total items", stats.Total},
		{"Skipped (already tagged)", stats.Skipped},
		{"Successfully tagged", stats.Success},
		{"Errors", stats.Errors},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Collections", stats.Collections})
	t.AppendRow(table.Row{"Pages", stats.Pages})
	if stats.FetchErrors > 0 {
		t.AppendRow(table.Row{"Collections abandoned", stats.FetchErrors})
	}
	if stats.CappedCollections > 0 {
		t.AppendRow(table.Row{"Collections at page cap", stats.CappedCollections})
	}
	t.AppendRow(table.Row{"Duration", formatDuration(stats.Duration)})
	if stats.RunID != "" {
		t.AppendRow(table.Row{"Run ID", stats.RunID})
	}

	t.Render()
}

// RenderCollections writes the collection tree, children indented under
// their parents
func RenderCollections(w io.Writer, tree []*collections.Node) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Items"})

	collections.Walk(tree, func(n *collections.Node, depth int) {
		t.AppendRow(table.Row{n.ID, strings.Repeat("  ", depth) + n.Title, n.Count})
	})
	t.AppendFooter(table.Row{"", "Collections", collections.Size(tree)})

	t.Render()
}
