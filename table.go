package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderSummary formats the end-of-build table.
func renderSummary(r *buildReport) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Build %s: %s", r.RunID, r.Status)
	tw.AppendHeader(table.Row{"Stage", "Item", "Count"})

	count := func(n int) string { return humanize.Comma(int64(n)) }

	tw.AppendRows([]table.Row{
		{"Walk", "Folders visited", count(r.Walk.FoldersVisited)},
		{"Walk", "Pages rendered", count(r.Walk.FoldersRendered)},
		{"Walk", "Pages removed", count(r.Walk.FoldersSuppressed)},
		{"Walk", "Folders excluded", count(r.Walk.FoldersExcluded)},
		{"Walk", "Images (cached)", count(r.Walk.ImagesCached)},
		{"Walk", "Images (inspected)", count(r.Walk.ImagesInspected)},
		{"Walk", "Sidecars refreshed", count(r.Walk.SidecarsRefreshed)},
		{"Walk", "Unreadable images", count(r.Walk.UnreadableImages)},
		{"Walk", "Cache entries evicted", count(r.Walk.EntriesEvicted)},
		{"Walk", "Distinct tags", count(r.Tags)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Thumbnails", "Scheduled", count(r.Jobs)},
		{"Thumbnails", "Rendered", count(r.Thumbnails.Succeeded)},
		{"Thumbnails", "Failed", count(r.Thumbnails.Failed)},
		{"Thumbnails", "Not started", count(r.Thumbnails.Skipped)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Time", "Walk", duration(r.WalkTime)},
		{"Time", "Thumbnails", duration(r.ThumbTime)},
		{"Time", "Total", duration(r.Total)},
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func duration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
