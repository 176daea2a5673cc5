package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

// barWidth is the number of cells in a share bar.
const barWidth = 10

// maxWarnings is the number of skipped directories listed before summarising.
const maxWarnings = 10

// PrettyFormatter formats output with colors and styling using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatTree(r))

	if r.Tree != nil {
		w.WriteString(f.formatFooter(r))
		w.WriteString("\n")
	}

	if len(r.Errors) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Errors))
	}

	return nil
}

// formatHeader builds the header box with scan metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	sourceLabel := LabelStyle.Render("Source:")
	sourceValue := ValueStyle.Render(r.Source)
	lines = append(lines, fmt.Sprintf("%s %s", sourceLabel, sourceValue))

	if r.Loaded {
		label := LabelStyle.Render("Loaded:")
		value := ValueStyle.Render(fmt.Sprintf("%s directories", humanize.Comma(r.Stats.DirsScanned)))
		lines = append(lines, fmt.Sprintf("%s %s", label, value))
	} else {
		label := LabelStyle.Render("Scanned:")
		value := ValueStyle.Render(fmt.Sprintf("%s files, %s directories in %s",
			humanize.Comma(r.Stats.FilesScanned),
			humanize.Comma(r.Stats.DirsScanned),
			formatDuration(r.Duration.Seconds())))
		lines = append(lines, fmt.Sprintf("%s %s", label, value))
	}

	if r.Truncated {
		lines = append(lines, WarningStyle.Bold(true).Render("Scan cancelled, sizes are partial"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatTree builds the indented directory table.
func (f *PrettyFormatter) formatTree(r *Result) string {
	rows := r.Rows()
	if len(rows) == 0 {
		return MutedStyle.Render("  No tree to display") + "\n"
	}

	var sb strings.Builder

	sizes := make([]string, len(rows))
	sizeWidth := len("SIZE")
	for i, row := range rows {
		sizes[i] = types.FormatSize(row.Size)
		if len(sizes[i]) > sizeWidth {
			sizeWidth = len(sizes[i])
		}
	}

	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		TableHeaderStyle.Render(padLeft("SIZE", sizeWidth)),
		TableHeaderStyle.Render(padRight("SHARE", barWidth+7)),
		TableHeaderStyle.Render("PATH")))

	for i, row := range rows {
		name := displayName(row)
		style := PathStyle
		switch {
		case row.Depth == 0:
			style = RootStyle
		case row.Truncated:
			style = WarningStyle
		}

		sb.WriteString(fmt.Sprintf("  %s  %s %s  %s%s\n",
			SizeStyle.Render(padLeft(sizes[i], sizeWidth)),
			renderBar(row.Share),
			MutedStyle.Render(fmt.Sprintf("%5.1f%%", row.Share*100)),
			strings.Repeat("  ", row.Depth),
			style.Render(name)))
	}

	return sb.String()
}

// renderBar draws share as a fixed-width bar.
func renderBar(share float64) string {
	filled := int(share*barWidth + 0.5)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return BarStyle.Render(strings.Repeat("█", filled)) + MutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	totalLabel := LabelStyle.Render("Total:")
	totalValue := SizeStyle.Render(types.FormatSize(r.Tree.Size))
	parts = append(parts, fmt.Sprintf("%s %s", totalLabel, totalValue))

	filesLabel := LabelStyle.Render("Files:")
	filesValue := ValueStyle.Render(r.Stats.FilesString())
	parts = append(parts, fmt.Sprintf("%s %s", filesLabel, filesValue))

	if len(r.Errors) > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d skipped", len(r.Errors))))
	}

	parts = append(parts, MutedStyle.Render("Use -o plain for unformatted output"))

	return FooterBox.Render(strings.Join(parts, "  "))
}

// formatWarnings lists skipped directories.
func (f *PrettyFormatter) formatWarnings(errs []types.ScanError) string {
	var sb strings.Builder

	sb.WriteString(WarningStyle.Bold(true).Render("Skipped:"))
	sb.WriteString("\n")

	for i, e := range errs {
		if i == maxWarnings {
			sb.WriteString(MutedStyle.Render(fmt.Sprintf("  ... and %d more", len(errs)-maxWarnings)))
			sb.WriteString("\n")
			break
		}
		sb.WriteString(WarningStyle.Render("  " + e.Path + ": " + e.Error))
		sb.WriteString("\n")
	}

	return sb.String()
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats seconds in a human-friendly way.
func formatDuration(sec float64) string {
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
