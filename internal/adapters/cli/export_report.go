package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/3-lines-studio/lander/internal/core"
)

type cliOutputWithColors interface {
	Green(text string) string
	Yellow(text string) string
	Red(text string) string
	Gray(text string) string
}

type ExportReport struct {
	colors     cliOutputWithColors
	out        io.Writer
	outputPath string
}

func NewExportReport(colors cliOutputWithColors, out io.Writer, outputPath string) *ExportReport {
	return &ExportReport{colors: colors, out: out, outputPath: outputPath}
}

func (r *ExportReport) Render(report core.ExportReport) {
	if len(report.Warnings) == 0 {
		r.renderMinimal(report)
	} else {
		r.renderVerbose(report)
	}
}

func (r *ExportReport) RenderJSON(report core.ExportReport) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (r *ExportReport) renderMinimal(report core.ExportReport) {
	fmt.Fprintf(r.out, "  "+r.colors.Green("✓ ")+"%d assets, %d files stored\n", report.AssetCount, report.StoredFiles)
	fmt.Fprintf(r.out, "  "+r.colors.Green("✓ ")+"Export complete in %s\n", formatDuration(time.Duration(report.DurationMS)*time.Millisecond))
	r.renderOutput(report)
}

func (r *ExportReport) renderVerbose(report core.ExportReport) {
	fmt.Fprintf(r.out, "  %d assets, %d failed, %d files stored\n", report.AssetCount, report.AssetFailures, report.StoredFiles)
	fmt.Fprintln(r.out)

	r.renderSize("project.json", report.JSONSize, true)
	r.renderSize("index.html", report.HTMLSize, report.DistGenerated)
	r.renderSize("styles.css", report.CSSSize, report.DistGenerated)
	if report.JSSize > 0 {
		r.renderSize("app.js", report.JSSize, true)
	}

	groups := groupWarnings(report.Warnings)
	for _, t := range []core.WarningType{core.WarningDist, core.WarningAsset, core.WarningOther} {
		items := groups[t]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintln(r.out)
		fmt.Fprintf(r.out, "  "+r.colors.Yellow("⚠ ")+"%s warnings (%d):\n", t, len(items))
		for _, line := range deduplicateStrings(items) {
			fmt.Fprintf(r.out, "      • %s\n", line)
		}
	}

	fmt.Fprintln(r.out)
	duration := formatDuration(time.Duration(report.DurationMS) * time.Millisecond)
	switch report.Outcome() {
	case "minimal":
		fmt.Fprintf(r.out, "  %s\n", r.colors.Red("Minimal archive written after "+duration))
	case "degraded":
		fmt.Fprintf(r.out, "  "+r.colors.Yellow("⚠ ")+"Export finished with warnings in %s\n", duration)
	default:
		fmt.Fprintf(r.out, "  "+r.colors.Green("✓ ")+"Export complete in %s\n", duration)
	}
	r.renderOutput(report)
}

func (r *ExportReport) renderSize(name string, size int, generated bool) {
	status := r.colors.Green("✓")
	if !generated {
		status = r.colors.Red("✗")
	}
	fmt.Fprintf(r.out, "  %s %-14s %s\n", status, name, formatBytes(size))
}

func (r *ExportReport) renderOutput(report core.ExportReport) {
	if r.outputPath != "" {
		fmt.Fprintf(r.out, "\n  %s\n", r.colors.Gray(fmt.Sprintf("Output: %s (%s)", r.outputPath, formatBytes(report.ArchiveSize))))
	}
}

func groupWarnings(warnings []core.ExportWarning) map[core.WarningType][]string {
	groups := make(map[core.WarningType][]string)
	for _, w := range warnings {
		line := w.Message
		if w.AssetID != "" {
			line += " (" + w.AssetID + ")"
		}
		if w.URL != "" {
			line += " " + w.URL
		}
		if w.Detail != "" {
			line += ": " + w.Detail
		}
		groups[w.Type] = append(groups[w.Type], line)
	}
	return groups
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.1fs", float64(d)/float64(time.Second))
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// deduplicateStrings collapses repeats, keeping first-seen order.
func deduplicateStrings(items []string) []string {
	if len(items) <= 1 {
		return items
	}

	counts := make(map[string]int)
	order := make([]string, 0, len(items))
	for _, item := range items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}

	result := make([]string, 0, len(order))
	for _, item := range order {
		if counts[item] > 1 {
			result = append(result, fmt.Sprintf("%s (%d occurrences)", item, counts[item]))
		} else {
			result = append(result, item)
		}
	}
	return result
}
