package ui

import (
	"fmt"
	"strings"

	"github.com/confset/confset/pkg/diff"
	"github.com/confset/confset/pkg/repository"
	"github.com/confset/confset/pkg/transaction"
)

// RenderList formats the catalog listing, marking the active set.
func RenderList(names []string, active string) string {
	if len(names) == 0 {
		return styleMuted.Render("no config sets") + "\n"
	}

	var b strings.Builder
	for _, name := range names {
		if name == active {
			b.WriteString(styleActive.Render("* " + name))
		} else {
			b.WriteString("  " + styleName.Render(name))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderInfo formats a config set summary.
func RenderInfo(info *repository.Info) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(info.Name))
	if info.Active {
		b.WriteString(" " + styleActive.Render("(active)"))
	}
	b.WriteString("\n")

	if info.Meta != nil {
		if info.Meta.Description != "" {
			b.WriteString(info.Meta.Description + "\n")
		}
		b.WriteString(styleMuted.Render(fmt.Sprintf("version %s, created %s",
			info.Meta.Version, info.Meta.CreatedAt.Format("2006-01-02"))) + "\n")
		if info.Meta.CreatedFrom != "" {
			b.WriteString(styleMuted.Render("from "+info.Meta.CreatedFrom) + "\n")
		}
	}

	b.WriteString(fmt.Sprintf("%d managed paths, %s\n", info.FileCount, humanSize(info.SizeBytes)))
	for _, entry := range info.Entries {
		line := "  " + entry.Path
		if entry.Description != "" {
			line += "  " + styleMuted.Render(entry.Description)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// RenderDiff formats a snapshot comparison.
func RenderDiff(entries []diff.Entry) string {
	if len(entries) == 0 {
		return styleMuted.Render("no differences") + "\n"
	}

	var b strings.Builder
	for _, e := range entries {
		switch e.Status {
		case diff.StatusAddedInB:
			b.WriteString(styleAdded.Render("+ "+e.Path) + "\n")
		case diff.StatusRemovedInB:
			b.WriteString(styleRemoved.Render("- "+e.Path) + "\n")
		case diff.StatusModifiedContent:
			b.WriteString(styleModified.Render("~ "+e.Path) + "\n")
		case diff.StatusModifiedType:
			b.WriteString(styleModified.Render("! "+e.Path) + styleMuted.Render("  (type changed)") + "\n")
		default:
			b.WriteString(styleMuted.Render("= "+e.Path) + "\n")
		}
	}
	return b.String()
}

// RenderResult formats a transaction outcome: planned effects,
// validation issues, and residual risks for dry-run.
func RenderResult(res *transaction.Result) string {
	var b strings.Builder
	if res.DryRun {
		b.WriteString(styleDryRun.Render("dry-run: no changes made") + "\n")
	}

	for _, e := range res.Effects {
		line := fmt.Sprintf("  %-14s %s", e.Kind, e.Path)
		if e.Detail != "" {
			line += "  " + styleMuted.Render(e.Detail)
		}
		b.WriteString(line + "\n")
	}
	if len(res.Effects) == 0 && len(res.Issues) == 0 {
		b.WriteString(styleMuted.Render("nothing to do") + "\n")
	}

	for _, issue := range res.Issues {
		b.WriteString(styleIssue.Render(fmt.Sprintf("  %s: %s", issue.Code, issue.Message)) + "\n")
	}
	if res.DryRun {
		for _, risk := range res.Risks {
			b.WriteString(styleRisk.Render("  risk: "+risk) + "\n")
		}
	}
	return b.String()
}

// RenderReport formats a verification report.
func RenderReport(report *repository.Report) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(report.Name))
	if report.Active {
		b.WriteString(" " + styleActive.Render("(active)"))
	}
	b.WriteString("\n")

	if report.OK() {
		b.WriteString(styleAdded.Render("ok") + "\n")
		return b.String()
	}
	for _, p := range report.Problems {
		if p.Path != "" {
			b.WriteString(styleIssue.Render(fmt.Sprintf("  %s: %s: %s", p.Code, p.Path, p.Message)) + "\n")
		} else {
			b.WriteString(styleIssue.Render(fmt.Sprintf("  %s: %s", p.Code, p.Message)) + "\n")
		}
	}
	return b.String()
}

// humanSize renders a byte count in the largest sensible unit.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
