// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/profile-engine/internal/merge"
	"github.com/jonathan/profile-engine/internal/profile"
	"github.com/jonathan/profile-engine/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of a profile.
func (p *Printer) PrintProfile(prof *types.Profile) {
	if prof == nil {
		return
	}

	var sb strings.Builder

	if name := prof.PersonalInfo["full_name"]; name != "" {
		sb.WriteString(fmt.Sprintf("Name:       %s\n", name))
	}
	if email := prof.PersonalInfo["email"]; email != "" {
		sb.WriteString(fmt.Sprintf("Email:      %s\n", email))
	}
	sb.WriteString(fmt.Sprintf("Experience: %d entries\n", len(prof.Experience)))
	sb.WriteString(fmt.Sprintf("Education:  %d entries\n", len(prof.Education)))

	if len(prof.Skills) > 0 {
		skills := strings.Join(prof.Skills, ", ")
		if len(skills) > 40 {
			skills = skills[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("Skills:     %s\n", skills))
	}
	if prof.SelectedTemplate != "" {
		sb.WriteString(fmt.Sprintf("Template:   %s\n", prof.SelectedTemplate))
	}
	sb.WriteString(fmt.Sprintf("Complete:   %d%% (v%d)", profile.CompletionPercentage(prof), prof.Version))

	p.printBox("PROFILE", sb.String())
}

// PrintMergeWarnings outputs fragments skipped during a merge.
func (p *Printer) PrintMergeWarnings(warnings []merge.Warning) {
	if len(warnings) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d fragment(s) skipped:\n\n", len(warnings)))

	count := min(len(warnings), maxItemsToShow)
	for i := 0; i < count; i++ {
		w := warnings[i]
		sb.WriteString(fmt.Sprintf("  #%d [%s]\n", w.Fragment, w.Kind))
		msg := w.Message
		if len(msg) > 48 {
			msg = msg[:45] + "..."
		}
		sb.WriteString(fmt.Sprintf("    %s\n", msg))
	}
	if len(warnings) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(warnings)-maxItemsToShow))
	}

	p.printBox("MERGE WARNINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCheckpoint outputs the stage history of a workflow checkpoint.
func (p *Printer) PrintCheckpoint(cp *types.WorkflowCheckpoint) {
	if cp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Workflow: %s\n", cp.WorkflowID))
	if cp.LastCompletedStage != "" {
		sb.WriteString(fmt.Sprintf("Last completed stage: %s\n", cp.LastCompletedStage))
	}

	if len(cp.Timings) > 0 {
		sb.WriteString("\nStages:\n")
		for _, t := range cp.Timings {
			marker := "✓"
			if t.Status == types.StageStatusError {
				marker = "✗"
			}
			sb.WriteString(fmt.Sprintf("  %s %-16s %6dms\n", marker, t.Stage, t.DurationMs))
		}
	}

	if len(cp.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range cp.Errors {
			if len(e) > 48 {
				e = e[:45] + "..."
			}
			sb.WriteString(fmt.Sprintf("  %s\n", e))
		}
	}

	p.printBox("WORKFLOW CHECKPOINT", strings.TrimSuffix(sb.String(), "\n"))
}
