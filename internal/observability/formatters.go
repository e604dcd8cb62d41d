// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/pipeline"
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

// PrintFrameworkOptions outputs the generated framework options with their
// fit scores and the chosen one marked.
func (p *Printer) PrintFrameworkOptions(options []content.FrameworkOption, chosen string) {
	if len(options) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(options), maxItemsToShow)
	for i := 0; i < count; i++ {
		option := options[i]
		marker := " "
		if option.Name == chosen {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %s (fit %.2f)\n", marker, option.Name, option.FitScore))
		if option.Rationale != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", option.Rationale))
		}
	}
	if len(options) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(options)-maxItemsToShow))
	}

	p.printBox("FRAMEWORK OPTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatrix outputs the planned content matrix units
func (p *Printer) PrintMatrix(matrix *content.Matrix) {
	if matrix == nil || len(matrix.Units) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total units planned: %d\n\n", len(matrix.Units)))

	count := min(len(matrix.Units), maxItemsToShow)
	for i := 0; i < count; i++ {
		unit := matrix.Units[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, unit.Topic))
		sb.WriteString(fmt.Sprintf("    Audience: %s\n", unit.AudienceLevel))
	}
	if len(matrix.Units) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(matrix.Units)-maxItemsToShow))
	}

	p.printBox("CONTENT MATRIX", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatchSummary outputs the outcome of a finished batch run
func (p *Printer) PrintBatchSummary(batch *pipeline.BatchResult) {
	if batch == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated: %d\n", batch.Generated))
	sb.WriteString(fmt.Sprintf("Degraded:  %d\n\n", batch.Failed))

	count := min(len(batch.Units), maxItemsToShow)
	for i := 0; i < count; i++ {
		unit := batch.Units[i]
		state := "ok"
		if unit.Failed {
			state = "degraded"
		}
		sb.WriteString(fmt.Sprintf("#%d  %s: score %d (%s)\n", i+1, unit.Topic.Topic, unit.Score, state))
	}
	if len(batch.Units) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(batch.Units)-maxItemsToShow))
	}

	p.printBox("BATCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
