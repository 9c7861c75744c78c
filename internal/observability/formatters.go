// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/interview-insights/internal/ingestion"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/types"
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

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSource outputs where the analysed text came from.
func (p *Printer) PrintSource(meta *ingestion.Metadata) {
	if meta == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Source:   %s\n", meta.Source)
	fmt.Fprintf(&sb, "Length:   %d chars, %d lines\n", meta.Chars, meta.Lines)
	fmt.Fprintf(&sb, "SHA256:   %s", meta.Hash[:min(len(meta.Hash), 16)])
	if meta.Rendered {
		sb.WriteString("\nRendered: headless browser")
	}
	p.printBox("INPUT", sb.String())
}

// PrintRecord outputs the headline fields of a processed record.
func (p *Printer) PrintRecord(record *types.ProcessedExperience) {
	if record == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "ID:        %s\n", record.ID)
	fmt.Fprintf(&sb, "Company:   %s\n", record.Company)
	fmt.Fprintf(&sb, "Role:      %s\n", record.Role)
	if record.Verdict != "" {
		fmt.Fprintf(&sb, "Verdict:   %s\n", record.Verdict)
	}
	fmt.Fprintf(&sb, "Sentiment: %s (%.2f)\n", record.SentimentAnalysis.Label, record.SentimentAnalysis.Confidence)
	fmt.Fprintf(&sb, "Processed: %t", record.NLPProcessed)

	if len(record.Highlights) > 0 {
		sb.WriteString("\n\nHighlights:")
		for _, h := range record.Highlights {
			fmt.Fprintf(&sb, "\n  • %s", h)
		}
	}

	p.printBox("EXPERIENCE", sb.String())
}

// PrintRounds outputs the detected rounds with their question counts.
func (p *Printer) PrintRounds(analysis *pipeline.Analysis) {
	if analysis == nil || len(analysis.Rounds) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Detected %d segments:\n", len(analysis.Rounds))
	for _, r := range analysis.Rounds {
		fmt.Fprintf(&sb, "\n%s", r.Segment.Label)
		if r.Segment.Kind != "" {
			fmt.Fprintf(&sb, " [%s]", r.Segment.Kind)
		}
		fmt.Fprintf(&sb, "\n  %d questions", len(r.Questions))
	}

	p.printBox("INTERVIEW ROUNDS", sb.String())
}

// PrintQuestions outputs question counts per category and a few examples.
func (p *Printer) PrintQuestions(questions types.CategorizedQuestions) {
	total := 0
	for _, qs := range questions {
		total += len(qs)
	}
	if total == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total questions: %d\n", total)
	for _, category := range types.Categories {
		qs := questions[category]
		if len(qs) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s (%d)\n", category, len(qs))
		count := min(len(qs), 3)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "  • %s\n", qs[i])
		}
		if len(qs) > 3 {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(qs)-3)
		}
	}

	p.printBox("QUESTIONS BY CATEGORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintInsights outputs each non-empty insight group.
func (p *Printer) PrintInsights(insights types.Insights) {
	var sb strings.Builder
	for _, kind := range types.InsightKinds {
		items := insights[kind]
		if len(items) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s:\n", kind)
		count := min(len(items), maxItemsToShow)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "  • %s\n", items[i])
		}
		if len(items) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(items)-maxItemsToShow)
		}
	}
	if sb.Len() == 0 {
		return
	}

	p.printBox("INSIGHTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRoundSentiment outputs the sentiment of each round.
func (p *Printer) PrintRoundSentiment(analysis *pipeline.Analysis) {
	if analysis == nil || len(analysis.Rounds) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range analysis.Rounds {
		fmt.Fprintf(&sb, "%-30s %-8s %.2f", truncate(r.Segment.Label, 30), r.Sentiment.Label, r.Sentiment.Confidence)
		if i < len(analysis.Rounds)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SENTIMENT BY ROUND", sb.String())
}

// PrintResult outputs every box for a pipeline run. A degraded run only
// gets the record and the reason.
func (p *Printer) PrintResult(result *pipeline.Result) {
	if result == nil {
		return
	}

	p.PrintRecord(&result.Record)
	if result.Outcome == pipeline.Degraded {
		reason := "unknown"
		if result.Err != nil {
			reason = result.Err.Error()
		}
		p.printBox("⚠ ANALYSIS DEGRADED", reason)
		return
	}

	p.PrintRounds(result.Analysis)
	p.PrintQuestions(result.Record.CategorizedQuestions)
	p.PrintInsights(result.Record.ExtractedInsights)
	p.PrintRoundSentiment(result.Analysis)
}
