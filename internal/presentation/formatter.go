package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/mode/shared"
	"github.com/zjrosen/prodtests/internal/ui/markdown"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	now    time.Time
	width  int
	style  string
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithNow fixes the reference time for relative timestamps.
func WithNow(t time.Time) Option {
	return func(f *Formatter) { f.now = t }
}

// WithWordWrap sets the markdown render width.
func WithWordWrap(width int) Option {
	return func(f *Formatter) { f.width = width }
}

// WithStyle selects a glamour standard style. Empty detects the terminal.
func WithStyle(style string) Option {
	return func(f *Formatter) { f.style = style }
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer, opts ...Option) *Formatter {
	f := &Formatter{writer: writer, now: time.Now(), width: 100, style: "notty"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatRuns formats runs as JSON
func (f *Formatter) FormatRuns(runs []RunDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(runs)
}

// FormatRunsTable renders runs as a markdown table through glamour.
func (f *Formatter) FormatRunsTable(runs []history.Run) error {
	r, err := markdown.New(f.width, f.style)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(RunsMarkdown(runs, f.now))
	if err != nil {
		return fmt.Errorf("rendering history: %w", err)
	}
	_, err = io.WriteString(f.writer, out)
	return err
}

// RunsMarkdown builds the history table, newest first as given.
func RunsMarkdown(runs []history.Run, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Run history\n\n")
	if len(runs) == 0 {
		b.WriteString("No runs recorded.\n")
		return b.String()
	}

	b.WriteString("| When | Part | Test set | Outcome | Progress | Took | Detail |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range runs {
		name := r.SetName
		if name == "" {
			name = r.SetID
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d/%d | %s | %s |\n",
			shared.RelativeTime(r.StartedAt, now),
			cell(r.PartNumber),
			cell(name),
			r.Outcome,
			r.Completed, r.Total,
			shared.Elapsed(r.Duration()),
			cell(detail(r)),
		)
	}
	return b.String()
}

func detail(r history.Run) string {
	switch {
	case r.FailedTest != "":
		return r.FailedTest
	case r.Error != "":
		return r.Error
	}
	return ""
}

// cell keeps a value inside one markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
