package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/segmentio/ksuid"
)

// Reporter formats diagnostics against a single source file in a
// Rust-compiler-like style: a colored header, a gutter with the
// offending line and a caret marker under the offending column, then
// any suggestions, notes, and help text.
type Reporter struct {
	filename string
	lines    []string
	// RunID correlates every diagnostic rendered by this reporter back
	// to one compilation invocation, for log aggregation across a batch
	// CLI run that compiles many files in one process.
	RunID ksuid.KSUID
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
		RunID:    ksuid.New(),
	}
}

func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder

	levelColor := r.levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		out.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message))
	} else {
		out.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))
	}

	width := lineNumberWidth(d.Position.Line)
	indent := strings.Repeat(" ", width)

	out.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, d.Position.Line, d.Position.Col))
	out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if d.Position.Line > 1 && d.Position.Line-1 <= len(r.lines) {
		out.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, d.Position.Line-1)), dim("│"), r.lines[d.Position.Line-2]))
	}

	if d.Position.Line > 0 && d.Position.Line <= len(r.lines) {
		out.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, d.Position.Line)), dim("│"), r.lines[d.Position.Line-1]))
		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), r.marker(d.Position.Col, d.Length, d.Level)))
	}

	if d.Position.Line < len(r.lines) {
		out.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, d.Position.Line+1)), dim("│"), r.lines[d.Position.Line]))
	}

	if len(d.Suggestions) > 0 {
		help := color.New(color.FgCyan).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		for i, s := range d.Suggestions {
			if i == 0 {
				out.WriteString(fmt.Sprintf("%s %s %s: %s\n", indent, help("help"), help("try"), s.Message))
			} else {
				out.WriteString(fmt.Sprintf("%s %s %s\n", indent, help("    "), s.Message))
			}
		}
	}

	for _, n := range d.Notes {
		note := color.New(color.FgBlue).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), note("note:"), n))
	}

	if d.HelpText != "" {
		help := color.New(color.FgGreen).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), help("help:"), d.HelpText))
	}

	out.WriteString("\n")
	return out.String()
}

func (r *Reporter) levelColor(l Level) func(...interface{}) string {
	switch l {
	case LevelError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case LevelWarning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case LevelNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case LevelHelp:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (r *Reporter) marker(col, length int, level Level) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, col-1))
	c := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == LevelWarning {
		c = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return spaces + c(strings.Repeat("^", length))
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
