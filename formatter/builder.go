package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/tsed/internal/syntax"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	classStyle   = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	noteStyle    = color.New(color.FgGreen, color.Bold)
	addStyle     = color.New(color.FgGreen)
	removeStyle  = color.New(color.FgRed)
)

// Label marks a span of an issue's source.
type Label struct {
	Span syntax.Span
	Text string
}

// Issue is a diagnostic about a script or a document.
type Issue struct {
	Class    string
	Filename string
	Message  string
	Note     string
	// Source is the buffer Labels point into. It may be nil when there
	// is nothing to show.
	Source []byte
	Labels []Label
}

type issueData struct {
	Class           string
	Filename        string
	Message         string
	Note            string
	Line            int
	Column          int
	MaxLineNumWidth int
	Padding         string
	Snippets        []snippetData
}

type snippetData struct {
	LineNum   string
	Line      string
	Underline int
	Width     int
	Label     string
}

var issueTemplate = template.Must(template.New("issue").Funcs(template.FuncMap{
	"header":  header,
	"snippet": snippet,
	"message": message,
	"note":    note,
}).Parse(`{{header .Class .Padding .Filename .Line .Column -}}
{{range .Snippets}}{{snippet . $.Padding}}{{end -}}
{{message .Message .Padding}}
{{- if .Note}}{{note .Note .Padding}}{{end}}`))

// Format renders issues in order, separated by blank lines.
func Format(issues ...Issue) string {
	var builder strings.Builder
	for i, issue := range issues {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(buildIssue(issue))
	}
	return builder.String()
}

func buildIssue(issue Issue) string {
	data := issueData{
		Class:    issue.Class,
		Filename: issue.Filename,
		Message:  issue.Message,
		Note:     issue.Note,
	}
	var lines []string
	if issue.Source != nil {
		lines = strings.Split(string(issue.Source), "\n")
	}
	starts := lineStarts(issue.Source)

	maxLine := 1
	for i, l := range issue.Labels {
		line, col := position(starts, l.Span.Start)
		if i == 0 {
			data.Line, data.Column = line, col
		}
		if line > maxLine {
			maxLine = line
		}
	}
	data.MaxLineNumWidth = calculateMaxLineNumWidth(maxLine)
	data.Padding = strings.Repeat(" ", data.MaxLineNumWidth+1)

	for _, l := range issue.Labels {
		line, col := position(starts, l.Span.Start)
		if line-1 >= len(lines) {
			continue
		}
		text := lines[line-1]
		start := calculateVisualColumn(text, col)
		end := start + 1
		if endLine, endCol := position(starts, l.Span.End); endLine == line && l.Span.End > l.Span.Start {
			end = calculateVisualColumn(text, endCol)
		} else if endLine != line {
			end = len(expandTabs(text))
		}
		if end <= start {
			end = start + 1
		}
		data.Snippets = append(data.Snippets, snippetData{
			LineNum:   fmt.Sprintf("%*d", data.MaxLineNumWidth, line),
			Line:      expandTabs(text),
			Underline: start,
			Width:     end - start,
			Label:     l.Text,
		})
	}

	var buf bytes.Buffer
	if err := issueTemplate.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v", err)
	}
	return buf.String()
}

// utils functions used in the text template

func header(class, padding, filename string, line, column int) string {
	s := errorStyle.Sprint("error") + "\n"
	if class != "" {
		s = errorStyle.Sprint("error: ") + classStyle.Sprintf("%s\n", class)
	}
	if filename == "" {
		return s
	}
	s += lineStyle.Sprintf("%s--> ", padding[1:])
	if line > 0 {
		return s + fileStyle.Sprintf("%s:%d:%d\n", filename, line, column)
	}
	return s + fileStyle.Sprintf("%s\n", filename)
}

func snippet(s snippetData, padding string) string {
	out := lineStyle.Sprintf("%s|\n", padding)
	out += lineStyle.Sprintf("%s | ", s.LineNum) + s.Line + "\n"
	out += lineStyle.Sprintf("%s| ", padding)
	out += strings.Repeat(" ", s.Underline)
	out += messageStyle.Sprint(strings.Repeat("^", s.Width))
	if s.Label != "" {
		out += " " + messageStyle.Sprint(s.Label)
	}
	return out + "\n"
}

func message(msg, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", msg)
}

func note(n, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + noteStyle.Sprint("note: ") + n + "\n"
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position converts a byte offset to a 1-based line and column.
func position(starts []int, offset int) (line, column int) {
	line = 1
	for i, s := range starts {
		if s > offset {
			break
		}
		line = i + 1
	}
	return line, offset - starts[line-1] + 1
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// calculateVisualColumn returns the 0-based display column of the 1-based
// byte column in line, expanding tabs.
func calculateVisualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visualColumn := 0
	for i, ch := range line {
		if i+1 >= column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}

func expandTabs(line string) string {
	var expanded strings.Builder
	col := 0
	for _, ch := range line {
		if ch == '\t' {
			n := tabWidth - (col % tabWidth)
			expanded.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		expanded.WriteRune(ch)
		col++
	}
	return expanded.String()
}
