package formatter

import (
	"bytes"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a colored unified diff of a file before and after editing,
// or "" when nothing changed.
func Diff(filename string, before, after []byte) (string, error) {
	if bytes.Equal(before, after) {
		return "", nil
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + filename,
		ToFile:   "b/" + filename,
		Context:  3,
	})
	if err != nil {
		return "", err
	}
	return colorize(text), nil
}

func colorize(diff string) string {
	var builder strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			builder.WriteString(fileStyle.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			builder.WriteString(lineStyle.Sprint(line))
		case strings.HasPrefix(line, "+"):
			builder.WriteString(addStyle.Sprint(line))
		case strings.HasPrefix(line, "-"):
			builder.WriteString(removeStyle.Sprint(line))
		default:
			builder.WriteString(line)
		}
	}
	return builder.String()
}
