package edit

import "sort"

// Lines maps byte offsets to 1-based line numbers.
type Lines struct {
	starts []int
	size   int
}

func NewLines(src []byte) *Lines {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Lines{starts: starts, size: len(src)}
}

// Line returns the line holding offset.
func (l *Lines) Line(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
}

// Last returns the number of the last line. A trailing newline does not
// open a new line.
func (l *Lines) Last() int {
	n := len(l.starts)
	if n > 1 && l.starts[n-1] == l.size {
		n--
	}
	return n
}
