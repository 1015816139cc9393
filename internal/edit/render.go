package edit

import (
	"bytes"
	"fmt"
	"sort"
)

// Sort returns a copy of edits ordered by range start, then range end.
// Edits at the same range keep their relative order, so insertions at one
// offset come out in planning order.
func Sort(edits []Edit) []Edit {
	out := make([]Edit, len(edits))
	copy(out, edits)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Range(), out[j].Range()
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	return out
}

// Check verifies that sorted edits do not overlap. A zero-width insertion
// at the boundary of another edit does not overlap it.
func Check(sorted []Edit) error {
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Range().Start < prev.Range().End {
			return &ConflictError{A: prev, B: cur}
		}
	}
	return nil
}

// Render applies edits to src in a single pass and returns the new buffer.
// src is not modified.
func Render(src []byte, edits []Edit) ([]byte, error) {
	sorted := Sort(edits)
	for _, e := range sorted {
		if r := e.Range(); r.Start < 0 || r.End > len(src) || r.Start > r.End {
			return nil, fmt.Errorf("%s outside %d-byte source", e, len(src))
		}
	}
	if err := Check(sorted); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(src))
	last := 0
	for _, e := range sorted {
		r := e.Range()
		buf.Write(src[last:r.Start])
		if e.Kind != Delete {
			buf.WriteString(e.Text)
		}
		last = r.End
	}
	buf.Write(src[last:])
	return buf.Bytes(), nil
}
