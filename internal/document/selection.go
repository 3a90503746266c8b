package document

import (
	"slices"
	"strconv"
	"strings"
)

// PageSelection is an ascending set of unique 0-based page indices, each
// valid for the document it was built against.
type PageSelection struct {
	indices []int
}

// NewPageSelection keeps the indices in [0, total), removes duplicates and
// sorts the result ascending. Indices outside the document are dropped.
func NewPageSelection(indices []int, total int) PageSelection {
	kept := make([]int, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < total {
			kept = append(kept, i)
		}
	}
	slices.Sort(kept)
	return PageSelection{indices: slices.Compact(kept)}
}

// AllPages selects every page of a document with total pages.
func AllPages(total int) PageSelection {
	indices := make([]int, total)
	for i := range indices {
		indices[i] = i
	}
	return PageSelection{indices: indices}
}

// Len returns the number of selected pages.
func (s PageSelection) Len() int {
	return len(s.indices)
}

// Indices returns a copy of the 0-based indices.
func (s PageSelection) Indices() []int {
	return slices.Clone(s.indices)
}

// PageNumbers returns the 1-based page numbers.
func (s PageSelection) PageNumbers() []int {
	pages := make([]int, len(s.indices))
	for i, idx := range s.indices {
		pages[i] = idx + 1
	}
	return pages
}

// String renders the 1-based page numbers joined by commas, e.g. "1,5,6,7".
func (s PageSelection) String() string {
	parts := make([]string, len(s.indices))
	for i, idx := range s.indices {
		parts[i] = strconv.Itoa(idx + 1)
	}
	return strings.Join(parts, ",")
}
