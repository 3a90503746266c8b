package split

import (
	"strconv"
	"strings"

	"github.com/vishalharkal15/pdf-convert/internal/document"
)

// ParsePageNumbers parses a comma separated list of 1-based page numbers and
// inclusive ranges such as "1,3,5-7" against a document of total pages.
// Tokens that are not integers, ranges whose start exceeds their end, and
// pages outside [1, total] are skipped.
func ParsePageNumbers(list string, total int) document.PageSelection {
	var indices []int

	for token := range strings.SplitSeq(list, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if from, to, isRange := strings.Cut(token, "-"); isRange {
			start, err1 := strconv.Atoi(strings.TrimSpace(from))
			end, err2 := strconv.Atoi(strings.TrimSpace(to))
			if err1 != nil || err2 != nil {
				continue
			}
			if start < 1 || start > end || end > total {
				continue
			}
			for p := start; p <= end; p++ {
				indices = append(indices, p-1)
			}
			continue
		}

		page, err := strconv.Atoi(token)
		if err != nil || page < 1 || page > total {
			continue
		}
		indices = append(indices, page-1)
	}

	return document.NewPageSelection(indices, total)
}

// RangeSelection selects the inclusive 1-based window start..end. ok is
// false unless 1 <= start <= end <= total.
func RangeSelection(start, end, total int) (sel document.PageSelection, ok bool) {
	if start < 1 || start > end || end > total {
		return document.PageSelection{}, false
	}

	indices := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		indices = append(indices, p-1)
	}
	return document.NewPageSelection(indices, total), true
}
