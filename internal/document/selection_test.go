package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageSelection(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		total   int
		want    []int
		str     string
	}{
		{name: "sorted and deduplicated", indices: []int{4, 0, 2, 4, 0}, total: 5, want: []int{0, 2, 4}, str: "1,3,5"},
		{name: "out of range dropped", indices: []int{-1, 3, 9, 1}, total: 4, want: []int{1, 3}, str: "2,4"},
		{name: "all invalid", indices: []int{7, 8}, total: 3, want: []int{}, str: ""},
		{name: "nil input", indices: nil, total: 3, want: []int{}, str: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewPageSelection(tt.indices, tt.total)
			assert.Equal(t, tt.want, sel.Indices())
			assert.Equal(t, len(tt.want), sel.Len())
			assert.Equal(t, tt.str, sel.String())
		})
	}
}

func TestPageSelection_PageNumbers(t *testing.T) {
	sel := NewPageSelection([]int{6, 4, 5, 0}, 10)
	assert.Equal(t, []int{1, 5, 6, 7}, sel.PageNumbers())
	assert.Equal(t, "1,5,6,7", sel.String())
}

func TestAllPages(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, AllPages(3).Indices())
	assert.Equal(t, 0, AllPages(0).Len())
}

func TestIndicesReturnsCopy(t *testing.T) {
	sel := NewPageSelection([]int{0, 1}, 2)
	idx := sel.Indices()
	idx[0] = 99
	assert.Equal(t, []int{0, 1}, sel.Indices())
}
