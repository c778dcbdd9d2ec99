package results

import (
	"path/filepath"
	"sort"
	"strings"

	"fastfinder/internal/domain"
)

// sorter orders insertion indices into a record log
type sorter struct {
	records []domain.Record
	key     domain.SortKey
	desc    bool
}

// compareKey compares the primary key of two records, ignoring direction
func (s sorter) compareKey(a, b int) int {
	ra, rb := &s.records[a], &s.records[b]
	switch s.key {
	case domain.SortPath:
		return compareFold(ra.Location, rb.Location)
	case domain.SortExtension:
		return compareFold(filepath.Ext(ra.Location), filepath.Ext(rb.Location))
	case domain.SortEntry:
		return compareFold(ra.Entry, rb.Entry)
	case domain.SortLine:
		switch {
		case ra.Line < rb.Line:
			return -1
		case ra.Line > rb.Line:
			return 1
		}
		return 0
	case domain.SortSnippet:
		return compareFold(ra.Snippet, rb.Snippet)
	default:
		return 0
	}
}

// less flips only the key comparison for descending order; ties always
// fall back to ascending insertion index.
func (s sorter) less(a, b int) bool {
	c := s.compareKey(a, b)
	if s.desc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return a < b
}

// sortIndices sorts indices in place
func (s sorter) sortIndices(indices []int) {
	if s.key == domain.SortNone {
		sort.Ints(indices)
		return
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return s.less(indices[i], indices[j])
	})
}

// insert places idx into the sorted indices
func (s sorter) insert(indices []int, idx int) []int {
	if s.key == domain.SortNone {
		pos := sort.SearchInts(indices, idx)
		return insertAt(indices, pos, idx)
	}
	pos := sort.Search(len(indices), func(j int) bool {
		return s.less(idx, indices[j])
	})
	return insertAt(indices, pos, idx)
}

// merge combines two sorted index lists into a new slice
func (s sorter) merge(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if s.less(b[j], a[i]) {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func insertAt(indices []int, pos, idx int) []int {
	indices = append(indices, 0)
	copy(indices[pos+1:], indices[pos:])
	indices[pos] = idx
	return indices
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
