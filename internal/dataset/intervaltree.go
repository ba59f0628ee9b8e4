package dataset

import "sort"

// IntervalTree provides O(log n + k) overlap queries using a sorted-slice approach.
// Genes are loaded once and never modified after build.
type IntervalTree struct {
	intervals []interval
	maxEnd    []int // maxEnd[i] = max(end) for intervals[:i+1]
}

type interval struct {
	start int
	end   int
	index int // position of the gene in the gene map
}

// BuildIntervalTree creates an interval tree over a gene map.
func BuildIntervalTree(genes []Gene) *IntervalTree {
	if len(genes) == 0 {
		return &IntervalTree{}
	}

	intervals := make([]interval, len(genes))
	for i, g := range genes {
		intervals[i] = interval{start: g.Start, end: g.End, index: i}
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	// Build prefix-max array: maxEnd[i] = max(end) for intervals[:i+1]
	maxEnd := make([]int, len(intervals))
	maxEnd[0] = intervals[0].end
	for i := 1; i < len(intervals); i++ {
		maxEnd[i] = max(maxEnd[i-1], intervals[i].end)
	}

	return &IntervalTree{intervals: intervals, maxEnd: maxEnd}
}

// FindOverlaps returns the gene-map indices of all genes whose half-open
// [Start, End) range contains pos, in gene-map order.
func (t *IntervalTree) FindOverlaps(pos int) []int {
	if len(t.intervals) == 0 {
		return nil
	}

	var result []int

	// hi is the first index with start > pos; candidates are [0, hi).
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].start > pos
	})

	for i := hi - 1; i >= 0; i-- {
		// No interval in [0, i] reaches pos; ends are exclusive.
		if t.maxEnd[i] <= pos {
			break
		}
		if t.intervals[i].end > pos {
			result = append(result, t.intervals[i].index)
		}
	}

	sort.Ints(result)
	return result
}
